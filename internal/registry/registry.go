package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/gaffar-dulkadir/vectord/internal/vectorstore"
)

// candidateFactor widens the semantic retrieval stage of hybrid discovery so
// the keyword post-filter has enough candidates to drop from.
const candidateFactor = 4

// defaultDiscoverLimit caps discovery results when the caller passes none.
const defaultDiscoverLimit = 10

// Embedder is the slice of the embedding client the registry depends on.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Summary is one discovery result: the governance metadata plus the
// similarity score when semantic ranking was involved.
type Summary struct {
	CollectionMetadata

	// Score is the similarity score for semantic and hybrid discovery,
	// zero for pure keyword discovery.
	Score float32 `json:"score,omitempty"`
}

// Registry maintains governance records in the reserved metadata collection
// and resolves collection discovery over them.
//
// Concurrent writers to the same collection's record race with
// last-writer-wins semantics: the registry is discovery metadata, not the
// source of truth for collection existence.
type Registry struct {
	store    vectorstore.Store
	embedder Embedder
	logger   *zap.Logger
}

// New creates a governance registry.
func New(store vectorstore.Store, embedder Embedder, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		store:    store,
		embedder: embedder,
		logger:   logger,
	}
}

// EnsureReady creates the reserved registry collection if it is absent.
// The registry collection's dimensionality follows the embedding model.
func (r *Registry) EnsureReady(ctx context.Context) error {
	exists, err := r.store.CollectionExists(ctx, MetadataCollection)
	if err != nil {
		return fmt.Errorf("checking registry collection: %w", err)
	}
	if exists {
		return nil
	}

	err = r.store.CreateCollection(ctx, vectorstore.CollectionSpec{
		Name:       MetadataCollection,
		VectorSize: r.embedder.Dimension(),
		Distance:   vectorstore.DistanceCosine,
	})
	if err != nil && !errors.Is(err, vectorstore.ErrCollectionExists) {
		return fmt.Errorf("creating registry collection: %w", err)
	}

	r.logger.Info("governance registry ready",
		zap.String("collection", MetadataCollection),
		zap.Int("vector_size", r.embedder.Dimension()),
	)
	return nil
}

// UpsertRecord writes the governance record for a collection, embedding its
// description text for semantic discovery. Records are keyed by collection
// name, so repeated upserts overwrite.
func (r *Registry) UpsertRecord(ctx context.Context, meta CollectionMetadata) error {
	if err := meta.Validate(); err != nil {
		return err
	}

	vector, err := r.embedder.Embed(ctx, meta.embeddingText())
	if err != nil {
		return fmt.Errorf("embedding governance record for %s: %w", meta.Name, err)
	}

	_, err = r.store.UpsertPoint(ctx, MetadataCollection, vectorstore.Point{
		ID:      meta.Name,
		Vector:  vector,
		Payload: meta.payload(),
	})
	if err != nil {
		return fmt.Errorf("upserting governance record for %s: %w", meta.Name, err)
	}

	r.logger.Debug("governance record upserted", zap.String("collection", meta.Name))
	return nil
}

// RemoveRecord removes a collection's governance record. Removing an absent
// record is not an error.
func (r *Registry) RemoveRecord(ctx context.Context, collectionName string) error {
	err := r.store.DeletePoint(ctx, MetadataCollection, collectionName)
	if err != nil && !errors.Is(err, vectorstore.ErrPointNotFound) {
		return fmt.Errorf("removing governance record for %s: %w", collectionName, err)
	}
	return nil
}

// GetRecord fetches a single governance record by collection name.
func (r *Registry) GetRecord(ctx context.Context, collectionName string) (*CollectionMetadata, error) {
	point, err := r.store.GetPoint(ctx, MetadataCollection, collectionName)
	if err != nil {
		return nil, err
	}
	meta := metadataFromPayload(point.Payload)
	return &meta, nil
}

// ListRecords returns every governance record, ordered by priority then
// created date descending.
func (r *Registry) ListRecords(ctx context.Context) ([]CollectionMetadata, error) {
	points, err := r.scrollAll(ctx, nil)
	if err != nil {
		return nil, err
	}

	records := make([]CollectionMetadata, len(points))
	for i, p := range points {
		records[i] = metadataFromPayload(p.Payload)
	}
	sortByGovernance(records)
	return records, nil
}

// Discover resolves "which collection should I search" over the registry.
//
// Three modes:
//   - keyword: keywordFilter only; exact field equalities over governance
//     payloads, ordered by priority (high > medium > low) then created date
//     descending.
//   - semantic: queryText only; ranks by vector similarity of the embedded
//     query against registry entries.
//   - hybrid: both; semantic top-N retrieval first, then the keyword filter
//     applied as a post-filter. Candidates failing the filter are dropped,
//     never re-ranked: keyword filters express hard governance constraints
//     and must not be out-voted by similarity score.
func (r *Registry) Discover(ctx context.Context, queryText string, keywordFilter map[string]any, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = defaultDiscoverLimit
	}

	if queryText == "" {
		return r.discoverKeyword(ctx, keywordFilter, limit)
	}
	return r.discoverSemantic(ctx, queryText, keywordFilter, limit)
}

func (r *Registry) discoverKeyword(ctx context.Context, keywordFilter map[string]any, limit int) ([]Summary, error) {
	filter := keywordToFilter(keywordFilter)

	points, err := r.scrollAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	records := make([]CollectionMetadata, len(points))
	for i, p := range points {
		records[i] = metadataFromPayload(p.Payload)
	}
	sortByGovernance(records)

	if len(records) > limit {
		records = records[:limit]
	}
	summaries := make([]Summary, len(records))
	for i, rec := range records {
		summaries[i] = Summary{CollectionMetadata: rec}
	}
	return summaries, nil
}

func (r *Registry) discoverSemantic(ctx context.Context, queryText string, keywordFilter map[string]any, limit int) ([]Summary, error) {
	vector, err := r.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embedding discovery query: %w", err)
	}

	searchLimit := limit
	hybrid := len(keywordFilter) > 0
	if hybrid {
		searchLimit = limit * candidateFactor
	}

	hits, err := r.store.SearchPoints(ctx, MetadataCollection, vector, vectorstore.SearchParams{
		Limit: searchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("searching governance records: %w", err)
	}

	filter := keywordToFilter(keywordFilter)
	summaries := make([]Summary, 0, limit)
	for _, hit := range hits {
		if hybrid && !filter.Matches(hit.Payload) {
			continue
		}
		summaries = append(summaries, Summary{
			CollectionMetadata: metadataFromPayload(hit.Payload),
			Score:              hit.Score,
		})
		if len(summaries) == limit {
			break
		}
	}
	return summaries, nil
}

// scrollAll pages through the whole registry collection, keeping points the
// filter accepts.
func (r *Registry) scrollAll(ctx context.Context, filter *vectorstore.Filter) ([]vectorstore.Point, error) {
	var points []vectorstore.Point
	cursor := ""
	for {
		page, err := r.store.ScrollPoints(ctx, MetadataCollection, cursor, 256)
		if err != nil {
			return nil, fmt.Errorf("scrolling governance records: %w", err)
		}
		for _, p := range page.Points {
			if filter == nil || filter.Matches(p.Payload) {
				points = append(points, p)
			}
		}
		if page.NextCursor == "" {
			return points, nil
		}
		cursor = page.NextCursor
	}
}

// keywordToFilter translates field equalities into a store filter. Tag
// constraints become set-membership so a single requested tag matches
// records carrying it among others.
func keywordToFilter(keywordFilter map[string]any) *vectorstore.Filter {
	if len(keywordFilter) == 0 {
		return &vectorstore.Filter{}
	}

	filter := &vectorstore.Filter{
		Match:    make(map[string]any),
		MatchAny: make(map[string][]string),
	}
	for key, value := range keywordFilter {
		if key == "tags" {
			switch v := value.(type) {
			case string:
				filter.MatchAny[key] = []string{v}
			case []string:
				filter.MatchAny[key] = v
			case []any:
				for _, elem := range v {
					if s, ok := elem.(string); ok {
						filter.MatchAny[key] = append(filter.MatchAny[key], s)
					}
				}
			}
			continue
		}
		filter.Match[key] = value
	}
	return filter
}

// sortByGovernance orders records by priority rank then created date
// descending, name as the final tiebreaker for determinism.
func sortByGovernance(records []CollectionMetadata) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Priority.rank() != records[j].Priority.rank() {
			return records[i].Priority.rank() > records[j].Priority.rank()
		}
		if !records[i].CreatedDate.Equal(records[j].CreatedDate) {
			return records[i].CreatedDate.After(records[j].CreatedDate)
		}
		return records[i].Name < records[j].Name
	})
}
