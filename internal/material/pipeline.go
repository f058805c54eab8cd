package material

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gaffar-dulkadir/vectord/internal/embeddings"
	"github.com/gaffar-dulkadir/vectord/internal/vectorstore"
)

// Embedder is the slice of the embedding client the pipeline depends on.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) []embeddings.Result
	Dimension() int
}

// IndexResult is the outcome of indexing a single material.
type IndexResult struct {
	// PointID is the identity the material was stored under.
	PointID string `json:"point_id"`

	// VectorSize is the dimensionality of the stored vector.
	VectorSize int `json:"vector_size"`

	// Payload is the enriched payload that was persisted.
	Payload map[string]any `json:"payload"`
}

// ItemStatus reports the per-item outcome of a batch.
type ItemStatus string

const (
	// ItemOK marks a successfully indexed item.
	ItemOK ItemStatus = "ok"
	// ItemFailed marks an item that failed validation, embedding or upsert.
	ItemFailed ItemStatus = "failed"
)

// ItemResult is one positional outcome of a batch index.
type ItemResult struct {
	// Index is the item's position in the request.
	Index int `json:"index"`

	// Status is ok or failed.
	Status ItemStatus `json:"status"`

	// PointID is set on success.
	PointID string `json:"point_id,omitempty"`

	// Error describes the failure on failed items.
	Error string `json:"error,omitempty"`
}

// BatchResult aggregates a batch index run. A batch with zero successes is a
// fully-failed result, not an error: callers inspect per-item outcomes.
type BatchResult struct {
	Items          []ItemResult  `json:"items"`
	TotalProcessed int           `json:"total_processed"`
	Succeeded      int           `json:"succeeded"`
	Failed         int           `json:"failed"`
	Took           time.Duration `json:"took"`
}

// Pipeline orchestrates normalize -> embed -> upsert for materials.
// Nothing is persisted for an item unless its embedding succeeded.
type Pipeline struct {
	store      vectorstore.Store
	embedder   Embedder
	normalizer *Normalizer
	logger     *zap.Logger
}

// NewPipeline creates a material indexing pipeline.
func NewPipeline(store vectorstore.Store, embedder Embedder, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		store:      store,
		embedder:   embedder,
		normalizer: NewNormalizer(),
		logger:     logger,
	}
}

// IndexOne indexes a single material into a collection.
//
// Fails with ErrValidation if normalization rejects the input, an embedding
// error if the embedding step exhausts retries, or the store's sentinel
// errors on precondition violations. The store is only written after a
// successful embedding.
func (p *Pipeline) IndexOne(ctx context.Context, collection string, req IndexRequest) (*IndexResult, error) {
	record, err := p.normalizer.Normalize(req)
	if err != nil {
		return nil, err
	}

	vector, err := p.embedder.Embed(ctx, record.Content)
	if err != nil {
		return nil, fmt.Errorf("embedding material: %w", err)
	}

	pointID, err := p.store.UpsertPoint(ctx, collection, vectorstore.Point{
		ID:      record.ID,
		Vector:  vector,
		Payload: record.Payload,
	})
	if err != nil {
		return nil, fmt.Errorf("upserting material: %w", err)
	}

	p.logger.Debug("material indexed",
		zap.String("collection", collection),
		zap.String("point_id", pointID),
	)

	return &IndexResult{
		PointID:    pointID,
		VectorSize: len(vector),
		Payload:    record.Payload,
	}, nil
}

// IndexBatch indexes every material independently and upserts only the items
// whose embedding succeeded. One item's failure never prevents processing of
// its siblings; a caller deadline marks in-flight items failed without
// blocking the rest.
func (p *Pipeline) IndexBatch(ctx context.Context, collection string, reqs []IndexRequest) *BatchResult {
	start := time.Now()

	result := &BatchResult{
		Items:          make([]ItemResult, len(reqs)),
		TotalProcessed: len(reqs),
	}

	// Normalize everything up front; validation failures are final.
	records := make([]*Record, len(reqs))
	texts := make([]string, 0, len(reqs))
	embedIdx := make([]int, 0, len(reqs))
	for i, req := range reqs {
		record, err := p.normalizer.Normalize(req)
		if err != nil {
			result.Items[i] = ItemResult{Index: i, Status: ItemFailed, Error: err.Error()}
			continue
		}
		records[i] = record
		texts = append(texts, record.Content)
		embedIdx = append(embedIdx, i)
	}

	// Embed the survivors with per-item isolation, then upsert successes.
	embedded := p.embedder.EmbedBatch(ctx, texts)
	for pos, i := range embedIdx {
		if err := embedded[pos].Err; err != nil {
			result.Items[i] = ItemResult{Index: i, Status: ItemFailed, Error: err.Error()}
			continue
		}

		pointID, err := p.store.UpsertPoint(ctx, collection, vectorstore.Point{
			ID:      records[i].ID,
			Vector:  embedded[pos].Vector,
			Payload: records[i].Payload,
		})
		if err != nil {
			result.Items[i] = ItemResult{Index: i, Status: ItemFailed, Error: err.Error()}
			continue
		}
		result.Items[i] = ItemResult{Index: i, Status: ItemOK, PointID: pointID}
	}

	for _, item := range result.Items {
		if item.Status == ItemOK {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}
	result.Took = time.Since(start)

	p.logger.Info("batch indexed",
		zap.String("collection", collection),
		zap.Int("total", result.TotalProcessed),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Duration("took", result.Took),
	)

	return result
}
