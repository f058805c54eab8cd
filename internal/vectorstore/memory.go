package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
)

// MemoryStore is an in-process Store implementation with exact brute-force
// search. It backs unit tests and small deployments where running Qdrant is
// not worth the overhead. Scores are computed with the collection's
// configured distance metric; euclidean scores are negated so that higher
// always means more similar.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
	seq         uint64
}

type memCollection struct {
	spec   CollectionSpec
	points map[string]*memPoint
}

type memPoint struct {
	point Point
	seq   uint64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*memCollection),
	}
}

// CreateCollection creates a new collection.
func (s *MemoryStore) CreateCollection(ctx context.Context, spec CollectionSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	if spec.Distance == "" {
		spec.Distance = DistanceCosine
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[spec.Name]; ok {
		return fmt.Errorf("%w: %s", ErrCollectionExists, spec.Name)
	}
	s.collections[spec.Name] = &memCollection{
		spec:   spec,
		points: make(map[string]*memPoint),
	}
	return nil
}

// DeleteCollection deletes a collection and all its points.
func (s *MemoryStore) DeleteCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[name]; !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	delete(s.collections, name)
	return nil
}

// CollectionExists reports whether a collection exists.
func (s *MemoryStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok, nil
}

// ListCollections returns all collection names sorted lexically.
func (s *MemoryStore) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// GetCollectionInfo returns metadata about a collection.
func (s *MemoryStore) GetCollectionInfo(ctx context.Context, name string) (*CollectionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return &CollectionInfo{
		Name:       name,
		PointCount: len(coll.points),
		VectorSize: coll.spec.VectorSize,
		Distance:   coll.spec.Distance,
	}, nil
}

// UpsertPoint inserts or replaces a point.
func (s *MemoryStore) UpsertPoint(ctx context.Context, collection string, point Point) (string, error) {
	if point.ID == "" {
		return "", fmt.Errorf("%w: point id required", ErrInvalidConfig)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}
	if len(point.Vector) != coll.spec.VectorSize {
		return "", fmt.Errorf("%w: collection %s expects %d dimensions, got %d",
			ErrDimensionMismatch, collection, coll.spec.VectorSize, len(point.Vector))
	}

	s.seq++
	coll.points[point.ID] = &memPoint{point: clonePoint(point), seq: s.seq}
	return point.ID, nil
}

// GetPoint retrieves a point by id.
func (s *MemoryStore) GetPoint(ctx context.Context, collection, id string) (*Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}
	mp, ok := coll.points[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPointNotFound, id)
	}
	p := clonePoint(mp.point)
	return &p, nil
}

// UpdatePoint partially updates a point: a nil vector keeps the stored
// vector, payload keys are merged over the stored payload.
func (s *MemoryStore) UpdatePoint(ctx context.Context, collection, id string, vector []float32, payload map[string]any) (*Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}
	mp, ok := coll.points[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPointNotFound, id)
	}

	updated := clonePoint(mp.point)
	if vector != nil {
		if len(vector) != coll.spec.VectorSize {
			return nil, fmt.Errorf("%w: collection %s expects %d dimensions, got %d",
				ErrDimensionMismatch, collection, coll.spec.VectorSize, len(vector))
		}
		updated.Vector = append([]float32(nil), vector...)
	}
	if updated.Payload == nil {
		updated.Payload = make(map[string]any, len(payload))
	}
	for k, v := range payload {
		updated.Payload[k] = v
	}

	s.seq++
	coll.points[id] = &memPoint{point: updated, seq: s.seq}
	result := clonePoint(updated)
	return &result, nil
}

// DeletePoint removes a point by id.
func (s *MemoryStore) DeletePoint(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}
	if _, ok := coll.points[id]; !ok {
		return fmt.Errorf("%w: %s", ErrPointNotFound, id)
	}
	delete(coll.points, id)
	return nil
}

// SearchPoints performs exact brute-force similarity search.
func (s *MemoryStore) SearchPoints(ctx context.Context, collection string, vector []float32, params SearchParams) ([]SearchHit, error) {
	if params.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidConfig, params.Limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}
	if len(vector) != coll.spec.VectorSize {
		return nil, fmt.Errorf("%w: collection %s expects %d dimensions, got %d",
			ErrDimensionMismatch, collection, coll.spec.VectorSize, len(vector))
	}

	score := scoreFunc(coll.spec.Distance)

	type scored struct {
		hit SearchHit
		seq uint64
	}
	hits := make([]scored, 0, len(coll.points))
	for _, mp := range coll.points {
		if params.Filter != nil && !params.Filter.Matches(mp.point.Payload) {
			continue
		}
		sc := score(vector, mp.point.Vector)
		if params.ScoreThreshold != nil && sc < *params.ScoreThreshold {
			continue
		}
		hits = append(hits, scored{
			hit: SearchHit{Point: clonePoint(mp.point), Score: sc},
			seq: mp.seq,
		})
	}

	// Descending score, ties broken by most recent upsert first.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].hit.Score != hits[j].hit.Score {
			return hits[i].hit.Score > hits[j].hit.Score
		}
		return hits[i].seq > hits[j].seq
	})

	if len(hits) > params.Limit {
		hits = hits[:params.Limit]
	}
	results := make([]SearchHit, len(hits))
	for i, h := range hits {
		results[i] = h.hit
	}
	return results, nil
}

// ScrollPoints pages through a collection in insertion order.
func (s *MemoryStore) ScrollPoints(ctx context.Context, collection, cursor string, limit int) (*ScrollPage, error) {
	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	var after uint64
	if cursor != "" {
		parsed, err := strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed scroll cursor %q", ErrInvalidConfig, cursor)
		}
		after = parsed
	}

	ordered := make([]*memPoint, 0, len(coll.points))
	for _, mp := range coll.points {
		if mp.seq > after {
			ordered = append(ordered, mp)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })

	page := &ScrollPage{}
	for i, mp := range ordered {
		if i == limit {
			page.NextCursor = strconv.FormatUint(ordered[i-1].seq, 10)
			break
		}
		page.Points = append(page.Points, clonePoint(mp.point))
	}
	return page, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

func clonePoint(p Point) Point {
	cloned := Point{
		ID:     p.ID,
		Vector: append([]float32(nil), p.Vector...),
	}
	if p.Payload != nil {
		cloned.Payload = make(map[string]any, len(p.Payload))
		for k, v := range p.Payload {
			cloned.Payload[k] = v
		}
	}
	return cloned
}

// scoreFunc returns the scoring function for a distance metric.
// Every function returns higher-is-more-similar scores.
func scoreFunc(d Distance) func(a, b []float32) float32 {
	switch d {
	case DistanceEuclidean:
		return negatedEuclidean
	case DistanceDotProduct:
		return dotProduct
	default:
		return cosineSimilarity
	}
}

func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

func dotProduct(a, b []float32) float32 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot)
}

func negatedEuclidean(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(-math.Sqrt(sum))
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
