package registry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaffar-dulkadir/vectord/internal/registry"
	"github.com/gaffar-dulkadir/vectord/internal/vectorstore"
)

// directionEmbedder maps known texts onto fixed unit vectors so similarity
// ordering in tests is exact. Unknown texts hash onto a deterministic vector.
type directionEmbedder struct {
	vectors map[string][]float32
}

func (e *directionEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	hash := 0
	for _, c := range text {
		hash = (hash*31 + int(c)) % 1000
	}
	v := make([]float32, 4)
	for i := range v {
		v[i] = float32((hash+i)%100) / 100.0
	}
	return v, nil
}

func (e *directionEmbedder) Dimension() int {
	return 4
}

func validMeta(name string) registry.CollectionMetadata {
	return registry.CollectionMetadata{
		Name:           name,
		VectorSize:     4,
		DistanceMetric: vectorstore.DistanceCosine,
		Description:    "governed collection for " + name,
		Department:     "engineering",
		Team:           "search",
		Project:        "atlas",
		SourceType:     "crawler",
		AccessLevel:    "internal",
		ContentType:    "text",
		Tags:           []string{"docs"},
		Priority:       registry.PriorityMedium,
		CreatedDate:    time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		IsActive:       true,
	}
}

func newTestRegistry(t *testing.T) (*registry.Registry, *vectorstore.MemoryStore, *directionEmbedder) {
	t.Helper()

	store := vectorstore.NewMemoryStore()
	embedder := &directionEmbedder{vectors: map[string][]float32{}}
	reg := registry.New(store, embedder, nil)
	require.NoError(t, reg.EnsureReady(context.Background()))
	return reg, store, embedder
}

func TestIsReserved(t *testing.T) {
	assert.True(t, registry.IsReserved("collection_metadata"))
	assert.False(t, registry.IsReserved("collection_metadata2"))
	assert.False(t, registry.IsReserved("docs"))
}

func TestRegistry_EnsureReady(t *testing.T) {
	ctx := context.Background()
	_, store, embedder := newTestRegistry(t)

	info, err := store.GetCollectionInfo(ctx, registry.MetadataCollection)
	require.NoError(t, err)
	assert.Equal(t, embedder.Dimension(), info.VectorSize)
	assert.Equal(t, vectorstore.DistanceCosine, info.Distance)

	// Idempotent.
	reg := registry.New(store, embedder, nil)
	assert.NoError(t, reg.EnsureReady(ctx))
}

func TestCollectionMetadata_Validate(t *testing.T) {
	assert.NoError(t, validMeta("docs").Validate())

	tests := []struct {
		name   string
		mutate func(*registry.CollectionMetadata)
	}{
		{"invalid name", func(m *registry.CollectionMetadata) { m.Name = "Bad Name" }},
		{"reserved name", func(m *registry.CollectionMetadata) { m.Name = registry.MetadataCollection }},
		{"zero vector size", func(m *registry.CollectionMetadata) { m.VectorSize = 0 }},
		{"unknown distance", func(m *registry.CollectionMetadata) { m.DistanceMetric = "Hamming" }},
		{"short description", func(m *registry.CollectionMetadata) { m.Description = "too short" }},
		{"missing department", func(m *registry.CollectionMetadata) { m.Department = "  " }},
		{"missing team", func(m *registry.CollectionMetadata) { m.Team = "" }},
		{"missing project", func(m *registry.CollectionMetadata) { m.Project = "" }},
		{"missing source type", func(m *registry.CollectionMetadata) { m.SourceType = "" }},
		{"missing access level", func(m *registry.CollectionMetadata) { m.AccessLevel = "" }},
		{"missing content type", func(m *registry.CollectionMetadata) { m.ContentType = "" }},
		{"no tags", func(m *registry.CollectionMetadata) { m.Tags = nil }},
		{"bad priority", func(m *registry.CollectionMetadata) { m.Priority = "urgent" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := validMeta("docs")
			tt.mutate(&meta)
			assert.Error(t, meta.Validate())
		})
	}
}

func TestRegistry_UpsertAndGetRecord(t *testing.T) {
	ctx := context.Background()
	reg, store, _ := newTestRegistry(t)

	meta := validMeta("docs")
	meta.Metadata = map[string]any{"region": "eu"}
	require.NoError(t, reg.UpsertRecord(ctx, meta))

	got, err := reg.GetRecord(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, "docs", got.Name)
	assert.Equal(t, 4, got.VectorSize)
	assert.Equal(t, vectorstore.DistanceCosine, got.DistanceMetric)
	assert.Equal(t, meta.Description, got.Description)
	assert.Equal(t, []string{"docs"}, got.Tags)
	assert.Equal(t, registry.PriorityMedium, got.Priority)
	assert.Equal(t, "eu", got.Metadata["region"])
	assert.True(t, got.CreatedDate.Equal(meta.CreatedDate))
	assert.True(t, got.IsActive)

	// Records are keyed by collection name: upserting again overwrites.
	meta.Description = "governed collection for docs, revised"
	require.NoError(t, reg.UpsertRecord(ctx, meta))

	info, err := store.GetCollectionInfo(ctx, registry.MetadataCollection)
	require.NoError(t, err)
	assert.Equal(t, 1, info.PointCount)

	got, err = reg.GetRecord(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, meta.Description, got.Description)
}

func TestRegistry_UpsertRecord_Invalid(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	meta := validMeta("docs")
	meta.Priority = "urgent"
	err := reg.UpsertRecord(context.Background(), meta)
	assert.ErrorIs(t, err, registry.ErrInvalidMetadata)

	meta = validMeta(registry.MetadataCollection)
	err = reg.UpsertRecord(context.Background(), meta)
	assert.ErrorIs(t, err, registry.ErrReservedCollection)
}

func TestRegistry_RemoveRecord(t *testing.T) {
	ctx := context.Background()
	reg, _, _ := newTestRegistry(t)

	require.NoError(t, reg.UpsertRecord(ctx, validMeta("docs")))
	require.NoError(t, reg.RemoveRecord(ctx, "docs"))

	_, err := reg.GetRecord(ctx, "docs")
	assert.ErrorIs(t, err, vectorstore.ErrPointNotFound)

	// Removing an absent record is not an error.
	assert.NoError(t, reg.RemoveRecord(ctx, "docs"))
}

func TestRegistry_Discover_Keyword(t *testing.T) {
	ctx := context.Background()
	reg, _, _ := newTestRegistry(t)

	low := validMeta("low_old")
	low.Priority = registry.PriorityLow
	low.CreatedDate = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	highOld := validMeta("high_old")
	highOld.Priority = registry.PriorityHigh
	highOld.CreatedDate = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	highNew := validMeta("high_new")
	highNew.Priority = registry.PriorityHigh
	highNew.CreatedDate = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	medium := validMeta("medium_sales")
	medium.Priority = registry.PriorityMedium
	medium.Department = "sales"

	for _, meta := range []registry.CollectionMetadata{low, highOld, highNew, medium} {
		require.NoError(t, reg.UpsertRecord(ctx, meta))
	}

	// No filter: governance ordering over everything.
	results, err := reg.Discover(ctx, "", nil, 10)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, "high_new", results[0].Name)
	assert.Equal(t, "high_old", results[1].Name)
	assert.Equal(t, "medium_sales", results[2].Name)
	assert.Equal(t, "low_old", results[3].Name)
	assert.Zero(t, results[0].Score)

	// Field filter narrows the set, ordering preserved.
	results, err = reg.Discover(ctx, "", map[string]any{"department": "engineering"}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "high_new", results[0].Name)

	// Limit truncates after ordering.
	results, err = reg.Discover(ctx, "", nil, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "high_new", results[0].Name)
	assert.Equal(t, "high_old", results[1].Name)
}

func TestRegistry_Discover_KeywordTagFilter(t *testing.T) {
	ctx := context.Background()
	reg, _, _ := newTestRegistry(t)

	tagged := validMeta("tagged")
	tagged.Tags = []string{"golang", "search"}
	other := validMeta("other")
	other.Tags = []string{"python"}

	require.NoError(t, reg.UpsertRecord(ctx, tagged))
	require.NoError(t, reg.UpsertRecord(ctx, other))

	// A single requested tag matches records carrying it among others.
	results, err := reg.Discover(ctx, "", map[string]any{"tags": "search"}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "tagged", results[0].Name)
}

func TestRegistry_Discover_Semantic(t *testing.T) {
	ctx := context.Background()
	reg, _, embedder := newTestRegistry(t)

	near := validMeta("near")
	near.Description = "recipes and cooking techniques"
	far := validMeta("far")
	far.Description = "kernel scheduling internals"

	embedder.vectors[near.Description] = []float32{1, 0, 0, 0}
	embedder.vectors[far.Description] = []float32{0, 1, 0, 0}
	embedder.vectors["how do I cook pasta"] = []float32{0.95, 0.05, 0, 0}

	require.NoError(t, reg.UpsertRecord(ctx, near))
	require.NoError(t, reg.UpsertRecord(ctx, far))

	results, err := reg.Discover(ctx, "how do I cook pasta", nil, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "near", results[0].Name)
	assert.Equal(t, "far", results[1].Name)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestRegistry_Discover_HybridPostFilter(t *testing.T) {
	ctx := context.Background()
	reg, _, embedder := newTestRegistry(t)

	// The semantically closest record fails the keyword filter and must be
	// dropped, not demoted: the filtered runner-up wins.
	closest := validMeta("closest_restricted")
	closest.Description = "team knowledge base alpha"
	closest.AccessLevel = "restricted"

	runnerUp := validMeta("runner_up_internal")
	runnerUp.Description = "team knowledge base beta"
	runnerUp.AccessLevel = "internal"

	embedder.vectors[closest.Description] = []float32{1, 0, 0, 0}
	embedder.vectors[runnerUp.Description] = []float32{0.9, 0.1, 0, 0}
	embedder.vectors["knowledge base"] = []float32{1, 0, 0, 0}

	require.NoError(t, reg.UpsertRecord(ctx, closest))
	require.NoError(t, reg.UpsertRecord(ctx, runnerUp))

	results, err := reg.Discover(ctx, "knowledge base", map[string]any{"access_level": "internal"}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "runner_up_internal", results[0].Name)
}

func TestRegistry_Discover_HybridKeepsSemanticOrder(t *testing.T) {
	ctx := context.Background()
	reg, _, embedder := newTestRegistry(t)

	// Both pass the filter; hybrid order stays semantic even when the
	// governance ordering would disagree.
	first := validMeta("semantic_first")
	first.Description = "payments ledger service docs"
	first.Priority = registry.PriorityLow

	second := validMeta("semantic_second")
	second.Description = "payments reconciliation notes"
	second.Priority = registry.PriorityHigh

	embedder.vectors[first.Description] = []float32{1, 0, 0, 0}
	embedder.vectors[second.Description] = []float32{0.8, 0.2, 0, 0}
	embedder.vectors["payments ledger"] = []float32{1, 0, 0, 0}

	require.NoError(t, reg.UpsertRecord(ctx, first))
	require.NoError(t, reg.UpsertRecord(ctx, second))

	results, err := reg.Discover(ctx, "payments ledger", map[string]any{"department": "engineering"}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "semantic_first", results[0].Name)
	assert.Equal(t, "semantic_second", results[1].Name)
}

func TestRegistry_ListRecords(t *testing.T) {
	ctx := context.Background()
	reg, _, _ := newTestRegistry(t)

	results, err := reg.ListRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, results)

	high := validMeta("high")
	high.Priority = registry.PriorityHigh
	low := validMeta("low")
	low.Priority = registry.PriorityLow

	require.NoError(t, reg.UpsertRecord(ctx, low))
	require.NoError(t, reg.UpsertRecord(ctx, high))

	results, err = reg.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "high", results[0].Name)
	assert.Equal(t, "low", results[1].Name)
}
