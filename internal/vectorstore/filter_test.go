package vectorstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gaffar-dulkadir/vectord/internal/vectorstore"
)

func TestFilter_Matches(t *testing.T) {
	payload := map[string]any{
		"department":   "engineering",
		"access_level": "internal",
		"priority":     "high",
		"tags":         []string{"golang", "search"},
		"vector_size":  768,
		"is_active":    true,
	}

	tests := []struct {
		name   string
		filter vectorstore.Filter
		want   bool
	}{
		{
			name:   "empty filter matches everything",
			filter: vectorstore.Filter{},
			want:   true,
		},
		{
			name:   "single equality match",
			filter: vectorstore.Filter{Match: map[string]any{"department": "engineering"}},
			want:   true,
		},
		{
			name:   "equality mismatch",
			filter: vectorstore.Filter{Match: map[string]any{"department": "sales"}},
			want:   false,
		},
		{
			name:   "missing key",
			filter: vectorstore.Filter{Match: map[string]any{"region": "eu"}},
			want:   false,
		},
		{
			name: "all conditions must hold",
			filter: vectorstore.Filter{Match: map[string]any{
				"department":   "engineering",
				"access_level": "restricted",
			}},
			want: false,
		},
		{
			name:   "numeric match across json float64",
			filter: vectorstore.Filter{Match: map[string]any{"vector_size": float64(768)}},
			want:   true,
		},
		{
			name:   "bool match",
			filter: vectorstore.Filter{Match: map[string]any{"is_active": true}},
			want:   true,
		},
		{
			name:   "match any on string array payload",
			filter: vectorstore.Filter{MatchAny: map[string][]string{"tags": {"python", "golang"}}},
			want:   true,
		},
		{
			name:   "match any no overlap",
			filter: vectorstore.Filter{MatchAny: map[string][]string{"tags": {"python", "rust"}}},
			want:   false,
		},
		{
			name:   "match any on scalar payload",
			filter: vectorstore.Filter{MatchAny: map[string][]string{"priority": {"high", "medium"}}},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(payload))
		})
	}
}

func TestFilter_Matches_AnyTypedArray(t *testing.T) {
	// Payloads decoded from JSON carry []any, not []string.
	payload := map[string]any{"tags": []any{"golang", "search"}}

	f := vectorstore.Filter{MatchAny: map[string][]string{"tags": {"search"}}}
	assert.True(t, f.Matches(payload))

	f = vectorstore.Filter{MatchAny: map[string][]string{"tags": {"rust"}}}
	assert.False(t, f.Matches(payload))
}

func TestMergeFilters(t *testing.T) {
	base := map[string]any{"a": 1, "b": 2}
	override := map[string]any{"b": 3, "c": 4}

	merged := vectorstore.MergeFilters(base, override)
	assert.Equal(t, map[string]any{"a": 1, "b": 3, "c": 4}, merged)

	assert.Nil(t, vectorstore.MergeFilters(nil, nil))
	assert.Equal(t, base, vectorstore.MergeFilters(base, nil))
	assert.Equal(t, override, vectorstore.MergeFilters(nil, override))
}

func TestValidateCollectionName(t *testing.T) {
	valid := []string{"docs", "team_docs", "a", "col-1", "collection_metadata"}
	for _, name := range valid {
		assert.NoError(t, vectorstore.ValidateCollectionName(name), name)
	}

	invalid := []string{"", "Docs", "has space", "col.1", "col/1",
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}
	for _, name := range invalid {
		assert.ErrorIs(t, vectorstore.ValidateCollectionName(name), vectorstore.ErrInvalidCollectionName, name)
	}
}

func TestParseDistance(t *testing.T) {
	d, err := vectorstore.ParseDistance("")
	assert.NoError(t, err)
	assert.Equal(t, vectorstore.DistanceCosine, d)

	d, err = vectorstore.ParseDistance("Euclidean")
	assert.NoError(t, err)
	assert.Equal(t, vectorstore.DistanceEuclidean, d)

	_, err = vectorstore.ParseDistance("Manhattan")
	assert.ErrorIs(t, err, vectorstore.ErrInvalidConfig)
}
