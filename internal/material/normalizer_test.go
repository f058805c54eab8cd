package material_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaffar-dulkadir/vectord/internal/material"
)

func TestNormalizer_RejectsEmptyContent(t *testing.T) {
	n := material.NewNormalizer()

	for _, content := range []string{"", "   ", "\n\t  \n"} {
		_, err := n.Normalize(material.IndexRequest{Content: content})
		assert.ErrorIs(t, err, material.ErrValidation)
	}
}

func TestNormalizer_Payload(t *testing.T) {
	n := material.NewNormalizer()

	record, err := n.Normalize(material.IndexRequest{
		Content:      "  Machine learning is a subset of artificial intelligence.  ",
		Title:        "ML Intro",
		Source:       "wiki",
		MaterialType: "document",
		Metadata:     map[string]any{"lang": "en"},
	})
	require.NoError(t, err)

	content := "Machine learning is a subset of artificial intelligence."
	assert.Equal(t, content, record.Content)
	assert.Equal(t, content, record.Payload["content"])
	assert.Equal(t, len(content), record.Payload["content_length"])
	assert.Equal(t, "ML Intro", record.Payload["title"])
	assert.Equal(t, "wiki", record.Payload["source"])
	assert.Equal(t, "document", record.Payload["material_type"])
	assert.Equal(t, "en", record.Payload["lang"])

	indexedAt, ok := record.Payload["indexed_at"].(int64)
	require.True(t, ok)
	assert.Positive(t, indexedAt)
}

func TestNormalizer_ReservedKeysWin(t *testing.T) {
	n := material.NewNormalizer()

	record, err := n.Normalize(material.IndexRequest{
		Content: "real content",
		Title:   "real title",
		Source:  "real source",
		Metadata: map[string]any{
			"content":        "spoofed",
			"content_length": 9999,
			"title":          "spoofed",
			"source":         "spoofed",
			"material_type":  "spoofed",
			"indexed_at":     0,
			"custom":         "kept",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "real content", record.Payload["content"])
	assert.Equal(t, len("real content"), record.Payload["content_length"])
	assert.Equal(t, "real title", record.Payload["title"])
	assert.Equal(t, "real source", record.Payload["source"])
	assert.Equal(t, "", record.Payload["material_type"])
	assert.NotEqual(t, 0, record.Payload["indexed_at"])
	assert.Equal(t, "kept", record.Payload["custom"])
}

func TestNormalizer_ExplicitIDWins(t *testing.T) {
	n := material.NewNormalizer()

	record, err := n.Normalize(material.IndexRequest{
		Content:       "some content",
		ID:            "my-id",
		Deterministic: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "my-id", record.ID)
}

func TestNormalizer_DeterministicIdentity(t *testing.T) {
	n := material.NewNormalizer()

	req := material.IndexRequest{
		Content:       "same content",
		Source:        "wiki",
		MaterialType:  "document",
		Deterministic: true,
	}

	first, err := n.Normalize(req)
	require.NoError(t, err)
	second, err := n.Normalize(req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "identical input yields identical identity")

	// Whitespace differences normalize away before hashing.
	padded := req
	padded.Content = "  same content  "
	third, err := n.Normalize(padded)
	require.NoError(t, err)
	assert.Equal(t, first.ID, third.ID)

	// Any component change yields a different identity.
	otherSource := req
	otherSource.Source = "crawler"
	fourth, err := n.Normalize(otherSource)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, fourth.ID)

	otherType := req
	otherType.MaterialType = "note"
	fifth, err := n.Normalize(otherType)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, fifth.ID)
}

func TestNormalizer_RandomIdentityByDefault(t *testing.T) {
	n := material.NewNormalizer()

	req := material.IndexRequest{Content: "same content", Source: "wiki"}

	first, err := n.Normalize(req)
	require.NoError(t, err)
	second, err := n.Normalize(req)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID, "identical input without the deterministic flag never merges")

	_, err = uuid.Parse(first.ID)
	assert.NoError(t, err)
}
