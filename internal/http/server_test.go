package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gaffar-dulkadir/vectord/internal/collections"
	"github.com/gaffar-dulkadir/vectord/internal/embeddings"
	"github.com/gaffar-dulkadir/vectord/internal/material"
	"github.com/gaffar-dulkadir/vectord/internal/registry"
	"github.com/gaffar-dulkadir/vectord/internal/vectorstore"

	vectordhttp "github.com/gaffar-dulkadir/vectord/internal/http"
)

const testVectorSize = 4

// hashEmbedder returns deterministic vectors for api tests.
type hashEmbedder struct{}

func (hashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	hash := 0
	for _, c := range text {
		hash = (hash*31 + int(c)) % 1000
	}
	v := make([]float32, testVectorSize)
	for i := range v {
		v[i] = float32((hash+i)%100) / 100.0
	}
	return v, nil
}

func (e hashEmbedder) EmbedBatch(ctx context.Context, texts []string) []embeddings.Result {
	results := make([]embeddings.Result, len(texts))
	for i, text := range texts {
		vector, err := e.Embed(ctx, text)
		results[i] = embeddings.Result{Vector: vector, Err: err}
	}
	return results
}

func (hashEmbedder) Dimension() int { return testVectorSize }

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	store := vectorstore.NewMemoryStore()
	embedder := hashEmbedder{}
	reg := registry.New(store, embedder, nil)
	require.NoError(t, reg.EnsureReady(context.Background()))

	manager := collections.NewManager(store, reg, zap.NewNop())
	pipeline := material.NewPipeline(store, embedder, zap.NewNop())

	srv, err := vectordhttp.NewServer(store, manager, reg, pipeline, zap.NewNop(), vectordhttp.Config{
		Port:    8080,
		Version: "test",
	})
	require.NoError(t, err)
	return srv.Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func createCollectionBody(name string) map[string]any {
	return map[string]any{
		"name":            name,
		"vector_size":     testVectorSize,
		"distance_metric": "Cosine",
		"description":     "governed collection for " + name,
		"department":      "engineering",
		"team":            "search",
		"project":         "atlas",
		"source_type":     "crawler",
		"access_level":    "internal",
		"content_type":    "text",
		"tags":            []string{"docs"},
		"priority":        "medium",
	}
}

func TestServer_Health(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[vectordhttp.HealthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "vectord", resp.Service)
}

func TestServer_Metrics(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_CollectionLifecycle(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/collections", createCollectionBody("docs"))
	require.Equal(t, http.StatusCreated, rec.Code)

	// Duplicate creation conflicts.
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/collections", createCollectionBody("docs"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	errResp := decode[vectordhttp.ErrorResponse](t, rec)
	assert.Equal(t, "already_exists", errResp.Error)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/collections", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[vectordhttp.ListCollectionsResponse](t, rec)
	assert.Equal(t, []string{"docs"}, list.Collections)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/collections/docs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	details := decode[collections.Details](t, rec)
	assert.Equal(t, "docs", details.Name)
	assert.Equal(t, testVectorSize, details.VectorSize)
	require.NotNil(t, details.Metadata)
	assert.Equal(t, "engineering", details.Metadata.Department)

	update := map[string]any{
		"description":  "governed collection for docs, revised",
		"department":   "engineering",
		"team":         "search",
		"project":      "atlas",
		"source_type":  "crawler",
		"access_level": "internal",
		"content_type": "text",
		"tags":         []string{"docs"},
		"priority":     "high",
	}
	rec = doJSON(t, handler, http.MethodPut, "/api/v1/collections/docs", update)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/collections/docs", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/collections/docs", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_CreateCollection_Validation(t *testing.T) {
	handler := newTestServer(t)

	body := createCollectionBody("docs")
	body["description"] = "short"
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/collections", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decode[vectordhttp.ErrorResponse](t, rec)
	assert.Equal(t, "validation_error", errResp.Error)
}

func TestServer_ReservedCollectionGuarded(t *testing.T) {
	handler := newTestServer(t)
	reserved := registry.MetadataCollection

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/collections", createCollectionBody(reserved))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/collections/"+reserved, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPut, "/api/v1/collections/"+reserved+"/points", map[string]any{
		"vector": []float32{1, 0, 0, 0},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/collections/"+reserved+"/points/search", map[string]any{
		"vector": []float32{1, 0, 0, 0},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/collections/"+reserved+"/materials", map[string]any{
		"content": "sneaky write",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The reserved collection never shows up in listings.
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/collections", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[vectordhttp.ListCollectionsResponse](t, rec)
	assert.NotContains(t, list.Collections, reserved)
}

func TestServer_PointLifecycle(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/collections", createCollectionBody("docs"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, handler, http.MethodPut, "/api/v1/collections/docs/points", map[string]any{
		"id":      "p1",
		"vector":  []float32{1, 0, 0, 0},
		"payload": map[string]any{"kind": "doc"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	upserted := decode[vectordhttp.UpsertPointResponse](t, rec)
	assert.Equal(t, "p1", upserted.ID)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/collections/docs/points/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	point := decode[vectorstore.Point](t, rec)
	assert.Equal(t, "p1", point.ID)
	assert.Equal(t, "doc", point.Payload["kind"])

	rec = doJSON(t, handler, http.MethodPatch, "/api/v1/collections/docs/points/p1", map[string]any{
		"payload": map[string]any{"kind": "note"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	point = decode[vectorstore.Point](t, rec)
	assert.Equal(t, "note", point.Payload["kind"])
	assert.Equal(t, []float32{1, 0, 0, 0}, point.Vector)

	rec = doJSON(t, handler, http.MethodDelete, "/api/v1/collections/docs/points/p1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/collections/docs/points/p1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_UpsertPoint_Errors(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/collections", createCollectionBody("docs"))
	require.Equal(t, http.StatusCreated, rec.Code)

	// Missing vector.
	rec = doJSON(t, handler, http.MethodPut, "/api/v1/collections/docs/points", map[string]any{"id": "p1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Wrong dimensionality.
	rec = doJSON(t, handler, http.MethodPut, "/api/v1/collections/docs/points", map[string]any{
		"id":     "p1",
		"vector": []float32{1, 0},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing collection.
	rec = doJSON(t, handler, http.MethodPut, "/api/v1/collections/missing/points", map[string]any{
		"id":     "p1",
		"vector": []float32{1, 0, 0, 0},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_SearchAndScroll(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/collections", createCollectionBody("docs"))
	require.Equal(t, http.StatusCreated, rec.Code)

	vectors := map[string][]float32{
		"a": {1, 0, 0, 0},
		"b": {0.9, 0.1, 0, 0},
		"c": {0, 1, 0, 0},
	}
	for id, vec := range vectors {
		rec = doJSON(t, handler, http.MethodPut, "/api/v1/collections/docs/points", map[string]any{
			"id":      id,
			"vector":  vec,
			"payload": map[string]any{"group": id},
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/collections/docs/points/search", map[string]any{
		"vector": []float32{1, 0, 0, 0},
		"limit":  2,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	search := decode[vectordhttp.SearchResponse](t, rec)
	require.Len(t, search.Hits, 2)
	assert.Equal(t, "a", search.Hits[0].ID)
	assert.Equal(t, "b", search.Hits[1].ID)

	// Filtered search.
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/collections/docs/points/search", map[string]any{
		"vector": []float32{1, 0, 0, 0},
		"match":  map[string]any{"group": "c"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	search = decode[vectordhttp.SearchResponse](t, rec)
	require.Len(t, search.Hits, 1)
	assert.Equal(t, "c", search.Hits[0].ID)

	// Scroll through all points.
	var scrolled []string
	cursor := ""
	for {
		rec = doJSON(t, handler, http.MethodPost, "/api/v1/collections/docs/points/scroll", map[string]any{
			"cursor": cursor,
			"limit":  2,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		page := decode[vectorstore.ScrollPage](t, rec)
		for _, p := range page.Points {
			scrolled = append(scrolled, p.ID)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	assert.Len(t, scrolled, 3)
}

func TestServer_IndexMaterial(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/collections", createCollectionBody("docs"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/collections/docs/materials", map[string]any{
		"content":       "a short document about indexing",
		"title":         "Indexing",
		"source":        "wiki",
		"material_type": "document",
		"deterministic": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	result := decode[material.IndexResult](t, rec)
	assert.NotEmpty(t, result.PointID)
	assert.Equal(t, testVectorSize, result.VectorSize)
	assert.Equal(t, "Indexing", result.Payload["title"])

	// Deterministic identity: reindexing the same material overwrites.
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/collections/docs/materials", map[string]any{
		"content":       "a short document about indexing",
		"source":        "wiki",
		"material_type": "document",
		"deterministic": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	again := decode[material.IndexResult](t, rec)
	assert.Equal(t, result.PointID, again.PointID)

	// Empty content is a validation error.
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/collections/docs/materials", map[string]any{
		"content": "   ",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_IndexBatch(t *testing.T) {
	handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/collections", createCollectionBody("docs"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/collections/docs/materials/batch", map[string]any{
		"materials": []map[string]any{
			{"content": "first document"},
			{"content": "  "},
			{"content": "second document"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	batch := decode[vectordhttp.IndexBatchResponse](t, rec)
	require.Len(t, batch.Items, 3)
	assert.Equal(t, 3, batch.TotalProcessed)
	assert.Equal(t, 2, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)
	assert.Equal(t, "ok", batch.Items[0].Status)
	assert.Equal(t, "failed", batch.Items[1].Status)
	assert.NotEmpty(t, batch.Items[1].Error)
	assert.Equal(t, "ok", batch.Items[2].Status)

	// An empty batch is rejected at the boundary.
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/collections/docs/materials/batch", map[string]any{
		"materials": []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Discover(t *testing.T) {
	handler := newTestServer(t)

	for i, priority := range []string{"low", "high"} {
		body := createCollectionBody(fmt.Sprintf("col%d", i))
		body["priority"] = priority
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/collections", body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	// Keyword discovery orders by priority.
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/collections/discover", map[string]any{
		"filter": map[string]any{"department": "engineering"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	discovered := decode[vectordhttp.DiscoverResponse](t, rec)
	require.Equal(t, 2, discovered.Count)
	assert.Equal(t, "col1", discovered.Results[0].Name)
	assert.Equal(t, "col0", discovered.Results[1].Name)

	// Semantic discovery returns scored results.
	rec = doJSON(t, handler, http.MethodPost, "/api/v1/collections/discover", map[string]any{
		"query": "governed collection",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	discovered = decode[vectordhttp.DiscoverResponse](t, rec)
	assert.Equal(t, 2, discovered.Count)
}
