package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gaffar-dulkadir/vectord/internal/embeddings"
	"github.com/gaffar-dulkadir/vectord/internal/material"
	"github.com/gaffar-dulkadir/vectord/internal/registry"
	"github.com/gaffar-dulkadir/vectord/internal/vectorstore"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// ErrorResponse is the error envelope returned by every failing endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CreateCollectionRequest is the request body for POST /api/v1/collections.
type CreateCollectionRequest struct {
	Name           string         `json:"name"`
	VectorSize     int            `json:"vector_size"`
	DistanceMetric string         `json:"distance_metric"`
	Description    string         `json:"description"`
	Department     string         `json:"department"`
	Team           string         `json:"team"`
	Project        string         `json:"project"`
	SourceType     string         `json:"source_type"`
	AccessLevel    string         `json:"access_level"`
	ContentType    string         `json:"content_type"`
	Tags           []string       `json:"tags"`
	Priority       string         `json:"priority"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	IsActive       *bool          `json:"is_active,omitempty"`
}

// UpdateCollectionRequest is the request body for PUT /api/v1/collections/:name.
// Vector size and distance metric are fixed at creation and ignored here.
type UpdateCollectionRequest struct {
	Description string         `json:"description"`
	Department  string         `json:"department"`
	Team        string         `json:"team"`
	Project     string         `json:"project"`
	SourceType  string         `json:"source_type"`
	AccessLevel string         `json:"access_level"`
	ContentType string         `json:"content_type"`
	Tags        []string       `json:"tags"`
	Priority    string         `json:"priority"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	IsActive    *bool          `json:"is_active,omitempty"`
}

// DiscoverRequest is the request body for POST /api/v1/collections/discover.
type DiscoverRequest struct {
	Query  string         `json:"query"`
	Filter map[string]any `json:"filter,omitempty"`
	Limit  int            `json:"limit,omitempty"`
}

// DiscoverResponse is the response body for POST /api/v1/collections/discover.
type DiscoverResponse struct {
	Results []registry.Summary `json:"results"`
	Count   int                `json:"count"`
}

// ListCollectionsResponse is the response body for GET /api/v1/collections.
type ListCollectionsResponse struct {
	Collections []string `json:"collections"`
	Count       int      `json:"count"`
}

// UpsertPointRequest is the request body for PUT .../points.
type UpsertPointRequest struct {
	ID      string         `json:"id,omitempty"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload,omitempty"`
}

// UpsertPointResponse is the response body for PUT .../points.
type UpsertPointResponse struct {
	ID string `json:"id"`
}

// UpdatePointRequest is the request body for PATCH .../points/:id.
// Nil vector keeps the stored vector; nil payload keeps the stored payload.
type UpdatePointRequest struct {
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// SearchRequest is the request body for POST .../points/search.
type SearchRequest struct {
	Vector         []float32           `json:"vector"`
	Limit          int                 `json:"limit,omitempty"`
	ScoreThreshold *float32            `json:"score_threshold,omitempty"`
	Match          map[string]any      `json:"match,omitempty"`
	MatchAny       map[string][]string `json:"match_any,omitempty"`
}

// SearchResponse is the response body for POST .../points/search.
type SearchResponse struct {
	Hits  []vectorstore.SearchHit `json:"hits"`
	Count int                     `json:"count"`
}

// ScrollRequest is the request body for POST .../points/scroll.
type ScrollRequest struct {
	Cursor string `json:"cursor,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// IndexMaterialRequest is the request body for POST .../materials.
type IndexMaterialRequest struct {
	Content       string         `json:"content"`
	Title         string         `json:"title,omitempty"`
	Source        string         `json:"source,omitempty"`
	MaterialType  string         `json:"material_type,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	ID            string         `json:"id,omitempty"`
	Deterministic bool           `json:"deterministic,omitempty"`
}

// IndexBatchRequest is the request body for POST .../materials/batch.
type IndexBatchRequest struct {
	Materials []IndexMaterialRequest `json:"materials"`
}

// BatchItemResponse is one positional outcome in IndexBatchResponse.
type BatchItemResponse struct {
	Index   int    `json:"index"`
	Status  string `json:"status"`
	PointID string `json:"point_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// IndexBatchResponse is the response body for POST .../materials/batch.
type IndexBatchResponse struct {
	Items          []BatchItemResponse `json:"items"`
	TotalProcessed int                 `json:"total_processed"`
	Succeeded      int                 `json:"succeeded"`
	Failed         int                 `json:"failed"`
	TookMS         int64               `json:"took_ms"`
}

func (r IndexMaterialRequest) toPipeline() material.IndexRequest {
	return material.IndexRequest{
		Content:       r.Content,
		Title:         r.Title,
		Source:        r.Source,
		MaterialType:  r.MaterialType,
		Metadata:      r.Metadata,
		ID:            r.ID,
		Deterministic: r.Deterministic,
	}
}

func batchResponse(res *material.BatchResult) IndexBatchResponse {
	items := make([]BatchItemResponse, len(res.Items))
	for i, item := range res.Items {
		items[i] = BatchItemResponse{
			Index:   item.Index,
			Status:  string(item.Status),
			PointID: item.PointID,
			Error:   item.Error,
		}
	}
	return IndexBatchResponse{
		Items:          items,
		TotalProcessed: res.TotalProcessed,
		Succeeded:      res.Succeeded,
		Failed:         res.Failed,
		TookMS:         res.Took.Milliseconds(),
	}
}

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, vectorstore.ErrCollectionNotFound),
		errors.Is(err, vectorstore.ErrPointNotFound):
		return http.StatusNotFound
	case errors.Is(err, vectorstore.ErrCollectionExists):
		return http.StatusConflict
	case errors.Is(err, registry.ErrReservedCollection),
		errors.Is(err, registry.ErrInvalidMetadata),
		errors.Is(err, material.ErrValidation),
		errors.Is(err, embeddings.ErrEmptyInput),
		errors.Is(err, vectorstore.ErrInvalidCollectionName),
		errors.Is(err, vectorstore.ErrDimensionMismatch):
		return http.StatusBadRequest
	case errors.Is(err, embeddings.ErrEmbeddingFailed),
		errors.Is(err, embeddings.ErrDimensionMismatch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorCode names the error class carried in the envelope.
func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "already_exists"
	case http.StatusBadGateway:
		return "embedding_error"
	default:
		return "internal_error"
	}
}

func writeError(c echo.Context, err error) error {
	status := errorStatus(err)
	return c.JSON(status, ErrorResponse{
		Error:   errorCode(status),
		Message: err.Error(),
	})
}
