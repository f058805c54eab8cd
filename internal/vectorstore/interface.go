// Package vectorstore defines the capability interface for vector storage
// and its Qdrant and in-memory implementations.
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	// ErrCollectionNotFound is returned when a collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrCollectionExists is returned when attempting to create an existing collection.
	ErrCollectionExists = errors.New("collection already exists")

	// ErrPointNotFound is returned when a point does not exist in a collection.
	ErrPointNotFound = errors.New("point not found")

	// ErrDimensionMismatch is returned when a vector's length disagrees with
	// the collection's configured vector size.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidCollectionName indicates collection name validation failure.
	ErrInvalidCollectionName = errors.New("invalid collection name")

	// ErrConnectionFailed indicates gRPC connection issues.
	ErrConnectionFailed = errors.New("failed to connect to vector store")
)

// CollectionInfo contains metadata about a vector collection.
type CollectionInfo struct {
	// Name is the collection name.
	Name string `json:"name"`

	// PointCount is the number of points in the collection.
	PointCount int `json:"point_count"`

	// VectorSize is the dimensionality of vectors in this collection.
	VectorSize int `json:"vector_size"`

	// Distance is the similarity metric configured for the collection.
	Distance Distance `json:"distance"`
}

// Store is the capability interface over the external vector engine.
//
// The interface is transport-agnostic: the production implementation binds to
// Qdrant over gRPC, while MemoryStore implements exact brute-force search for
// unit tests. All operations return ErrCollectionNotFound when the target
// collection is absent and ErrDimensionMismatch when a supplied vector's
// length disagrees with the collection's configured size.
type Store interface {
	// CreateCollection creates a new fixed-dimension collection.
	// Returns ErrCollectionExists if the name is already taken.
	CreateCollection(ctx context.Context, spec CollectionSpec) error

	// DeleteCollection deletes a collection and all its points.
	DeleteCollection(ctx context.Context, name string) error

	// CollectionExists reports whether a collection exists.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// ListCollections returns all collection names.
	ListCollections(ctx context.Context) ([]string, error)

	// GetCollectionInfo returns metadata about a collection.
	GetCollectionInfo(ctx context.Context, name string) (*CollectionInfo, error)

	// UpsertPoint inserts or replaces a point, returning its id.
	// Upserting an existing id overwrites the stored vector and payload.
	UpsertPoint(ctx context.Context, collection string, point Point) (string, error)

	// GetPoint retrieves a point by id. Returns ErrPointNotFound if absent.
	GetPoint(ctx context.Context, collection, id string) (*Point, error)

	// UpdatePoint partially updates a point. A nil vector keeps the stored
	// vector; payload keys are merged over the stored payload.
	UpdatePoint(ctx context.Context, collection, id string, vector []float32, payload map[string]any) (*Point, error)

	// DeletePoint removes a point by id.
	DeletePoint(ctx context.Context, collection, id string) error

	// SearchPoints returns up to params.Limit hits ordered by descending
	// similarity score. Ties are broken by insertion recency, most recently
	// upserted first, so result order is deterministic in tests.
	SearchPoints(ctx context.Context, collection string, vector []float32, params SearchParams) ([]SearchHit, error)

	// ScrollPoints pages through a collection. An empty cursor starts from
	// the beginning; an empty next cursor means the scroll is exhausted.
	ScrollPoints(ctx context.Context, collection, cursor string, limit int) (*ScrollPage, error)

	// Close releases the store connection and resources.
	Close() error
}
