package vectorstore

import (
	"fmt"
	"regexp"
)

// Distance is the similarity metric configured for a collection.
type Distance string

const (
	// DistanceCosine scores by cosine similarity (default).
	DistanceCosine Distance = "Cosine"
	// DistanceEuclidean scores by negated euclidean distance.
	DistanceEuclidean Distance = "Euclidean"
	// DistanceDotProduct scores by dot product.
	DistanceDotProduct Distance = "DotProduct"
)

// ParseDistance parses a distance metric name.
func ParseDistance(s string) (Distance, error) {
	switch Distance(s) {
	case DistanceCosine, DistanceEuclidean, DistanceDotProduct:
		return Distance(s), nil
	case "":
		return DistanceCosine, nil
	default:
		return "", fmt.Errorf("%w: unknown distance metric %q", ErrInvalidConfig, s)
	}
}

// MaxVectorSize is the upper bound on collection dimensionality.
const MaxVectorSize = 65536

// CollectionSpec describes a collection to create.
type CollectionSpec struct {
	// Name is the unique collection name.
	Name string

	// VectorSize is the dimensionality of vectors, 1..MaxVectorSize.
	VectorSize int

	// Distance is the similarity metric. Defaults to Cosine.
	Distance Distance
}

// Validate validates the collection spec.
func (s CollectionSpec) Validate() error {
	if err := ValidateCollectionName(s.Name); err != nil {
		return err
	}
	if s.VectorSize < 1 || s.VectorSize > MaxVectorSize {
		return fmt.Errorf("%w: vector size must be in 1..%d, got %d", ErrInvalidConfig, MaxVectorSize, s.VectorSize)
	}
	if _, err := ParseDistance(string(s.Distance)); err != nil {
		return err
	}
	return nil
}

// Point is one embedded unit of content: a vector plus a payload.
type Point struct {
	// ID is the stable identity of the point.
	ID string `json:"id"`

	// Vector is the embedding, length fixed per collection.
	Vector []float32 `json:"vector"`

	// Payload maps string keys to scalar, array, or nested values.
	Payload map[string]any `json:"payload"`
}

// SearchHit is a point returned from similarity search with its score.
type SearchHit struct {
	Point

	// Score is the similarity score (higher = more similar).
	Score float32 `json:"score"`
}

// Filter expresses exact-match constraints over payload fields.
// All conditions must hold for a point to match.
type Filter struct {
	// Match requires payload[key] == value for each entry.
	Match map[string]any

	// MatchAny requires payload[key] to equal one of the listed values,
	// or, for array payloads, to contain at least one of them.
	MatchAny map[string][]string
}

// IsZero reports whether the filter has no conditions.
func (f *Filter) IsZero() bool {
	return f == nil || (len(f.Match) == 0 && len(f.MatchAny) == 0)
}

// SearchParams bound a similarity search.
type SearchParams struct {
	// Limit caps the number of hits returned. Required, positive.
	Limit int

	// ScoreThreshold drops hits scoring below it when set.
	ScoreThreshold *float32

	// Filter restricts hits to matching payloads when set.
	Filter *Filter
}

// ScrollPage is one page of a collection scroll.
type ScrollPage struct {
	// Points holds the page contents in insertion order.
	Points []Point `json:"points"`

	// NextCursor resumes the scroll. Empty when exhausted.
	NextCursor string `json:"next_cursor,omitempty"`
}

// collectionNamePattern validates collection names.
// Pattern: lowercase letters, numbers, underscores and dashes, 1-64 characters.
var collectionNamePattern = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// ValidateCollectionName validates a collection name against naming rules.
// Rejects uppercase, special characters, path separators and spaces.
func ValidateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name cannot be empty", ErrInvalidCollectionName)
	}
	if !collectionNamePattern.MatchString(name) {
		return fmt.Errorf("%w: collection name must match ^[a-z0-9_-]{1,64}$, got %q", ErrInvalidCollectionName, name)
	}
	return nil
}
