// Package registry maintains the governance registry: a reserved system
// collection holding one discoverable record per managed collection.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gaffar-dulkadir/vectord/internal/vectorstore"
)

// MetadataCollection is the reserved registry collection name. It never
// appears in collection listings and cannot be created, deleted, or written
// to through the public collection and point APIs.
const MetadataCollection = "collection_metadata"

var (
	// ErrReservedCollection is returned when a caller targets the reserved
	// registry collection through a public API.
	ErrReservedCollection = errors.New("collection name is reserved")

	// ErrInvalidMetadata indicates governance metadata validation failure.
	ErrInvalidMetadata = errors.New("invalid collection metadata")
)

// IsReserved reports whether a collection name is reserved for the registry.
func IsReserved(name string) bool {
	return name == MetadataCollection
}

// Priority orders governance records in keyword discovery.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// rank maps priorities onto a sortable scale, higher first.
func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// CollectionMetadata is the governance record for one managed collection.
type CollectionMetadata struct {
	Name           string                `json:"collection_name"`
	VectorSize     int                   `json:"vector_size"`
	DistanceMetric vectorstore.Distance  `json:"distance_metric"`
	Description    string                `json:"description"`
	Department     string                `json:"department"`
	Team           string                `json:"team"`
	Project        string                `json:"project"`
	SourceType     string                `json:"source_type"`
	AccessLevel    string                `json:"access_level"`
	ContentType    string                `json:"content_type"`
	Tags           []string              `json:"tags"`
	Priority       Priority              `json:"priority"`
	Metadata       map[string]any        `json:"metadata,omitempty"`
	CreatedDate    time.Time             `json:"created_date"`
	IsActive       bool                  `json:"is_active"`
}

// Validate validates the governance metadata.
func (m CollectionMetadata) Validate() error {
	if err := vectorstore.ValidateCollectionName(m.Name); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	if IsReserved(m.Name) {
		return fmt.Errorf("%w: %s", ErrReservedCollection, m.Name)
	}
	if m.VectorSize < 1 || m.VectorSize > vectorstore.MaxVectorSize {
		return fmt.Errorf("%w: vector size must be in 1..%d, got %d",
			ErrInvalidMetadata, vectorstore.MaxVectorSize, m.VectorSize)
	}
	if _, err := vectorstore.ParseDistance(string(m.DistanceMetric)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	if len(strings.TrimSpace(m.Description)) < 10 {
		return fmt.Errorf("%w: description must be at least 10 characters", ErrInvalidMetadata)
	}
	for field, value := range map[string]string{
		"department":   m.Department,
		"team":         m.Team,
		"project":      m.Project,
		"source_type":  m.SourceType,
		"access_level": m.AccessLevel,
		"content_type": m.ContentType,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidMetadata, field)
		}
	}
	if len(m.Tags) == 0 {
		return fmt.Errorf("%w: at least one tag is required", ErrInvalidMetadata)
	}
	switch m.Priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
	default:
		return fmt.Errorf("%w: priority must be high, medium or low, got %q", ErrInvalidMetadata, m.Priority)
	}
	return nil
}

// payload builds the keyword-filterable registry payload.
func (m CollectionMetadata) payload() map[string]any {
	return map[string]any{
		"collection_name": m.Name,
		"vector_size":     m.VectorSize,
		"distance_metric": string(m.DistanceMetric),
		"description":     m.Description,
		"department":      m.Department,
		"team":            m.Team,
		"project":         m.Project,
		"source_type":     m.SourceType,
		"access_level":    m.AccessLevel,
		"content_type":    m.ContentType,
		"tags":            m.Tags,
		"priority":        string(m.Priority),
		"metadata":        m.Metadata,
		"created_date":    m.CreatedDate.UTC().Format(time.RFC3339),
		"is_active":       m.IsActive,
	}
}

// embeddingText builds the text embedded for semantic discovery:
// the description followed by the flattened optional metadata.
func (m CollectionMetadata) embeddingText() string {
	var b strings.Builder
	b.WriteString(m.Description)

	if len(m.Metadata) > 0 {
		keys := make([]string, 0, len(m.Metadata))
		for k := range m.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "\n%s: %v", k, m.Metadata[k])
		}
	}
	return b.String()
}

// metadataFromPayload reconstructs governance metadata from a registry point.
func metadataFromPayload(payload map[string]any) CollectionMetadata {
	meta := CollectionMetadata{
		Name:           asString(payload["collection_name"]),
		VectorSize:     asInt(payload["vector_size"]),
		DistanceMetric: vectorstore.Distance(asString(payload["distance_metric"])),
		Description:    asString(payload["description"]),
		Department:     asString(payload["department"]),
		Team:           asString(payload["team"]),
		Project:        asString(payload["project"]),
		SourceType:     asString(payload["source_type"]),
		AccessLevel:    asString(payload["access_level"]),
		ContentType:    asString(payload["content_type"]),
		Priority:       Priority(asString(payload["priority"])),
	}
	switch tags := payload["tags"].(type) {
	case []string:
		meta.Tags = tags
	case []any:
		for _, t := range tags {
			if s, ok := t.(string); ok {
				meta.Tags = append(meta.Tags, s)
			}
		}
	}
	if nested, ok := payload["metadata"].(map[string]any); ok {
		meta.Metadata = nested
	}
	if created, err := time.Parse(time.RFC3339, asString(payload["created_date"])); err == nil {
		meta.CreatedDate = created
	}
	if active, ok := payload["is_active"].(bool); ok {
		meta.IsActive = active
	}
	return meta
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
