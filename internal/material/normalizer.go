// Package material turns raw indexing requests into embedded points.
//
// A material is arbitrary text content submitted for indexing. The normalizer
// builds a canonical content+payload record with a stable identity; the
// pipeline embeds the record and persists it to the vector store.
package material

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrValidation indicates malformed or empty input. Never retried and
	// surfaced to callers as a client error.
	ErrValidation = errors.New("validation error")
)

// Reserved payload keys written by the normalizer. Caller metadata never
// overwrites these.
const (
	payloadContent       = "content"
	payloadContentLength = "content_length"
	payloadTitle         = "title"
	payloadSource        = "source"
	payloadMaterialType  = "material_type"
	payloadIndexedAt     = "indexed_at"
)

// identityNamespace scopes deterministic material identities.
var identityNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("vectord.material"))

// IndexRequest is a raw material submitted for indexing.
type IndexRequest struct {
	// Content is the material text. Required, non-empty after trimming.
	Content string `json:"content"`

	// Title is an optional display title.
	Title string `json:"title,omitempty"`

	// Source identifies where the material came from.
	Source string `json:"source,omitempty"`

	// MaterialType classifies the material (document, note, ...).
	MaterialType string `json:"material_type,omitempty"`

	// Metadata is merged into the payload underneath the reserved keys.
	Metadata map[string]any `json:"metadata,omitempty"`

	// ID is an explicit point identity. Wins over both identity modes.
	ID string `json:"id,omitempty"`

	// Deterministic derives the identity from (source, material_type,
	// content) so repeated indexing of identical input overwrites instead
	// of duplicating. Off by default: identical text in two logically
	// distinct materials must not silently merge.
	Deterministic bool `json:"deterministic,omitempty"`
}

// Record is the canonical form of a material ready for embedding.
type Record struct {
	// ID is the point identity chosen for this material.
	ID string

	// Content is the trimmed material text submitted for embedding.
	Content string

	// Payload is the enriched point payload.
	Payload map[string]any
}

// Normalizer builds canonical records from raw indexing requests.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// Normalize validates a request and produces its canonical record.
func (n *Normalizer) Normalize(req IndexRequest) (*Record, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content cannot be empty", ErrValidation)
	}

	// Caller metadata first, reserved keys second: system bookkeeping
	// fields must never be clobbered by arbitrary caller input.
	payload := make(map[string]any, len(req.Metadata)+6)
	for k, v := range req.Metadata {
		payload[k] = v
	}
	payload[payloadContent] = content
	payload[payloadContentLength] = len(content)
	payload[payloadTitle] = req.Title
	payload[payloadSource] = req.Source
	payload[payloadMaterialType] = req.MaterialType
	payload[payloadIndexedAt] = n.now().Unix()

	return &Record{
		ID:      n.identity(req, content),
		Content: content,
		Payload: payload,
	}, nil
}

// identity picks the point identity: explicit id, deterministic hash, or a
// fresh random one.
func (n *Normalizer) identity(req IndexRequest, content string) string {
	if req.ID != "" {
		return req.ID
	}
	if req.Deterministic {
		key := strings.Join([]string{req.Source, req.MaterialType, content}, "\x00")
		return uuid.NewSHA1(identityNamespace, []byte(key)).String()
	}
	return uuid.NewString()
}
