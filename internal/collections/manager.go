// Package collections manages collection lifecycle and keeps the governance
// registry in sync with it.
package collections

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gaffar-dulkadir/vectord/internal/registry"
	"github.com/gaffar-dulkadir/vectord/internal/vectorstore"
)

// Details combines live collection info with its governance record.
type Details struct {
	vectorstore.CollectionInfo

	// Metadata is the governance record, nil when the registry has none.
	Metadata *registry.CollectionMetadata `json:"metadata,omitempty"`
}

// Manager creates, updates and deletes collections, mirroring every change
// into the governance registry.
type Manager struct {
	store    vectorstore.Store
	registry *registry.Registry
	logger   *zap.Logger
}

// NewManager creates a collection manager.
func NewManager(store vectorstore.Store, reg *registry.Registry, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:    store,
		registry: reg,
		logger:   logger,
	}
}

// GuardWritable rejects operations that target the reserved registry
// collection through the public APIs. Checked at every collection-mutating
// boundary call.
func GuardWritable(name string) error {
	if registry.IsReserved(name) {
		return fmt.Errorf("%w: %s", registry.ErrReservedCollection, name)
	}
	return nil
}

// Create creates a collection and writes its governance record.
func (m *Manager) Create(ctx context.Context, meta registry.CollectionMetadata) error {
	if meta.DistanceMetric == "" {
		meta.DistanceMetric = vectorstore.DistanceCosine
	}
	if meta.CreatedDate.IsZero() {
		meta.CreatedDate = time.Now().UTC()
	}
	if err := meta.Validate(); err != nil {
		return err
	}

	err := m.store.CreateCollection(ctx, vectorstore.CollectionSpec{
		Name:       meta.Name,
		VectorSize: meta.VectorSize,
		Distance:   meta.DistanceMetric,
	})
	if err != nil {
		return err
	}

	if err := m.registry.UpsertRecord(ctx, meta); err != nil {
		return fmt.Errorf("collection %s created, governance record failed: %w", meta.Name, err)
	}

	m.logger.Info("collection created",
		zap.String("collection", meta.Name),
		zap.Int("vector_size", meta.VectorSize),
		zap.String("distance", string(meta.DistanceMetric)),
	)
	return nil
}

// Update rewrites a collection's governance record. The collection itself is
// immutable (vector size and distance are fixed at creation); updates touch
// governance metadata only, last writer wins.
func (m *Manager) Update(ctx context.Context, meta registry.CollectionMetadata) error {
	if err := GuardWritable(meta.Name); err != nil {
		return err
	}

	info, err := m.store.GetCollectionInfo(ctx, meta.Name)
	if err != nil {
		return err
	}
	meta.VectorSize = info.VectorSize
	meta.DistanceMetric = info.Distance

	if meta.CreatedDate.IsZero() {
		if existing, err := m.registry.GetRecord(ctx, meta.Name); err == nil {
			meta.CreatedDate = existing.CreatedDate
		} else {
			meta.CreatedDate = time.Now().UTC()
		}
	}
	if err := meta.Validate(); err != nil {
		return err
	}

	if err := m.registry.UpsertRecord(ctx, meta); err != nil {
		return err
	}

	m.logger.Info("collection updated", zap.String("collection", meta.Name))
	return nil
}

// Delete removes a collection and its points, then removes the governance
// record. A registry removal failure is logged, not returned: the registry
// is eventually-consistent metadata, not the source of truth for existence.
func (m *Manager) Delete(ctx context.Context, name string) error {
	if err := GuardWritable(name); err != nil {
		return err
	}

	if err := m.store.DeleteCollection(ctx, name); err != nil {
		return err
	}

	if err := m.registry.RemoveRecord(ctx, name); err != nil {
		m.logger.Warn("failed to remove governance record",
			zap.String("collection", name),
			zap.Error(err),
		)
	}

	m.logger.Info("collection deleted", zap.String("collection", name))
	return nil
}

// List returns all collection names, excluding the reserved registry
// collection.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	names, err := m.store.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	visible := make([]string, 0, len(names))
	for _, name := range names {
		if registry.IsReserved(name) {
			continue
		}
		visible = append(visible, name)
	}
	return visible, nil
}

// Get returns live collection info merged with the governance record.
func (m *Manager) Get(ctx context.Context, name string) (*Details, error) {
	if err := GuardWritable(name); err != nil {
		return nil, err
	}

	info, err := m.store.GetCollectionInfo(ctx, name)
	if err != nil {
		return nil, err
	}

	details := &Details{CollectionInfo: *info}
	meta, err := m.registry.GetRecord(ctx, name)
	if err == nil {
		details.Metadata = meta
	} else if !errors.Is(err, vectorstore.ErrPointNotFound) {
		m.logger.Warn("failed to read governance record",
			zap.String("collection", name),
			zap.Error(err),
		)
	}
	return details, nil
}
