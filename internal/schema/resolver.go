// Package schema resolves and memoizes dataset schemas and column profiles.
// The caches are explicit objects threaded through callers — one instance
// per session, never process-wide singletons.
package schema

import (
	"context"
	"sync"

	"duck-agent/internal/domain"
)

// Describer reflects a dataset's projection schema. The DuckDB engine
// satisfies this with DESCRIBE over a zero-row read.
type Describer interface {
	Describe(ctx context.Context, datasetPath string) ([]domain.ColumnInfo, error)
}

// Resolver memoizes one SchemaSnapshot per dataset identity. Snapshots are
// immutable; a cache hit performs no I/O. Concurrent misses on the same
// key may race into duplicate introspection calls — the first insert wins
// and the duplicate call is wasted, never corrupting.
type Resolver struct {
	describer Describer

	mu        sync.RWMutex
	snapshots map[string]*domain.SchemaSnapshot
}

// NewResolver creates a Resolver backed by the given describer.
func NewResolver(d Describer) *Resolver {
	return &Resolver{describer: d, snapshots: make(map[string]*domain.SchemaSnapshot)}
}

// Resolve returns the schema snapshot for a dataset, introspecting on the
// first call and serving from cache afterwards. Introspection failures
// surface as DatasetUnreadableError and are not retried.
func (r *Resolver) Resolve(ctx context.Context, datasetPath string) (*domain.SchemaSnapshot, error) {
	r.mu.RLock()
	snap, ok := r.snapshots[datasetPath]
	r.mu.RUnlock()
	if ok {
		return snap, nil
	}

	columns, err := r.describer.Describe(ctx, datasetPath)
	if err != nil {
		return nil, domain.ErrDatasetUnreadable(datasetPath, err)
	}
	snap = domain.NewSchemaSnapshot(columns)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.snapshots[datasetPath]; ok {
		return existing, nil
	}
	r.snapshots[datasetPath] = snap
	return snap, nil
}

// Cached returns the snapshot for a dataset without triggering I/O, or nil
// when the dataset has not been resolved yet.
func (r *Resolver) Cached(datasetPath string) *domain.SchemaSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshots[datasetPath]
}
