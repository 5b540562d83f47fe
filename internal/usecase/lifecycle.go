package usecase

import (
	"context"
	"fmt"
	"sync"

	"marketminds/internal/domain/models"
	domrepo "marketminds/internal/domain/repository"
	"marketminds/internal/services/forecast"
)

// ArtifactManager owns model artifacts: it promotes newly trained versions
// and serves the current model per symbol. A restored network is cached by
// (symbol, version) so repeated predictions don't re-deserialize weights.
//
// Promotion is write-then-point: the artifact is stored first, the current
// pointer flips second. A failed training therefore never disturbs the
// version predictions are being served from.
type ArtifactManager struct {
	store domrepo.ArtifactStore

	mu     sync.RWMutex
	cached map[string]cachedModel // keyed by symbol
}

type cachedModel struct {
	version string
	model   *forecast.Model
}

func NewArtifactManager(store domrepo.ArtifactStore) *ArtifactManager {
	return &ArtifactManager{store: store, cached: make(map[string]cachedModel)}
}

// Promote stores the artifact and atomically makes it the current version
// for its symbol.
func (m *ArtifactManager) Promote(ctx context.Context, a *models.ModelArtifact) error {
	if err := m.store.Put(ctx, a); err != nil {
		return fmt.Errorf("store artifact %s/%s: %w", a.Symbol, a.Version, err)
	}
	if err := m.store.SetCurrent(ctx, a.Symbol, a.Version); err != nil {
		return fmt.Errorf("promote %s/%s: %w", a.Symbol, a.Version, err)
	}
	m.mu.Lock()
	delete(m.cached, a.Symbol)
	m.mu.Unlock()
	return nil
}

// CurrentModel returns the symbol's current model and its artifact, or
// (nil, nil, nil) when the symbol has never been trained.
func (m *ArtifactManager) CurrentModel(ctx context.Context, symbol string) (*forecast.Model, *models.ModelArtifact, error) {
	a, err := m.store.Current(ctx, symbol)
	if err != nil {
		return nil, nil, fmt.Errorf("load current artifact %s: %w", symbol, err)
	}
	if a == nil {
		return nil, nil, nil
	}

	m.mu.RLock()
	c, ok := m.cached[symbol]
	m.mu.RUnlock()
	if ok && c.version == a.Version {
		return c.model, a, nil
	}

	model, err := forecast.Restore(a.Weights)
	if err != nil {
		return nil, nil, fmt.Errorf("restore model %s/%s: %w", symbol, a.Version, err)
	}
	m.mu.Lock()
	m.cached[symbol] = cachedModel{version: a.Version, model: model}
	m.mu.Unlock()
	return model, a, nil
}

// Artifact returns a stored version without touching the cache. Used for
// audit lookups.
func (m *ArtifactManager) Artifact(ctx context.Context, symbol, version string) (*models.ModelArtifact, error) {
	return m.store.Get(ctx, symbol, version)
}
