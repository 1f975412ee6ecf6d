// Package memory provides in-memory implementations of the repository
// interfaces, used by tests and local development runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wagonworks/wagonerp/internal/domain"
	"github.com/wagonworks/wagonerp/internal/repository"
)

// BOMRegistry is an in-memory wagon-type config store.
type BOMRegistry struct {
	mu      sync.RWMutex
	configs map[string]domain.WagonTypeConfig
}

// NewBOMRegistry creates an empty in-memory registry.
func NewBOMRegistry() *BOMRegistry {
	return &BOMRegistry{configs: make(map[string]domain.WagonTypeConfig)}
}

var _ repository.BOMRegistry = (*BOMRegistry)(nil)

func (r *BOMRegistry) Upsert(ctx context.Context, cfg *domain.WagonTypeConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *cfg
	stored.Parts = append([]domain.PartDefinition(nil), cfg.Parts...)
	stored.Stages = cloneStages(cfg.Stages)

	now := time.Now()
	if prev, ok := r.configs[cfg.WagonType]; ok {
		stored.CreatedAt = prev.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	r.configs[cfg.WagonType] = stored
	return nil
}

func (r *BOMRegistry) Get(ctx context.Context, wagonType string) (*domain.WagonTypeConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.configs[wagonType]
	if !ok {
		return nil, fmt.Errorf("wagon type %q: %w", wagonType, domain.ErrNotFound)
	}
	out := cfg
	out.Parts = append([]domain.PartDefinition(nil), cfg.Parts...)
	out.Stages = cloneStages(cfg.Stages)
	return &out, nil
}

func (r *BOMRegistry) List(ctx context.Context) ([]domain.WagonTypeConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	configs := make([]domain.WagonTypeConfig, 0, len(r.configs))
	for _, cfg := range r.configs {
		configs = append(configs, cfg)
	}
	sort.Slice(configs, func(i, j int) bool {
		return configs[i].WagonType < configs[j].WagonType
	})
	return configs, nil
}

func (r *BOMRegistry) Delete(ctx context.Context, wagonType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.configs[wagonType]; !ok {
		return fmt.Errorf("wagon type %q: %w", wagonType, domain.ErrNotFound)
	}
	delete(r.configs, wagonType)
	return nil
}

func cloneStages(stages []domain.StageDefinition) []domain.StageDefinition {
	out := make([]domain.StageDefinition, len(stages))
	for i, stage := range stages {
		out[i] = stage
		out[i].PartUsage = append([]domain.StageUsage(nil), stage.PartUsage...)
	}
	return out
}
