package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/wagonworks/wagonerp/internal/bom"
	"github.com/wagonworks/wagonerp/internal/domain"
	"github.com/wagonworks/wagonerp/internal/repository"
)

// BOMService manages wagon-type configurations.
type BOMService struct {
	registry repository.BOMRegistry
}

func NewBOMService(registry repository.BOMRegistry) *BOMService {
	return &BOMService{registry: registry}
}

// Upsert validates and stores a wagon-type config. Dangling stage
// references and negative quantities are rejected here, before the
// config can ever reach a projection.
func (s *BOMService) Upsert(ctx context.Context, cfg *domain.WagonTypeConfig) error {
	if err := bom.ValidateConfig(cfg); err != nil {
		return err
	}
	if err := s.registry.Upsert(ctx, cfg); err != nil {
		return err
	}
	log.Info().Str("wagon_type", cfg.WagonType).
		Int("parts", len(cfg.Parts)).
		Int("stages", len(cfg.Stages)).
		Msg("wagon type config stored")
	return nil
}

func (s *BOMService) Get(ctx context.Context, wagonType string) (*domain.WagonTypeConfig, error) {
	return s.registry.Get(ctx, wagonType)
}

func (s *BOMService) List(ctx context.Context) ([]domain.WagonTypeConfig, error) {
	return s.registry.List(ctx)
}

// Delete removes a config. Ledger history referencing the wagon type
// stays in place; the registry does not cascade.
func (s *BOMService) Delete(ctx context.Context, wagonType string) error {
	if err := s.registry.Delete(ctx, wagonType); err != nil {
		return err
	}
	log.Info().Str("wagon_type", wagonType).Msg("wagon type config deleted")
	return nil
}
