package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wagonworks/wagonerp/internal/bom"
	"github.com/wagonworks/wagonerp/internal/cache"
	"github.com/wagonworks/wagonerp/internal/domain"
	"github.com/wagonworks/wagonerp/internal/metrics"
	"github.com/wagonworks/wagonerp/internal/repository"
)

// ProductionService orchestrates daily-entry submission and the
// derived figures (live inventory, buildable sets, trends). Inventory
// is never stored as a counter; every figure is projected from the
// ledger, so the only state needing serialization is the append path.
type ProductionService struct {
	ledger   repository.LedgerStore
	registry repository.BOMRegistry
	cache    cache.InventoryCache

	// locks serializes validate-then-append per project. Validation
	// must see the latest committed tail, so two concurrent submits
	// for one project are forced through one at a time.
	locks sync.Map // projectID -> *sync.Mutex
}

func NewProductionService(ledger repository.LedgerStore, registry repository.BOMRegistry, cacheImpl cache.InventoryCache) *ProductionService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopInventoryCache()
	}
	return &ProductionService{ledger: ledger, registry: registry, cache: cacheImpl}
}

func (s *ProductionService) projectLock(projectID string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(projectID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// SubmitDailyEntry validates a day's entry against the projected
// balance and commits it. Rejections report every part that would go
// negative and leave the ledger untouched. A first entry for an
// unknown project registers it with the entry's wagon type and an
// empty day-zero balance (the store-receipt path).
func (s *ProductionService) SubmitDailyEntry(ctx context.Context, entry *domain.LedgerEntry, replace bool) (*domain.SubmitResult, error) {
	if err := bom.ValidateEntryQuantities(entry); err != nil {
		metrics.EntriesRejected.WithLabelValues("validation").Inc()
		return nil, err
	}

	lock := s.projectLock(entry.ProjectID)
	lock.Lock()
	defer lock.Unlock()

	base, wagonType, err := s.ledger.BaseSnapshot(ctx, entry.ProjectID)
	newProject := false
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if entry.WagonType == "" {
			return nil, fmt.Errorf("project %q: %w", entry.ProjectID, domain.ErrNotFound)
		}
		// Validate against an empty day-zero balance; the project is
		// registered only once the entry is known to commit, so a
		// rejection leaves no trace of it.
		base, wagonType = domain.InventorySnapshot{}, entry.WagonType
		newProject = true
	case err != nil:
		return nil, err
	}
	if entry.WagonType == "" {
		entry.WagonType = wagonType
	}

	cfg, err := s.registry.Get(ctx, wagonType)
	if err != nil {
		return nil, err
	}

	prior, err := s.ledger.Entries(ctx, entry.ProjectID)
	if err != nil {
		return nil, err
	}
	if replace {
		// Validate the correction against history without the revision
		// it supersedes, or the old day's consumption counts twice.
		prior = withoutDate(prior, entry.Date)
	}

	if err := bom.ValidateCandidate(base, prior, entry, cfg); err != nil {
		var negative *domain.NegativeBalanceError
		if errors.As(err, &negative) {
			metrics.EntriesRejected.WithLabelValues("negative_balance").Inc()
			log.Info().Str("project_id", entry.ProjectID).
				Strs("violations", negative.Parts).
				Msg("daily entry rejected: negative balance")
			return &domain.SubmitResult{Accepted: false, Violations: negative.Parts}, nil
		}
		metrics.EntriesRejected.WithLabelValues("validation").Inc()
		return nil, err
	}

	if newProject {
		if err := s.ledger.SetBaseSnapshot(ctx, entry.ProjectID, wagonType, domain.InventorySnapshot{}); err != nil {
			return nil, err
		}
	}

	committed, err := s.ledger.Append(ctx, entry, replace)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			metrics.EntriesRejected.WithLabelValues("duplicate").Inc()
		}
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, entry.ProjectID); err != nil {
		log.Warn().Err(err).Str("project_id", entry.ProjectID).Msg("cache invalidation failed")
	}
	metrics.EntriesCommitted.Inc()
	log.Info().Str("project_id", committed.ProjectID).
		Time("date", committed.Date).
		Int("revision", committed.Revision).
		Msg("daily entry committed")

	return &domain.SubmitResult{Accepted: true}, nil
}

// GetLiveInventory projects the current balance for a project.
func (s *ProductionService) GetLiveInventory(ctx context.Context, projectID string) (domain.InventorySnapshot, error) {
	if snapshot, ok, err := s.cache.GetSnapshot(ctx, projectID); err == nil && ok {
		return snapshot, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("inventory cache get failed")
	}

	snapshot, _, err := s.projectBalance(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetSnapshot(ctx, projectID, snapshot); err != nil {
		log.Warn().Err(err).Msg("inventory cache set failed")
	}
	return snapshot, nil
}

// GetBuildableSets returns how many complete wagons the project's
// on-hand parts still allow.
func (s *ProductionService) GetBuildableSets(ctx context.Context, projectID string) (int, error) {
	if sets, ok, err := s.cache.GetBuildableSets(ctx, projectID); err == nil && ok {
		return sets, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("sets cache get failed")
	}

	snapshot, cfg, err := s.projectBalance(ctx, projectID)
	if err != nil {
		return 0, err
	}
	sets := bom.MaxBuildableSets(cfg, snapshot)

	if err := s.cache.SetBuildableSets(ctx, projectID, sets); err != nil {
		log.Warn().Err(err).Msg("sets cache set failed")
	}
	return sets, nil
}

// GetTrend returns the month's per-part and per-stage 5-day-bucket
// matrices, dense over the project's current config.
func (s *ProductionService) GetTrend(ctx context.Context, projectID string, month time.Month, year int) (*domain.TrendMatrices, error) {
	_, wagonType, err := s.ledger.BaseSnapshot(ctx, projectID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.registry.Get(ctx, wagonType)
	if err != nil {
		return nil, err
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	entries, err := s.ledger.EntriesInRange(ctx, projectID, from, to)
	if err != nil {
		return nil, err
	}

	matrices := bom.Bucketize(entries, bom.PartNames(cfg), bom.StageNames(cfg), month, year)
	return &matrices, nil
}

// MatchingSpareSets is the stateless maintenance-spares calculation:
// complete spare kits assemblable from a posted inventory.
func (s *ProductionService) MatchingSpareSets(parts []domain.PartDefinition, inventory domain.InventorySnapshot) int {
	return bom.MatchingSpareSets(parts, inventory)
}

func (s *ProductionService) projectBalance(ctx context.Context, projectID string) (domain.InventorySnapshot, *domain.WagonTypeConfig, error) {
	base, wagonType, err := s.ledger.BaseSnapshot(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := s.registry.Get(ctx, wagonType)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.ledger.Entries(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}

	snapshot, err := bom.ProjectBalance(base, entries, cfg)
	if err != nil {
		return nil, nil, err
	}
	metrics.ProjectionsComputed.Inc()
	return snapshot, cfg, nil
}

func withoutDate(entries []domain.LedgerEntry, date time.Time) []domain.LedgerEntry {
	kept := make([]domain.LedgerEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Date.Year() == date.Year() && entry.Date.YearDay() == date.YearDay() {
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}
