// internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/wagonworks/wagonerp/internal/domain"
)

// BOMRegistry stores wagon-type configurations. Writes replace the
// whole document so a concurrent reader never sees parts from one
// revision and stages from another.
type BOMRegistry interface {
	Upsert(ctx context.Context, cfg *domain.WagonTypeConfig) error
	Get(ctx context.Context, wagonType string) (*domain.WagonTypeConfig, error)
	List(ctx context.Context) ([]domain.WagonTypeConfig, error)
	Delete(ctx context.Context, wagonType string) error
}

// LedgerStore is the append-only production ledger plus the per-project
// day-zero base snapshot. Entries come back in non-decreasing date
// order, same-date ties by commit sequence, one live revision per date.
type LedgerStore interface {
	// Append commits an entry. An existing live entry for the same
	// (project, date) makes it fail with ErrDuplicateEntry unless
	// replace is set, in which case the old revision is superseded and
	// kept for audit.
	Append(ctx context.Context, entry *domain.LedgerEntry, replace bool) (*domain.LedgerEntry, error)

	// Entries returns the project's full live history.
	Entries(ctx context.Context, projectID string) ([]domain.LedgerEntry, error)

	// EntriesInRange returns live entries with from <= date <= to.
	EntriesInRange(ctx context.Context, projectID string, from, to time.Time) ([]domain.LedgerEntry, error)

	// BaseSnapshot returns the project's day-zero balance and active
	// wagon type. ErrNotFound when the project was never registered.
	BaseSnapshot(ctx context.Context, projectID string) (domain.InventorySnapshot, string, error)

	// SetBaseSnapshot registers or updates a project's day-zero balance
	// and active wagon type.
	SetBaseSnapshot(ctx context.Context, projectID, wagonType string, snapshot domain.InventorySnapshot) error
}
