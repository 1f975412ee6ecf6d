package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wagonworks/wagonerp/internal/domain"
	"github.com/wagonworks/wagonerp/internal/repository"
)

type ledgerStore struct {
	db *DB
}

// NewLedgerStore returns the postgres-backed production ledger.
func NewLedgerStore(db *DB) repository.LedgerStore {
	return &ledgerStore{db: db}
}

type entryRow struct {
	ID              int64           `db:"id"`
	ProjectID       string          `db:"project_id"`
	EntryDate       time.Time       `db:"entry_date"`
	WagonType       string          `db:"wagon_type"`
	PartsProduced   json.RawMessage `db:"parts_produced"`
	StagesCompleted json.RawMessage `db:"stages_completed"`
	Revision        int             `db:"revision"`
	CreatedAt       time.Time       `db:"created_at"`
}

func (row *entryRow) toEntry() (*domain.LedgerEntry, error) {
	entry := &domain.LedgerEntry{
		ID:        row.ID,
		ProjectID: row.ProjectID,
		Date:      row.EntryDate,
		WagonType: row.WagonType,
		Revision:  row.Revision,
		CreatedAt: row.CreatedAt,
	}
	if err := json.Unmarshal(row.PartsProduced, &entry.PartsProduced); err != nil {
		return nil, fmt.Errorf("decode parts_produced for entry %d: %w", row.ID, err)
	}
	if err := json.Unmarshal(row.StagesCompleted, &entry.StagesCompleted); err != nil {
		return nil, fmt.Errorf("decode stages_completed for entry %d: %w", row.ID, err)
	}
	return entry, nil
}

func (s *ledgerStore) Append(ctx context.Context, entry *domain.LedgerEntry, replace bool) (*domain.LedgerEntry, error) {
	parts, err := json.Marshal(orEmptyMap(entry.PartsProduced))
	if err != nil {
		return nil, fmt.Errorf("encode parts_produced: %w", err)
	}
	stages, err := json.Marshal(orEmptyMap(entry.StagesCompleted))
	if err != nil {
		return nil, fmt.Errorf("encode stages_completed: %w", err)
	}

	committed := *entry
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		// Lock the live revision for this date, if any. Corrections
		// supersede it; anything else is a duplicate.
		var prev struct {
			ID       int64 `db:"id"`
			Revision int   `db:"revision"`
		}
		query := `
			SELECT id, revision FROM ledger_entries
			WHERE project_id = $1 AND entry_date = $2 AND NOT superseded
			ORDER BY revision DESC
			LIMIT 1
			FOR UPDATE
		`
		revision := 1
		switch err := tx.GetContext(ctx, &prev, query, entry.ProjectID, entry.Date); err {
		case nil:
			if !replace {
				return fmt.Errorf("project %s on %s: %w",
					entry.ProjectID, entry.Date.Format("2006-01-02"), domain.ErrDuplicateEntry)
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE ledger_entries SET superseded = TRUE WHERE id = $1`, prev.ID); err != nil {
				return fmt.Errorf("supersede entry %d: %w", prev.ID, err)
			}
			revision = prev.Revision + 1
		case sql.ErrNoRows:
			// First entry for this date.
		default:
			return fmt.Errorf("check existing entry: %w", err)
		}

		insert := `
			INSERT INTO ledger_entries
				(project_id, entry_date, wagon_type, parts_produced, stages_completed, revision)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at
		`
		row := tx.QueryRowxContext(ctx, insert,
			entry.ProjectID, entry.Date, entry.WagonType, parts, stages, revision)
		if err := row.Scan(&committed.ID, &committed.CreatedAt); err != nil {
			return fmt.Errorf("insert ledger entry: %w", err)
		}
		committed.Revision = revision
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &committed, nil
}

func (s *ledgerStore) Entries(ctx context.Context, projectID string) ([]domain.LedgerEntry, error) {
	query := `
		SELECT id, project_id, entry_date, wagon_type, parts_produced, stages_completed, revision, created_at
		FROM ledger_entries
		WHERE project_id = $1 AND NOT superseded
		ORDER BY entry_date, id
	`
	return s.selectEntries(ctx, query, projectID)
}

func (s *ledgerStore) EntriesInRange(ctx context.Context, projectID string, from, to time.Time) ([]domain.LedgerEntry, error) {
	query := `
		SELECT id, project_id, entry_date, wagon_type, parts_produced, stages_completed, revision, created_at
		FROM ledger_entries
		WHERE project_id = $1 AND NOT superseded
			AND entry_date >= $2 AND entry_date <= $3
		ORDER BY entry_date, id
	`
	return s.selectEntries(ctx, query, projectID, from, to)
}

func (s *ledgerStore) selectEntries(ctx context.Context, query string, args ...interface{}) ([]domain.LedgerEntry, error) {
	var rows []entryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select ledger entries: %w", err)
	}

	entries := make([]domain.LedgerEntry, 0, len(rows))
	for i := range rows {
		entry, err := rows[i].toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func (s *ledgerStore) BaseSnapshot(ctx context.Context, projectID string) (domain.InventorySnapshot, string, error) {
	var row struct {
		WagonType  string          `db:"wagon_type"`
		Quantities json.RawMessage `db:"quantities"`
	}
	query := `SELECT wagon_type, quantities FROM base_snapshots WHERE project_id = $1`
	if err := s.db.GetContext(ctx, &row, query, projectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, "", fmt.Errorf("project %q: %w", projectID, domain.ErrNotFound)
		}
		return nil, "", fmt.Errorf("get base snapshot: %w", err)
	}

	var snapshot domain.InventorySnapshot
	if err := json.Unmarshal(row.Quantities, &snapshot); err != nil {
		return nil, "", fmt.Errorf("decode base snapshot for %q: %w", projectID, err)
	}
	return snapshot, row.WagonType, nil
}

func (s *ledgerStore) SetBaseSnapshot(ctx context.Context, projectID, wagonType string, snapshot domain.InventorySnapshot) error {
	quantities, err := json.Marshal(orEmptyMap(snapshot))
	if err != nil {
		return fmt.Errorf("encode base snapshot: %w", err)
	}

	query := `
		INSERT INTO base_snapshots (project_id, wagon_type, quantities, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (project_id) DO UPDATE SET
			wagon_type = EXCLUDED.wagon_type,
			quantities = EXCLUDED.quantities,
			updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, projectID, wagonType, quantities); err != nil {
		return fmt.Errorf("set base snapshot: %w", err)
	}
	return nil
}

func orEmptyMap(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}
