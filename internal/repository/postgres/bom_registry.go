package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wagonworks/wagonerp/internal/domain"
	"github.com/wagonworks/wagonerp/internal/repository"
)

type bomRegistry struct {
	db *DB
}

// NewBOMRegistry returns the postgres-backed wagon-type config store.
func NewBOMRegistry(db *DB) repository.BOMRegistry {
	return &bomRegistry{db: db}
}

type configRow struct {
	WagonType string          `db:"wagon_type"`
	Parts     json.RawMessage `db:"parts"`
	Stages    json.RawMessage `db:"stages"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (row *configRow) toConfig() (*domain.WagonTypeConfig, error) {
	cfg := &domain.WagonTypeConfig{
		WagonType: row.WagonType,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if err := json.Unmarshal(row.Parts, &cfg.Parts); err != nil {
		return nil, fmt.Errorf("decode parts for %q: %w", row.WagonType, err)
	}
	if err := json.Unmarshal(row.Stages, &cfg.Stages); err != nil {
		return nil, fmt.Errorf("decode stages for %q: %w", row.WagonType, err)
	}
	return cfg, nil
}

func (r *bomRegistry) Upsert(ctx context.Context, cfg *domain.WagonTypeConfig) error {
	parts, err := json.Marshal(cfg.Parts)
	if err != nil {
		return fmt.Errorf("encode parts: %w", err)
	}
	stages, err := json.Marshal(cfg.Stages)
	if err != nil {
		return fmt.Errorf("encode stages: %w", err)
	}

	// Whole-document swap: a reader never observes a half-updated BOM.
	query := `
		INSERT INTO wagon_type_configs (wagon_type, parts, stages, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (wagon_type) DO UPDATE SET
			parts = EXCLUDED.parts,
			stages = EXCLUDED.stages,
			updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, cfg.WagonType, parts, stages); err != nil {
		return fmt.Errorf("upsert wagon type config: %w", err)
	}
	return nil
}

func (r *bomRegistry) Get(ctx context.Context, wagonType string) (*domain.WagonTypeConfig, error) {
	var row configRow
	query := `
		SELECT wagon_type, parts, stages, created_at, updated_at
		FROM wagon_type_configs
		WHERE wagon_type = $1
	`
	if err := r.db.GetContext(ctx, &row, query, wagonType); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("wagon type %q: %w", wagonType, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get wagon type config: %w", err)
	}
	return row.toConfig()
}

func (r *bomRegistry) List(ctx context.Context) ([]domain.WagonTypeConfig, error) {
	var rows []configRow
	query := `
		SELECT wagon_type, parts, stages, created_at, updated_at
		FROM wagon_type_configs
		ORDER BY wagon_type
	`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list wagon type configs: %w", err)
	}

	configs := make([]domain.WagonTypeConfig, 0, len(rows))
	for i := range rows {
		cfg, err := rows[i].toConfig()
		if err != nil {
			return nil, err
		}
		configs = append(configs, *cfg)
	}
	return configs, nil
}

func (r *bomRegistry) Delete(ctx context.Context, wagonType string) error {
	// Ledger entries for the wagon type are left in place; deletion
	// does not cascade.
	res, err := r.db.ExecContext(ctx, `DELETE FROM wagon_type_configs WHERE wagon_type = $1`, wagonType)
	if err != nil {
		return fmt.Errorf("delete wagon type config: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete wagon type config: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("wagon type %q: %w", wagonType, domain.ErrNotFound)
	}
	return nil
}
