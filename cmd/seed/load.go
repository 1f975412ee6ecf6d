package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/wagonworks/wagonerp/internal/bom"
	"github.com/wagonworks/wagonerp/internal/domain"
)

// seedConfigs loads a JSON array of wagon-type configs. Each config is
// validated with the same rules the API applies before it is stored.
func seedConfigs(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: seed configs <configs.json>")
	}

	payload, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to read configs file: %w", err)
	}
	var configs []domain.WagonTypeConfig
	if err := json.Unmarshal(payload, &configs); err != nil {
		return fmt.Errorf("failed to parse configs file: %w", err)
	}

	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	for i := range configs {
		cfg := &configs[i]
		if err := bom.ValidateConfig(cfg); err != nil {
			return fmt.Errorf("config %q invalid: %w", cfg.WagonType, err)
		}

		parts, err := json.Marshal(cfg.Parts)
		if err != nil {
			return fmt.Errorf("encode parts for %q: %w", cfg.WagonType, err)
		}
		stages, err := json.Marshal(cfg.Stages)
		if err != nil {
			return fmt.Errorf("encode stages for %q: %w", cfg.WagonType, err)
		}

		_, err = db.ExecContext(ctx, `
			INSERT INTO wagon_type_configs (wagon_type, parts, stages, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			ON CONFLICT (wagon_type) DO UPDATE SET
				parts = EXCLUDED.parts,
				stages = EXCLUDED.stages,
				updated_at = NOW()
		`, cfg.WagonType, parts, stages)
		if err != nil {
			return fmt.Errorf("failed to insert config %q: %w", cfg.WagonType, err)
		}
		log.Printf("loaded config %s (%d parts, %d stages)", cfg.WagonType, len(cfg.Parts), len(cfg.Stages))
	}

	return nil
}

type baseSnapshotFile struct {
	ProjectID  string         `json:"project_id"`
	WagonType  string         `json:"wagon_type"`
	Quantities map[string]int `json:"quantities"`
}

// seedBaseSnapshots loads a JSON array of project base snapshots.
func seedBaseSnapshots(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: seed base <base.json>")
	}

	payload, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to read base snapshot file: %w", err)
	}
	var snapshots []baseSnapshotFile
	if err := json.Unmarshal(payload, &snapshots); err != nil {
		return fmt.Errorf("failed to parse base snapshot file: %w", err)
	}

	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	for _, snapshot := range snapshots {
		for part, qty := range snapshot.Quantities {
			if qty < 0 {
				return fmt.Errorf("project %q: negative base quantity for %q", snapshot.ProjectID, part)
			}
		}

		quantities, err := json.Marshal(snapshot.Quantities)
		if err != nil {
			return fmt.Errorf("encode quantities for %q: %w", snapshot.ProjectID, err)
		}
		_, err = db.ExecContext(ctx, `
			INSERT INTO base_snapshots (project_id, wagon_type, quantities, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (project_id) DO UPDATE SET
				wagon_type = EXCLUDED.wagon_type,
				quantities = EXCLUDED.quantities,
				updated_at = NOW()
		`, snapshot.ProjectID, snapshot.WagonType, quantities)
		if err != nil {
			return fmt.Errorf("failed to insert base snapshot %q: %w", snapshot.ProjectID, err)
		}
		log.Printf("loaded base snapshot for %s (%d parts)", snapshot.ProjectID, len(snapshot.Quantities))
	}

	return nil
}

// seedEntries loads ledger entries from a CSV with columns
// project_id, date, wagon_type, kind (part|stage), name, quantity.
// Rows for the same project and date merge into one entry.
func seedEntries(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: seed entries <entries.csv>")
	}

	file, err := os.Open(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to open entries file: %w", err)
	}
	defer file.Close()

	entries, err := readEntriesCSV(file)
	if err != nil {
		return err
	}

	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	for _, entry := range entries {
		parts, err := json.Marshal(entry.PartsProduced)
		if err != nil {
			return fmt.Errorf("encode parts_produced: %w", err)
		}
		stages, err := json.Marshal(entry.StagesCompleted)
		if err != nil {
			return fmt.Errorf("encode stages_completed: %w", err)
		}

		_, err = db.ExecContext(ctx, `
			INSERT INTO ledger_entries
				(project_id, entry_date, wagon_type, parts_produced, stages_completed, revision)
			VALUES ($1, $2, $3, $4, $5, 1)
			ON CONFLICT (project_id, entry_date, revision) DO NOTHING
		`, entry.ProjectID, entry.Date, entry.WagonType, parts, stages)
		if err != nil {
			return fmt.Errorf("failed to insert entry %s/%s: %w",
				entry.ProjectID, entry.Date.Format("2006-01-02"), err)
		}
	}
	log.Printf("loaded %d ledger entries", len(entries))

	return nil
}

func readEntriesCSV(r io.Reader) ([]*domain.LedgerEntry, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) < 6 {
		return nil, fmt.Errorf("expected columns project_id,date,wagon_type,kind,name,quantity")
	}

	byKey := make(map[string]*domain.LedgerEntry)
	var order []string
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		line++

		projectID, rawDate, wagonType := record[0], record[1], record[2]
		kind, name, rawQty := record[3], record[4], record[5]

		date, err := time.Parse("2006-01-02", rawDate)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad date %q", line, rawDate)
		}
		qty, err := strconv.Atoi(rawQty)
		if err != nil || qty < 0 {
			// Bad quantities abort the load; silently zeroing them is
			// how the legacy sheets hid data-entry mistakes.
			return nil, fmt.Errorf("line %d: bad quantity %q", line, rawQty)
		}

		key := projectID + "|" + rawDate
		entry, ok := byKey[key]
		if !ok {
			entry = &domain.LedgerEntry{
				ProjectID:       projectID,
				Date:            date,
				WagonType:       wagonType,
				PartsProduced:   map[string]int{},
				StagesCompleted: map[string]int{},
			}
			byKey[key] = entry
			order = append(order, key)
		}

		switch kind {
		case "part":
			entry.PartsProduced[name] += qty
		case "stage":
			entry.StagesCompleted[name] += qty
		default:
			return nil, fmt.Errorf("line %d: unknown kind %q", line, kind)
		}
	}

	entries := make([]*domain.LedgerEntry, 0, len(byKey))
	for _, key := range order {
		entries = append(entries, byKey[key])
	}
	return entries, nil
}
