// internal/domain/models.go
package domain

import "time"

// PartDefinition describes one component of a wagon type and how many
// of it go into a single wagon.
type PartDefinition struct {
	Name            string `json:"name"`
	RequiredPerUnit int    `json:"required_per_unit"`
}

// StageUsage is the consumption rate of one part for one completion of
// a manufacturing stage.
type StageUsage struct {
	PartName          string `json:"part_name"`
	UsedPerCompletion int    `json:"used_per_completion"`
}

// StageDefinition describes a manufacturing stage (boxing, wheeling, ...)
// and the parts it consumes per completed wagon at that stage.
type StageDefinition struct {
	Name      string       `json:"name"`
	PartUsage []StageUsage `json:"part_usage"`
}

// WagonTypeConfig is the bill of materials for one wagon type: the
// parts that make up a wagon and the stages that consume them.
// Keyed by WagonType; read-mostly after configuration.
type WagonTypeConfig struct {
	WagonType string            `json:"wagon_type" db:"wagon_type"`
	Parts     []PartDefinition  `json:"parts"`
	Stages    []StageDefinition `json:"stages"`
	CreatedAt time.Time         `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt time.Time         `json:"updated_at,omitempty" db:"updated_at"`
}

// Part returns the part definition by name, or false when the config
// does not define it.
func (c *WagonTypeConfig) Part(name string) (PartDefinition, bool) {
	for _, p := range c.Parts {
		if p.Name == name {
			return p, true
		}
	}
	return PartDefinition{}, false
}

// Stage returns the stage definition by name, or false when the config
// does not define it.
func (c *WagonTypeConfig) Stage(name string) (StageDefinition, bool) {
	for _, s := range c.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageDefinition{}, false
}

// LedgerEntry records one day's production activity for one project:
// parts received or produced, and stage completions. Entries are
// immutable once committed; a correction for the same (project, date)
// is an explicit replacement that supersedes the earlier revision.
type LedgerEntry struct {
	ID              int64          `json:"id,omitempty" db:"id"`
	ProjectID       string         `json:"project_id" db:"project_id"`
	Date            time.Time      `json:"date" db:"entry_date"`
	WagonType       string         `json:"wagon_type" db:"wagon_type"`
	PartsProduced   map[string]int `json:"parts_produced"`
	StagesCompleted map[string]int `json:"stages_completed"`
	Revision        int            `json:"revision,omitempty" db:"revision"`
	CreatedAt       time.Time      `json:"created_at,omitempty" db:"created_at"`
}

// InventorySnapshot is a per-part balance for one project. It is always
// a projection over the ledger, never an independently mutated counter.
type InventorySnapshot map[string]int

// Get returns the balance for a part, defaulting to 0 for parts the
// snapshot has never seen.
func (s InventorySnapshot) Get(part string) int {
	return s[part]
}

// Clone returns an independent copy of the snapshot.
func (s InventorySnapshot) Clone() InventorySnapshot {
	out := make(InventorySnapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// BucketLabels are the fixed trend buckets, one month split into six
// 5-day groups. Days 26-31 all fall into "26-30" by reporting
// convention.
var BucketLabels = []string{"1-5", "6-10", "11-15", "16-20", "21-25", "26-30"}

// TrendMatrices is the dashboard view of one month of ledger activity:
// per-part and per-stage totals in fixed 5-day buckets. Every requested
// part and stage is present with all six buckets, zero-filled.
type TrendMatrices struct {
	Parts  map[string]map[string]int `json:"parts_matrix"`
	Stages map[string]map[string]int `json:"stages_matrix"`
}

// SubmitResult is the outcome of a daily-entry submission. A rejected
// submission carries every part that would have gone negative so the
// caller can correct the whole form in one pass.
type SubmitResult struct {
	Accepted   bool     `json:"accepted"`
	Violations []string `json:"violations,omitempty"`
}
