// Package bom holds the inventory projection, set-availability and
// trend calculations shared by the store-receipt, daily-production and
// dashboard surfaces. Everything here is pure: no I/O, no clocks, no
// stored state. Balances are always derived by folding the ledger over
// a base snapshot, never read from a mutable counter.
package bom

import (
	"sort"

	"github.com/wagonworks/wagonerp/internal/domain"
)

// ProjectBalance folds ledger entries over a base snapshot and returns
// the resulting per-part balance. Entries must already be in date
// order (the ledger guarantees this). A completed stage the config
// does not define halts the fold with UnknownStageError; skipping it
// would silently under-count consumption.
func ProjectBalance(base domain.InventorySnapshot, entries []domain.LedgerEntry, cfg *domain.WagonTypeConfig) (domain.InventorySnapshot, error) {
	balance := base.Clone()
	if balance == nil {
		balance = domain.InventorySnapshot{}
	}
	for i := range entries {
		if err := applyEntry(balance, &entries[i], cfg); err != nil {
			return nil, err
		}
	}
	return balance, nil
}

// applyEntry mutates balance in place with one day's activity.
func applyEntry(balance domain.InventorySnapshot, entry *domain.LedgerEntry, cfg *domain.WagonTypeConfig) error {
	// 1. Consumption: each completed stage consumes its part usage
	//    multiplied by the completion count.
	for stageName, completions := range entry.StagesCompleted {
		stage, ok := cfg.Stage(stageName)
		if !ok {
			return &domain.UnknownStageError{Stage: stageName}
		}
		for _, usage := range stage.PartUsage {
			balance[usage.PartName] -= usage.UsedPerCompletion * completions
		}
	}

	// 2. Production/receipts: parts not mentioned default to 0.
	for partName, qty := range entry.PartsProduced {
		balance[partName] += qty
	}

	return nil
}

// ValidateCandidate projects the prior balance, simulates the candidate
// entry on top of it, and reports every part that would end negative.
// Used by the ledger before any commit; on error the ledger stays
// untouched. The full violation list lets the entry screen show all
// problems at once instead of one per submission.
func ValidateCandidate(base domain.InventorySnapshot, prior []domain.LedgerEntry, candidate *domain.LedgerEntry, cfg *domain.WagonTypeConfig) error {
	balance, err := ProjectBalance(base, prior, cfg)
	if err != nil {
		return err
	}
	if err := applyEntry(balance, candidate, cfg); err != nil {
		return err
	}

	var negative []string
	for part, qty := range balance {
		if qty < 0 {
			negative = append(negative, part)
		}
	}
	if len(negative) > 0 {
		sort.Strings(negative)
		return &domain.NegativeBalanceError{Parts: negative}
	}
	return nil
}

// ValidateEntryQuantities rejects negative quantities in a candidate
// entry. Non-numeric input never reaches here; the JSON boundary
// refuses it rather than coercing to zero.
func ValidateEntryQuantities(entry *domain.LedgerEntry) error {
	for part, qty := range entry.PartsProduced {
		if qty < 0 {
			return &domain.InvalidQuantityError{Field: part, Value: qty}
		}
	}
	for stage, count := range entry.StagesCompleted {
		if count < 0 {
			return &domain.InvalidQuantityError{Field: stage, Value: count}
		}
	}
	return nil
}
