package bom

import "github.com/wagonworks/wagonerp/internal/domain"

// MaxBuildableSets computes how many complete wagons can still be
// assembled from on-hand parts: the minimum over all required parts of
// floor(onHand / requiredPerUnit).
//
// Parts with RequiredPerUnit <= 0 never constrain the result; a config
// row with a zero requirement used to collapse the whole figure to 0
// on the production dashboard, so the guard here is deliberate. A
// config with no constraining parts yields 0, not infinity.
func MaxBuildableSets(cfg *domain.WagonTypeConfig, inventory domain.InventorySnapshot) int {
	return minCompleteSets(cfg.Parts, inventory)
}

// MatchingSpareSets is the maintenance-spares variant of the same
// rule: the number of complete spare kits assemblable from on-hand
// spares. Same arithmetic, different screen.
func MatchingSpareSets(parts []domain.PartDefinition, inventory domain.InventorySnapshot) int {
	return minCompleteSets(parts, inventory)
}

func minCompleteSets(parts []domain.PartDefinition, inventory domain.InventorySnapshot) int {
	sets := -1
	for _, part := range parts {
		if part.RequiredPerUnit <= 0 {
			continue
		}
		onHand := inventory.Get(part.Name)
		if onHand < 0 {
			onHand = 0
		}
		buildable := onHand / part.RequiredPerUnit
		if sets < 0 || buildable < sets {
			sets = buildable
		}
	}
	if sets < 0 {
		return 0
	}
	return sets
}
