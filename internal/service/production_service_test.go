package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wagonworks/wagonerp/internal/domain"
	"github.com/wagonworks/wagonerp/internal/repository/memory"
)

func setupProduction(t *testing.T) (*ProductionService, *BOMService) {
	t.Helper()
	registry := memory.NewBOMRegistry()
	ledger := memory.NewLedgerStore()

	bomSvc := NewBOMService(registry)
	cfg := &domain.WagonTypeConfig{
		WagonType: "BOXN",
		Parts: []domain.PartDefinition{
			{Name: "Underframe", RequiredPerUnit: 1},
			{Name: "Wheel", RequiredPerUnit: 8},
		},
		Stages: []domain.StageDefinition{
			{Name: "Boxing", PartUsage: []domain.StageUsage{{PartName: "Underframe", UsedPerCompletion: 4}}},
			{Name: "Wheeling", PartUsage: []domain.StageUsage{{PartName: "Wheel", UsedPerCompletion: 8}}},
		},
	}
	if err := bomSvc.Upsert(context.Background(), cfg); err != nil {
		t.Fatalf("config setup failed: %v", err)
	}

	if err := ledger.SetBaseSnapshot(context.Background(), "PRJ-1", "BOXN",
		domain.InventorySnapshot{"Underframe": 10, "Wheel": 16}); err != nil {
		t.Fatalf("base snapshot setup failed: %v", err)
	}

	return NewProductionService(ledger, registry, nil), bomSvc
}

func entryOn(day int, parts, stages map[string]int) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ProjectID:       "PRJ-1",
		Date:            time.Date(2025, time.March, day, 0, 0, 0, 0, time.UTC),
		WagonType:       "BOXN",
		PartsProduced:   parts,
		StagesCompleted: stages,
	}
}

func TestSubmitDailyEntry_Accepted(t *testing.T) {
	svc, _ := setupProduction(t)
	ctx := context.Background()

	result, err := svc.SubmitDailyEntry(ctx,
		entryOn(3, map[string]int{"Underframe": 2}, map[string]int{"Boxing": 3}), false)
	if err != nil {
		t.Fatalf("SubmitDailyEntry failed: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("entry rejected: %v", result.Violations)
	}

	inventory, err := svc.GetLiveInventory(ctx, "PRJ-1")
	if err != nil {
		t.Fatalf("GetLiveInventory failed: %v", err)
	}
	// 10 + 2 - 12 = 0.
	if got := inventory.Get("Underframe"); got != 0 {
		t.Errorf("Underframe = %d, want 0", got)
	}
	if got := inventory.Get("Wheel"); got != 16 {
		t.Errorf("Wheel = %d, want 16", got)
	}
}

func TestSubmitDailyEntry_RejectedWithAllViolations(t *testing.T) {
	svc, _ := setupProduction(t)
	ctx := context.Background()

	result, err := svc.SubmitDailyEntry(ctx,
		entryOn(3, nil, map[string]int{"Boxing": 4, "Wheeling": 3}), false)
	if err != nil {
		t.Fatalf("SubmitDailyEntry failed: %v", err)
	}
	if result.Accepted {
		t.Fatal("expected rejection")
	}
	// Underframe 10-16, Wheel 16-24: both reported in one response.
	if len(result.Violations) != 2 {
		t.Fatalf("violations = %v, want both offending parts", result.Violations)
	}

	// Rejection left the ledger untouched.
	inventory, err := svc.GetLiveInventory(ctx, "PRJ-1")
	if err != nil {
		t.Fatalf("GetLiveInventory failed: %v", err)
	}
	if inventory.Get("Underframe") != 10 || inventory.Get("Wheel") != 16 {
		t.Errorf("state changed by rejected entry: %v", inventory)
	}
}

func TestSubmitDailyEntry_DuplicateDate(t *testing.T) {
	svc, _ := setupProduction(t)
	ctx := context.Background()

	entry := entryOn(3, map[string]int{"Underframe": 1}, nil)
	if _, err := svc.SubmitDailyEntry(ctx, entry, false); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	// Re-submitting the same committed day is never a silent merge.
	_, err := svc.SubmitDailyEntry(ctx, entryOn(3, map[string]int{"Underframe": 1}, nil), false)
	if !errors.Is(err, domain.ErrDuplicateEntry) {
		t.Fatalf("expected ErrDuplicateEntry, got %v", err)
	}

	inventory, _ := svc.GetLiveInventory(ctx, "PRJ-1")
	if got := inventory.Get("Underframe"); got != 11 {
		t.Errorf("Underframe = %d, want 11 (no double count)", got)
	}
}

func TestSubmitDailyEntry_Replacement(t *testing.T) {
	svc, _ := setupProduction(t)
	ctx := context.Background()

	if _, err := svc.SubmitDailyEntry(ctx,
		entryOn(3, map[string]int{"Underframe": 5}, nil), false); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	result, err := svc.SubmitDailyEntry(ctx,
		entryOn(3, map[string]int{"Underframe": 2}, map[string]int{"Boxing": 3}), true)
	if err != nil {
		t.Fatalf("replacement submit failed: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("replacement rejected: %v", result.Violations)
	}

	inventory, _ := svc.GetLiveInventory(ctx, "PRJ-1")
	// The superseded +5 must not count: 10 + 2 - 12 = 0.
	if got := inventory.Get("Underframe"); got != 0 {
		t.Errorf("Underframe = %d, want 0 after replacement", got)
	}
}

func TestSubmitDailyEntry_UnknownStage(t *testing.T) {
	svc, _ := setupProduction(t)

	_, err := svc.SubmitDailyEntry(context.Background(),
		entryOn(3, nil, map[string]int{"Lacquering": 1}), false)
	var unknownStage *domain.UnknownStageError
	if !errors.As(err, &unknownStage) {
		t.Fatalf("expected UnknownStageError, got %v", err)
	}
}

func TestSubmitDailyEntry_RegistersNewProject(t *testing.T) {
	svc, _ := setupProduction(t)
	ctx := context.Background()

	entry := &domain.LedgerEntry{
		ProjectID:     "PRJ-2",
		Date:          time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		WagonType:     "BOXN",
		PartsProduced: map[string]int{"Wheel": 24},
	}
	result, err := svc.SubmitDailyEntry(ctx, entry, false)
	if err != nil {
		t.Fatalf("submit for new project failed: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("entry rejected: %v", result.Violations)
	}

	sets, err := svc.GetBuildableSets(ctx, "PRJ-2")
	if err != nil {
		t.Fatalf("GetBuildableSets failed: %v", err)
	}
	// Underframe requires 1 per unit with 0 on hand.
	if sets != 0 {
		t.Errorf("sets = %d, want 0", sets)
	}
}

func TestSubmitDailyEntry_RejectedEntryDoesNotRegisterProject(t *testing.T) {
	registry := memory.NewBOMRegistry()
	ledger := memory.NewLedgerStore()
	ctx := context.Background()

	bomSvc := NewBOMService(registry)
	if err := bomSvc.Upsert(ctx, &domain.WagonTypeConfig{
		WagonType: "BOXN",
		Parts:     []domain.PartDefinition{{Name: "Underframe", RequiredPerUnit: 1}},
		Stages: []domain.StageDefinition{
			{Name: "Boxing", PartUsage: []domain.StageUsage{{PartName: "Underframe", UsedPerCompletion: 4}}},
		},
	}); err != nil {
		t.Fatalf("config setup failed: %v", err)
	}
	svc := NewProductionService(ledger, registry, nil)

	// First-ever entry for the project consumes from an empty balance.
	entry := &domain.LedgerEntry{
		ProjectID:       "PRJ-2",
		Date:            time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		WagonType:       "BOXN",
		StagesCompleted: map[string]int{"Boxing": 1},
	}
	result, err := svc.SubmitDailyEntry(ctx, entry, false)
	if err != nil {
		t.Fatalf("SubmitDailyEntry failed: %v", err)
	}
	if result.Accepted {
		t.Fatal("expected rejection against empty balance")
	}

	// The rejected submission must not have registered the project.
	if _, _, err := ledger.BaseSnapshot(ctx, "PRJ-2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("rejected submission registered project: %v", err)
	}
	entries, _ := ledger.Entries(ctx, "PRJ-2")
	if len(entries) != 0 {
		t.Errorf("rejected submission left %d ledger entries", len(entries))
	}
}

func TestSubmitDailyEntry_UnknownWagonTypeDoesNotRegisterProject(t *testing.T) {
	registry := memory.NewBOMRegistry()
	ledger := memory.NewLedgerStore()
	svc := NewProductionService(ledger, registry, nil)
	ctx := context.Background()

	entry := &domain.LedgerEntry{
		ProjectID:     "PRJ-3",
		Date:          time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		WagonType:     "NOPE",
		PartsProduced: map[string]int{"Wheel": 8},
	}
	if _, err := svc.SubmitDailyEntry(ctx, entry, false); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown wagon type, got %v", err)
	}

	if _, _, err := ledger.BaseSnapshot(ctx, "PRJ-3"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("failed submission registered project: %v", err)
	}
}

func TestGetBuildableSets(t *testing.T) {
	svc, _ := setupProduction(t)
	ctx := context.Background()

	if _, err := svc.SubmitDailyEntry(ctx,
		entryOn(3, map[string]int{"Wheel": 17}, nil), false); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	sets, err := svc.GetBuildableSets(ctx, "PRJ-1")
	if err != nil {
		t.Fatalf("GetBuildableSets failed: %v", err)
	}
	// Wheel: 33/8 = 4, Underframe: 10/1 = 10, min = 4.
	if sets != 4 {
		t.Errorf("sets = %d, want 4", sets)
	}
}

func TestGetBuildableSets_UnknownProject(t *testing.T) {
	svc, _ := setupProduction(t)

	_, err := svc.GetBuildableSets(context.Background(), "PRJ-404")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetTrend(t *testing.T) {
	svc, _ := setupProduction(t)
	ctx := context.Background()

	for _, submit := range []struct {
		day   int
		parts map[string]int
	}{
		{3, map[string]int{"Wheel": 5}},
		{27, map[string]int{"Wheel": 5}},
	} {
		if _, err := svc.SubmitDailyEntry(ctx, entryOn(submit.day, submit.parts, nil), false); err != nil {
			t.Fatalf("submit day %d failed: %v", submit.day, err)
		}
	}

	trend, err := svc.GetTrend(ctx, "PRJ-1", time.March, 2025)
	if err != nil {
		t.Fatalf("GetTrend failed: %v", err)
	}
	if trend.Parts["Wheel"]["1-5"] != 5 || trend.Parts["Wheel"]["26-30"] != 5 {
		t.Errorf("unexpected Wheel buckets: %v", trend.Parts["Wheel"])
	}
	// Configured but inactive parts still come back dense.
	if _, ok := trend.Parts["Underframe"]; !ok {
		t.Error("Underframe missing from dense matrix")
	}
	if _, ok := trend.Stages["Boxing"]; !ok {
		t.Error("Boxing missing from dense matrix")
	}
}

func TestSubmitDailyEntry_ConcurrentSerialization(t *testing.T) {
	svc, _ := setupProduction(t)
	ctx := context.Background()

	// Base has 16 wheels; each submission consumes 8 twice. Only one
	// of the two concurrent submissions can fit.
	entries := []*domain.LedgerEntry{
		entryOn(3, nil, map[string]int{"Wheeling": 2}),
		entryOn(4, nil, map[string]int{"Wheeling": 2}),
	}

	var wg sync.WaitGroup
	results := make([]*domain.SubmitResult, len(entries))
	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry *domain.LedgerEntry) {
			defer wg.Done()
			result, err := svc.SubmitDailyEntry(ctx, entry, false)
			if err != nil {
				t.Errorf("submit %d failed: %v", i, err)
				return
			}
			results[i] = result
		}(i, entry)
	}
	wg.Wait()

	accepted := 0
	for _, result := range results {
		if result != nil && result.Accepted {
			accepted++
		}
	}
	if accepted != 1 {
		t.Errorf("accepted = %d, want exactly 1 (validation must see the other commit)", accepted)
	}

	inventory, _ := svc.GetLiveInventory(ctx, "PRJ-1")
	if got := inventory.Get("Wheel"); got != 0 {
		t.Errorf("Wheel = %d, want 0", got)
	}
}

func TestMatchingSpareSets(t *testing.T) {
	svc, _ := setupProduction(t)

	spares := []domain.PartDefinition{
		{Name: "Brake Block", RequiredPerUnit: 4},
		{Name: "Coupler", RequiredPerUnit: 2},
	}
	got := svc.MatchingSpareSets(spares, domain.InventorySnapshot{"Brake Block": 17, "Coupler": 9})
	if got != 4 {
		t.Errorf("MatchingSpareSets = %d, want 4", got)
	}
}
