package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/wagonworks/wagonerp/internal/domain"
	"github.com/wagonworks/wagonerp/internal/repository/memory"
	"github.com/wagonworks/wagonerp/internal/service"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := memory.NewBOMRegistry()
	ledger := memory.NewLedgerStore()

	bomSvc := service.NewBOMService(registry)
	if err := bomSvc.Upsert(t.Context(), &domain.WagonTypeConfig{
		WagonType: "BOXN",
		Parts: []domain.PartDefinition{
			{Name: "Underframe", RequiredPerUnit: 1},
			{Name: "Wheel", RequiredPerUnit: 8},
		},
		Stages: []domain.StageDefinition{
			{Name: "Boxing", PartUsage: []domain.StageUsage{{PartName: "Underframe", UsedPerCompletion: 4}}},
		},
	}); err != nil {
		t.Fatalf("config setup failed: %v", err)
	}
	if err := ledger.SetBaseSnapshot(t.Context(), "PRJ-1", "BOXN",
		domain.InventorySnapshot{"Underframe": 10}); err != nil {
		t.Fatalf("base snapshot setup failed: %v", err)
	}

	productionSvc := service.NewProductionService(ledger, registry, nil)
	productionHandler := NewProductionHandler(productionSvc)
	bomHandler := NewBOMHandler(bomSvc)

	router := gin.New()
	apiGroup := router.Group("/api/v1")
	apiGroup.POST("/bom/configs", bomHandler.UpsertConfig)
	apiGroup.GET("/bom/configs/:wagonType", bomHandler.GetConfig)
	projectGroup := apiGroup.Group("/projects/:projectId")
	projectGroup.POST("/entries", productionHandler.SubmitEntry)
	projectGroup.GET("/inventory", productionHandler.GetInventory)
	projectGroup.GET("/buildable_sets", productionHandler.GetBuildableSets)
	projectGroup.GET("/trend", productionHandler.GetTrend)
	apiGroup.POST("/spares/matching_sets", productionHandler.MatchingSpareSets)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestSubmitEntry_Accepted(t *testing.T) {
	router := setupRouter(t)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/projects/PRJ-1/entries", map[string]interface{}{
		"date":             "2025-03-03",
		"parts_produced":   map[string]int{"Underframe": 2},
		"stages_completed": map[string]int{"Boxing": 3},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}

	var result domain.SubmitResult
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !result.Accepted {
		t.Errorf("accepted = false, violations = %v", result.Violations)
	}
}

func TestSubmitEntry_RejectedWithViolations(t *testing.T) {
	router := setupRouter(t)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/projects/PRJ-1/entries", map[string]interface{}{
		"date":             "2025-03-03",
		"stages_completed": map[string]int{"Boxing": 4},
	})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body = %s", resp.Code, resp.Body.String())
	}

	var result domain.SubmitResult
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Accepted || len(result.Violations) != 1 || result.Violations[0] != "Underframe" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestSubmitEntry_NonIntegerQuantityRejected(t *testing.T) {
	router := setupRouter(t)

	// 2.5 wheels is a data-entry mistake, not a zero.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/PRJ-1/entries",
		bytes.NewReader([]byte(`{"date":"2025-03-03","parts_produced":{"Wheel":2.5}}`)))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", recorder.Code, recorder.Body.String())
	}
}

func TestSubmitEntry_DuplicateDateConflict(t *testing.T) {
	router := setupRouter(t)
	body := map[string]interface{}{
		"date":           "2025-03-03",
		"parts_produced": map[string]int{"Underframe": 1},
	}

	if resp := doJSON(t, router, http.MethodPost, "/api/v1/projects/PRJ-1/entries", body); resp.Code != http.StatusOK {
		t.Fatalf("first submit: status = %d", resp.Code)
	}
	if resp := doJSON(t, router, http.MethodPost, "/api/v1/projects/PRJ-1/entries", body); resp.Code != http.StatusConflict {
		t.Fatalf("duplicate submit: status = %d, want 409", resp.Code)
	}
	// Explicit replacement goes through.
	if resp := doJSON(t, router, http.MethodPost, "/api/v1/projects/PRJ-1/entries?replace=true", body); resp.Code != http.StatusOK {
		t.Fatalf("replacement submit: status = %d, want 200", resp.Code)
	}
}

func TestGetInventoryAndBuildableSets(t *testing.T) {
	router := setupRouter(t)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/projects/PRJ-1/entries", map[string]interface{}{
		"date":           "2025-03-03",
		"parts_produced": map[string]int{"Wheel": 33},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("submit: status = %d", resp.Code)
	}

	resp = doJSON(t, router, http.MethodGet, "/api/v1/projects/PRJ-1/inventory", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("inventory: status = %d", resp.Code)
	}
	var inv struct {
		Inventory map[string]int `json:"inventory"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &inv); err != nil {
		t.Fatalf("decode inventory: %v", err)
	}
	if inv.Inventory["Wheel"] != 33 {
		t.Errorf("Wheel = %d, want 33", inv.Inventory["Wheel"])
	}

	resp = doJSON(t, router, http.MethodGet, "/api/v1/projects/PRJ-1/buildable_sets", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("buildable_sets: status = %d", resp.Code)
	}
	var sets struct {
		BuildableSets int `json:"buildable_sets"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &sets); err != nil {
		t.Fatalf("decode sets: %v", err)
	}
	// Wheel 33/8 = 4, Underframe 10/1 = 10.
	if sets.BuildableSets != 4 {
		t.Errorf("buildable_sets = %d, want 4", sets.BuildableSets)
	}
}

func TestSubmitEntry_RejectedFirstEntryLeavesProjectUnknown(t *testing.T) {
	router := setupRouter(t)

	// Stage consumption against the new project's empty balance.
	resp := doJSON(t, router, http.MethodPost, "/api/v1/projects/PRJ-NEW/entries", map[string]interface{}{
		"date":             "2025-03-03",
		"wagon_type":       "BOXN",
		"stages_completed": map[string]int{"Boxing": 1},
	})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422; body = %s", resp.Code, resp.Body.String())
	}

	// The rejection must not have registered the project.
	resp = doJSON(t, router, http.MethodGet, "/api/v1/projects/PRJ-NEW/inventory", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("inventory after rejection: status = %d, want 404", resp.Code)
	}
}

func TestGetInventory_UnknownProject(t *testing.T) {
	router := setupRouter(t)

	resp := doJSON(t, router, http.MethodGet, "/api/v1/projects/PRJ-404/inventory", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
}

func TestGetTrend(t *testing.T) {
	router := setupRouter(t)

	for _, date := range []string{"2025-03-03", "2025-03-27"} {
		resp := doJSON(t, router, http.MethodPost, "/api/v1/projects/PRJ-1/entries", map[string]interface{}{
			"date":           date,
			"parts_produced": map[string]int{"Wheel": 5},
		})
		if resp.Code != http.StatusOK {
			t.Fatalf("submit %s: status = %d", date, resp.Code)
		}
	}

	resp := doJSON(t, router, http.MethodGet, "/api/v1/projects/PRJ-1/trend?month=3&year=2025", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("trend: status = %d", resp.Code)
	}
	var trend domain.TrendMatrices
	if err := json.Unmarshal(resp.Body.Bytes(), &trend); err != nil {
		t.Fatalf("decode trend: %v", err)
	}
	if trend.Parts["Wheel"]["1-5"] != 5 || trend.Parts["Wheel"]["26-30"] != 5 {
		t.Errorf("unexpected Wheel buckets: %v", trend.Parts["Wheel"])
	}
}

func TestGetTrend_InvalidMonth(t *testing.T) {
	router := setupRouter(t)

	resp := doJSON(t, router, http.MethodGet, "/api/v1/projects/PRJ-1/trend?month=13&year=2025", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
}

func TestMatchingSpareSets(t *testing.T) {
	router := setupRouter(t)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/spares/matching_sets", map[string]interface{}{
		"parts": []map[string]interface{}{
			{"name": "Brake Block", "required_per_unit": 4},
			{"name": "Coupler", "required_per_unit": 2},
		},
		"inventory": map[string]int{"Brake Block": 17, "Coupler": 9},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}

	var result struct {
		MatchingSets int `json:"matching_sets"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.MatchingSets != 4 {
		t.Errorf("matching_sets = %d, want 4", result.MatchingSets)
	}
}
