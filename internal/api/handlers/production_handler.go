package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wagonworks/wagonerp/internal/domain"
	"github.com/wagonworks/wagonerp/internal/service"
)

const dateLayout = "2006-01-02"

type ProductionHandler struct {
	service *service.ProductionService
}

func NewProductionHandler(service *service.ProductionService) *ProductionHandler {
	return &ProductionHandler{service: service}
}

type dailyEntryRequest struct {
	Date            string         `json:"date" binding:"required"`
	WagonType       string         `json:"wagon_type"`
	PartsProduced   map[string]int `json:"parts_produced"`
	StagesCompleted map[string]int `json:"stages_completed"`
}

// SubmitEntry handles POST /projects/:projectId/entries. A correction
// for an already-recorded date needs ?replace=true; the ledger never
// merges silently.
func (h *ProductionHandler) SubmitEntry(c *gin.Context) {
	var req dailyEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Covers non-integer quantities too: the JSON boundary rejects
		// them instead of coercing to zero.
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry payload: " + err.Error()})
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, want YYYY-MM-DD"})
		return
	}

	entry := &domain.LedgerEntry{
		ProjectID:       c.Param("projectId"),
		Date:            date,
		WagonType:       req.WagonType,
		PartsProduced:   req.PartsProduced,
		StagesCompleted: req.StagesCompleted,
	}
	replace := c.Query("replace") == "true"

	result, err := h.service.SubmitDailyEntry(c.Request.Context(), entry, replace)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !result.Accepted {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetInventory handles GET /projects/:projectId/inventory.
func (h *ProductionHandler) GetInventory(c *gin.Context) {
	inventory, err := h.service.GetLiveInventory(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project_id": c.Param("projectId"), "inventory": inventory})
}

// GetBuildableSets handles GET /projects/:projectId/buildable_sets.
func (h *ProductionHandler) GetBuildableSets(c *gin.Context) {
	sets, err := h.service.GetBuildableSets(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project_id": c.Param("projectId"), "buildable_sets": sets})
}

// GetTrend handles GET /projects/:projectId/trend?month=&year=.
// Defaults to the current month.
func (h *ProductionHandler) GetTrend(c *gin.Context) {
	now := time.Now()
	month := int(now.Month())
	year := now.Year()

	if raw := c.Query("month"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
			return
		}
		month = parsed
	}
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 2000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return
		}
		year = parsed
	}

	trend, err := h.service.GetTrend(c.Request.Context(), c.Param("projectId"), time.Month(month), year)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, trend)
}

type matchingSetsRequest struct {
	Parts     []domain.PartDefinition `json:"parts" binding:"required"`
	Inventory map[string]int          `json:"inventory" binding:"required"`
}

// MatchingSpareSets handles POST /spares/matching_sets: the stateless
// maintenance-spares twin of buildable sets.
func (h *ProductionHandler) MatchingSpareSets(c *gin.Context) {
	var req matchingSetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
		return
	}
	for _, part := range req.Parts {
		if part.RequiredPerUnit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "required_per_unit must be >= 0"})
			return
		}
	}

	sets := h.service.MatchingSpareSets(req.Parts, domain.InventorySnapshot(req.Inventory))
	c.JSON(http.StatusOK, gin.H{"matching_sets": sets})
}

func (h *ProductionHandler) writeError(c *gin.Context, err error) {
	var invalidQty *domain.InvalidQuantityError
	var unknownStage *domain.UnknownStageError
	var unknownPart *domain.UnknownPartReferenceError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrDuplicateEntry):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidConfig),
		errors.As(err, &invalidQty),
		errors.As(err, &unknownStage),
		errors.As(err, &unknownPart):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
