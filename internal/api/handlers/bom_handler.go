package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wagonworks/wagonerp/internal/domain"
	"github.com/wagonworks/wagonerp/internal/service"
)

type BOMHandler struct {
	service *service.BOMService
}

func NewBOMHandler(service *service.BOMService) *BOMHandler {
	return &BOMHandler{service: service}
}

// UpsertConfig handles POST /bom/configs.
func (h *BOMHandler) UpsertConfig(c *gin.Context) {
	var cfg domain.WagonTypeConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid config payload: " + err.Error()})
		return
	}

	if err := h.service.Upsert(c.Request.Context(), &cfg); err != nil {
		status := http.StatusBadRequest
		var unknownPart *domain.UnknownPartReferenceError
		var invalidQty *domain.InvalidQuantityError
		switch {
		case errors.Is(err, domain.ErrInvalidConfig),
			errors.As(err, &unknownPart),
			errors.As(err, &invalidQty):
			// Config validation problems stay 400.
		default:
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"wagon_type": cfg.WagonType})
}

// GetConfig handles GET /bom/configs/:wagonType.
func (h *BOMHandler) GetConfig(c *gin.Context) {
	cfg, err := h.service.Get(c.Request.Context(), c.Param("wagonType"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// ListConfigs handles GET /bom/configs.
func (h *BOMHandler) ListConfigs(c *gin.Context) {
	configs, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"configs": configs})
}

// DeleteConfig handles DELETE /bom/configs/:wagonType.
func (h *BOMHandler) DeleteConfig(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("wagonType")); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
