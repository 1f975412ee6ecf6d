// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/wagonworks/wagonerp/internal/api/handlers"
	"github.com/wagonworks/wagonerp/internal/api/middleware"
	"github.com/wagonworks/wagonerp/internal/service"
)

type Services struct {
	BOMService        *service.BOMService
	ProductionService *service.ProductionService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalized, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalized) > 0 {
			corsConfig.AllowOrigins = normalized
		}
	}
	router.Use(cors.New(corsConfig))

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.BOMService != nil {
			bomHandler := handlers.NewBOMHandler(services.BOMService)
			bomGroup := apiGroup.Group("/bom")
			{
				bomGroup.POST("/configs", bomHandler.UpsertConfig)
				bomGroup.GET("/configs", bomHandler.ListConfigs)
				bomGroup.GET("/configs/:wagonType", bomHandler.GetConfig)
				bomGroup.DELETE("/configs/:wagonType", bomHandler.DeleteConfig)
			}
		}

		if services.ProductionService != nil {
			productionHandler := handlers.NewProductionHandler(services.ProductionService)
			projectGroup := apiGroup.Group("/projects/:projectId")
			{
				projectGroup.POST("/entries", productionHandler.SubmitEntry)
				projectGroup.GET("/inventory", productionHandler.GetInventory)
				projectGroup.GET("/buildable_sets", productionHandler.GetBuildableSets)
				projectGroup.GET("/trend", productionHandler.GetTrend)
			}
			apiGroup.POST("/spares/matching_sets", productionHandler.MatchingSpareSets)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
