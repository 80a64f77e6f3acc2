// Package api wires the HTTP routes of the inventory sync service.
package api

import (
	"net/http"
	"time"

	"github.com/JonahHouse/ElPaseoAuto/internal/auth"
	"github.com/JonahHouse/ElPaseoAuto/internal/handlers"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	corsMaxAgeHours = 12
)

// Routes holds what SetupRoutes mounts.
type Routes struct {
	Sync      *handlers.SyncHandler
	Inventory *handlers.InventoryHandler

	// Auth guards the sync and dashboard endpoints.
	Auth gin.HandlerFunc

	// Metrics serves /metrics when set.
	Metrics http.Handler

	CORSOrigins []string
}

// SetupRoutes returns a route setup function for server.New.
func SetupRoutes(r Routes) func(*gin.Engine) {
	return func(router *gin.Engine) {
		if len(r.CORSOrigins) > 0 {
			router.Use(corsMiddleware(r.CORSOrigins))
		}

		if r.Metrics != nil {
			router.GET("/metrics", gin.WrapH(r.Metrics))
		}

		v1 := router.Group("/api/v1")

		// Public catalog reads
		v1.GET("/vehicles/:vin", r.Inventory.GetVehicle)

		protected := v1.Group("", r.Auth)
		sync := protected.Group("/sync")
		sync.POST("", r.Sync.Trigger)
		sync.GET("", r.Sync.Status)
		sync.GET("/logs", r.Sync.ListLogs)
		sync.GET("/logs/:id", r.Sync.GetLog)

		protected.GET("/inventory/stats", r.Inventory.Stats)

		// Path kept for existing cron configurations
		legacy := router.Group("/api/scrape", r.Auth)
		legacy.POST("", r.Sync.Trigger)
		legacy.GET("", r.Sync.Status)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Accept-Encoding",
			"Authorization", "Cache-Control", "X-Requested-With",
			auth.APIKeyHeader, auth.CronSecretHeader,
		},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           corsMaxAgeHours * time.Hour,
	})
}
