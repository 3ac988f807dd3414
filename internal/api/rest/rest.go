package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/intentscan/bridge-indexer/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes; API-key auth applies only when keys are configured
	v1 := router.Group("/api/v1")
	if authCfg.Enabled() {
		v1.Use(middleware.APIKeyAuth(authCfg))
	}
	{
		// Symbol endpoints
		v1.GET("/symbols", handler.ListSymbols)
		v1.GET("/symbols/:symbol/matrix", handler.GetMatrix)
		v1.GET("/symbols/:symbol/daily", handler.GetDailySeries)
		v1.GET("/symbols/:symbol/stats", handler.GetSymbolStats)

		// Route endpoints
		v1.GET("/routes", handler.ListRoutes)
		v1.GET("/routes/daily", handler.GetRouteDailySeries)
		v1.GET("/routes/slippage", handler.GetRouteSlippage)

		// Overall statistics
		v1.GET("/stats", handler.GetOverallStats)
	}
}
