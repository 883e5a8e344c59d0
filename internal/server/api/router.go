package api

import (
	"winzap/internal/server/config"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupRouter creates and configures the echo router with all routes
// and middleware. uploadsDir is served statically under /uploads so
// cover images can be embedded directly by the front end.
func SetupRouter(handler *Handler, hub *EventHub, cfg *config.Config, uploadsDir string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))
	e.Use(RequestLogger())

	// Rate limiter on the upload endpoint only
	uploadLimiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Health & stats
	e.GET("/api/health", handler.HandleHealth)
	e.GET("/api/stats", handler.HandleStats)
	e.POST("/api/visit", handler.HandleVisit)

	// Catalog
	e.GET("/api/files", handler.HandleListFiles)
	e.GET("/api/files/:id", handler.HandleGetFile)
	e.POST("/api/files/:id/view", handler.HandleView)
	e.GET("/api/files/:id/thumb", handler.HandleThumb)
	e.GET("/api/files/:id/qr", handler.HandleShareQR)

	// Upload (rate-limited) & download
	e.POST("/api/upload", handler.HandleUpload, uploadLimiter.Middleware())
	e.GET("/api/download/:id", handler.HandleDownload)

	// Admin
	e.DELETE("/api/admin/files/:id", handler.HandleAdminDelete)
	e.PUT("/api/admin/files/:id", handler.HandleAdminUpdate)

	// Live updates
	e.GET("/api/events", hub.HandleEvents)

	// Stored covers and payloads
	e.Static("/uploads", uploadsDir)

	return e
}
