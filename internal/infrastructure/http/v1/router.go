// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"charterbooks/internal/infrastructure/http/v1/handlers"
	"charterbooks/internal/infrastructure/http/v1/middleware"
	"charterbooks/pkg/logger"
)

// RouterConfig holds the router dependencies.
type RouterConfig struct {
	// Database backs the health checks
	Database handlers.DatabaseProbe

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Documents runs the document lifecycle
	Documents handlers.DocumentService

	// Rates resolves exchange rates for the rate lookup endpoint
	Rates handlers.RateService

	// Version is reported by /health/info
	Version string

	// Development switches gin to debug mode
	Development bool
}

// NewRouter creates and configures the gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	if cfg.Database != nil {
		healthHandler := handlers.NewHealthHandler(cfg.Database, cfg.Version)
		health := router.Group("/health")
		{
			health.GET("/live", healthHandler.Live)
			health.GET("/ready", healthHandler.Ready)
			health.GET("/info", healthHandler.Info)
		}
	}

	protected := router.Group("/api/v1")
	protected.Use(middleware.Auth(cfg.JWTValidator))
	{
		documentHandler := handlers.NewDocumentHandler(cfg.Documents)
		RegisterDocumentRoutes(protected.Group("/documents/:kind"), documentHandler)
		protected.POST("/calculate", documentHandler.Calculate)

		if cfg.Rates != nil {
			fxHandler := handlers.NewFxHandler(cfg.Rates)
			protected.GET("/fx-rates", fxHandler.Get)
		}
	}

	return router
}
