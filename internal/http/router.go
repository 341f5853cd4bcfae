package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/beesmart/beesmart/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	router := gin.New()
	router.Use(RequestLogger(log))
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	router.Use(auth.StrictTransportSecurityMiddleware())

	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.GinMiddleware())
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Apply session middleware if enabled
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	// Apply auth middleware if enabled
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		// No auth - inject default user ID
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, auth.DefaultUserID)
			c.Set(auth.ContextKeyAuthType, auth.AuthTypeNone)
			c.Next()
		})
	}

	if cfg.Demo != nil {
		router.Use(cfg.Demo.Handler())
	}

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	if cfg.AuthController != nil {
		cfg.AuthController.RegisterRoutes(api.Group("/auth"))
	}

	NewApiariesController(cfg.Apiaries, cfg.Hives, cfg.Overviews, cfg.Auditor, log).RegisterRoutes(api)
	NewHivesController(cfg.Hives, cfg.Overviews, cfg.Auditor, log).RegisterRoutes(api)
	NewInspectionsController(cfg.Inspections, cfg.Overviews, cfg.Auditor, log).RegisterRoutes(api)
	NewProductsController(cfg.Products, cfg.Auditor, log).RegisterRoutes(api)
	NewHarvestsController(cfg.Harvests, cfg.Overviews, cfg.Auditor, log).RegisterRoutes(api)

	// Photo endpoints
	if cfg.Blobs != nil {
		NewPhotosController(cfg.Blobs, cfg.Apiaries, cfg.Hives, cfg.Auditor, cfg.MaxPhotoSize, cfg.PresignTTL, log).RegisterRoutes(api)
	}

	// Export endpoints
	if cfg.Exporter != nil {
		NewExportController(cfg.Exporter, cfg.TaskQueue, cfg.ExportDir, cfg.Auditor, log).RegisterRoutes(api)
	}

	// Audit log endpoints
	if cfg.AuditEvents != nil {
		NewAuditController(cfg.AuditEvents, log).RegisterRoutes(api)
	}

	// Task management endpoints
	if cfg.TaskQueue != nil {
		NewTasksController(cfg.TaskQueue, TaskDefaults{
			ExportDir:          cfg.ExportDir,
			AuditRetentionDays: cfg.AuditRetentionDays,
		}).RegisterRoutes(api)
	}

	return router
}
