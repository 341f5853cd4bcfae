package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/beesmart/beesmart/internal/database"
)

type HealthResponse struct {
	Status        string            `json:"status"`
	Time          string            `json:"time"`
	Version       string            `json:"version,omitempty"`
	Driver        string            `json:"driver,omitempty"`
	SchemaVersion int               `json:"schema_version"`
	Checks        map[string]string `json:"checks"`
}

type HealthController struct {
	db      *database.Database
	version string
}

func NewHealthController(db *database.Database, version string) *HealthController {
	return &HealthController{
		db:      db,
		version: version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"
	health := HealthResponse{
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	// Check database connectivity and that every migration has run
	if h.db != nil {
		health.Driver = h.db.Driver()
		if err := h.db.Ping(ctx); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"

			v, err := h.db.SchemaVersion(ctx)
			switch {
			case err != nil:
				checks["schema"] = "error: " + err.Error()
				status = "unhealthy"
			case v < database.LatestVersion():
				checks["schema"] = "behind: " + strconv.Itoa(v) + " of " + strconv.Itoa(database.LatestVersion())
				status = "unhealthy"
			default:
				checks["schema"] = "ok"
			}
			health.SchemaVersion = v
		}
	} else {
		checks["database"] = "not configured"
	}

	health.Status = status
	health.Checks = checks

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
