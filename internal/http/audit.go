package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/beesmart/beesmart/internal/auth"
	"github.com/beesmart/beesmart/internal/database/audit"
	"github.com/beesmart/beesmart/internal/entities"
)

// AuditLister reads the audit trail. audit.Service satisfies it.
type AuditLister interface {
	ListEvents(ctx context.Context, f audit.Filter) ([]entities.AuditEvent, int64, error)
}

type AuditController struct {
	events AuditLister
	log    logrus.FieldLogger
}

func NewAuditController(events AuditLister, log logrus.FieldLogger) *AuditController {
	return &AuditController{
		events: events,
		log:    log.WithField("controller", "audit"),
	}
}

func (ac *AuditController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/audit", ac.GetAuditEvents)
	group.GET("/audit/types", ac.EventTypes)
}

// GetAuditEvents returns paginated audit events as JSON. Signed-in users
// see their own events; in single-user mode every event is visible.
// GET /api/audit?type=&entity_type=&entity_id=&page=&limit=
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	page, limit := parsePage(c, 25, 100)
	entityID, ok := parseQueryID(c, "entity_id")
	if !ok {
		return
	}

	f := audit.Filter{
		UserID:     auth.GetUserID(c),
		EventType:  entities.AuditEventType(c.Query("type")),
		EntityType: c.Query("entity_type"),
		EntityID:   entityID,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}

	events, total, err := ac.events.ListEvents(c.Request.Context(), f)
	if err != nil {
		respondInternalError(c, ac.log, err, "list audit events")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:       events,
		Total:      total,
		Limit:      limit,
		Offset:     f.Offset,
		HasMore:    int64(f.Offset+len(events)) < total,
		TotalPages: totalPages(total, limit),
	})
}

type EventTypeOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// EventTypes lists the values accepted by the type filter.
// GET /api/audit/types
func (ac *AuditController) EventTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"types": []EventTypeOption{
		{Value: "", Label: "All Events"},
		{Value: string(entities.AuditEventCreate), Label: "Create"},
		{Value: string(entities.AuditEventDelete), Label: "Delete"},
		{Value: string(entities.AuditEventExport), Label: "Export"},
		{Value: string(entities.AuditEventPhoto), Label: "Photo"},
		{Value: string(entities.AuditEventAuth), Label: "Authentication"},
	}})
}
