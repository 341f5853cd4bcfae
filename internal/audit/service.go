// Package audit records who created, deleted and exported what.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/beesmart/beesmart/internal/database/audit"
	"github.com/beesmart/beesmart/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo *audit.Repository
	log  logrus.FieldLogger
	wg   sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository, log logrus.FieldLogger) *Service {
	return &Service{repo: repo, log: log.WithField("component", "audit")}
}

// Log records an audit event synchronously.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background. The request context
// is not used so the write survives the response.
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(context.Background(), event); err != nil {
			s.log.WithError(err).WithField("action", event.Action).Error("failed to log audit event")
		}
	}()
}

// Flush waits for pending background writes.
func (s *Service) Flush() {
	s.wg.Wait()
}

// LogCreate records a new entity.
func (s *Service) LogCreate(userID uint, entityType string, entityID uint, entityName string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventCreate,
		Action:      entityType + "_create",
		Description: "Created " + entityType + ": " + entityName,
		EntityType:  entityType,
		EntityID:    &entityID,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogDelete records a deletion. cascaded lists how many dependent rows
// went with it, keyed by entity type.
func (s *Service) LogDelete(userID uint, entityType string, entityID uint, entityName string, cascaded map[string]int64) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventDelete,
		Action:      entityType + "_delete",
		Description: "Deleted " + entityType + ": " + entityName,
		EntityType:  entityType,
		EntityID:    &entityID,
		Status:      entities.AuditStatusSuccess,
	}
	if len(cascaded) > 0 {
		if b, err := json.Marshal(map[string]any{"cascaded": cascaded}); err == nil {
			event.Metadata = string(b)
		}
	}

	s.LogAsync(event)
}

// LogExport records a workbook export.
func (s *Service) LogExport(userID uint, filename string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventExport,
		Action:      "workbook_export",
		Description: "Exported workbook " + filename,
		Status:      entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogPhoto records a photo upload or removal.
func (s *Service) LogPhoto(userID uint, action, entityType string, entityID uint, key string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventPhoto,
		Action:      entityType + "_photo_" + action,
		Description: fmt.Sprintf("Photo %s for %s %d: %s", action, entityType, entityID, key),
		EntityType:  entityType,
		EntityID:    &entityID,
		Status:      entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID uint, action string, ipAddr, userAgent string, success bool) {
	event := &entities.AuditEvent{
		UserID:    userID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: ipAddr,
		UserAgent: truncate(userAgent, 500),
		Status:    entities.AuditStatusSuccess,
	}
	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// ListEvents retrieves one page of matching events.
func (s *Service) ListEvents(ctx context.Context, f audit.Filter) ([]entities.AuditEvent, int64, error) {
	return s.repo.ListEvents(ctx, f)
}

// DeleteOldEvents removes events older than the retention period.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.DeleteOldEvents(ctx, time.Now().Add(-retention))
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
