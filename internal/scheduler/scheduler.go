package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/beesmart/beesmart/internal/config"
	"github.com/beesmart/beesmart/internal/tasks"
)

// DefaultCleanupSchedule runs the housekeeping tasks daily at 04:30.
const DefaultCleanupSchedule = "30 4 * * *"

// defaultPhotoMinAge keeps recent uploads out of orphan cleanup while their
// photo_ref update may still be in flight.
const defaultPhotoMinAge = 60

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Queue accepts tasks for background execution. *tasks.Client satisfies it.
type Queue interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
}

// Config controls which jobs are scheduled and when.
type Config struct {
	ExportEnabled      bool
	ExportSchedule     string
	ExportDir          string
	CleanupSchedule    string
	AuditRetentionDays int
	PhotoMinAgeMinutes int
}

// FromConfig builds the scheduler settings from the EXPORT_* and AUDIT_*
// settings.
func FromConfig(export config.Export, audit config.Audit) Config {
	return Config{
		ExportEnabled:      export.Enabled,
		ExportSchedule:     export.Schedule,
		ExportDir:          export.Dir,
		CleanupSchedule:    DefaultCleanupSchedule,
		AuditRetentionDays: audit.RetentionDays,
		PhotoMinAgeMinutes: defaultPhotoMinAge,
	}
}

// Scheduler enqueues periodic workbook exports and cleanup tasks.
// The work itself runs on the task queue workers.
type Scheduler struct {
	queue Queue
	cfg   Config
	log   logrus.FieldLogger

	cron           *cron.Cron
	exportEntryID  cron.EntryID
	cleanupEntryID cron.EntryID
	mu             sync.RWMutex
	isRunning      bool
	cancelFunc     context.CancelFunc
}

// New creates a scheduler. Call Start to begin.
func New(queue Queue, cfg Config, log logrus.FieldLogger) *Scheduler {
	if cfg.CleanupSchedule == "" {
		cfg.CleanupSchedule = DefaultCleanupSchedule
	}
	if cfg.PhotoMinAgeMinutes <= 0 {
		cfg.PhotoMinAgeMinutes = defaultPhotoMinAge
	}
	return &Scheduler{
		queue: queue,
		cfg:   cfg,
		log:   log.WithField("component", "scheduler"),
		cron:  cron.New(cron.WithParser(parser)),
	}
}

// ValidateSchedule reports whether schedule is a valid five-field cron
// expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// NextRun returns the first activation of schedule after from.
func NextRun(schedule string, from time.Time) (time.Time, error) {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

// Describe returns a human-readable description of a cron schedule.
func Describe(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "*/30 * * * *":
		return "Every 30 minutes"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	case "0 3 * * *":
		return "Daily at 03:00"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// Start registers the jobs and starts the cron runner. The scheduler stops
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if s.queue == nil {
		return errors.New("scheduler: task queue is required")
	}

	if err := ValidateSchedule(s.cfg.CleanupSchedule); err != nil {
		return fmt.Errorf("invalid cleanup schedule '%s': %w", s.cfg.CleanupSchedule, err)
	}

	exportOn := s.cfg.ExportEnabled && s.cfg.ExportDir != ""
	if s.cfg.ExportEnabled && s.cfg.ExportDir == "" {
		s.log.Warn("Export directory not configured, scheduled exports disabled")
	}
	if exportOn {
		if err := ValidateSchedule(s.cfg.ExportSchedule); err != nil {
			return fmt.Errorf("invalid export schedule '%s': %w", s.cfg.ExportSchedule, err)
		}
		id, err := s.cron.AddFunc(s.cfg.ExportSchedule, func() { s.runExport() })
		if err != nil {
			return fmt.Errorf("failed to schedule export job: %w", err)
		}
		s.exportEntryID = id
	}

	id, err := s.cron.AddFunc(s.cfg.CleanupSchedule, func() { s.runCleanup() })
	if err != nil {
		if exportOn {
			s.cron.Remove(s.exportEntryID)
		}
		return fmt.Errorf("failed to schedule cleanup job: %w", err)
	}
	s.cleanupEntryID = id

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	entry := s.log.WithField("cleanup_schedule", s.cfg.CleanupSchedule)
	if exportOn {
		next, _ := NextRun(s.cfg.ExportSchedule, time.Now())
		entry = entry.WithFields(logrus.Fields{
			"export_schedule": s.cfg.ExportSchedule,
			"export_next_run": next.Format(time.RFC3339),
		})
		entry.Infof("Scheduler started, exports %s", Describe(s.cfg.ExportSchedule))
	} else {
		entry.Info("Scheduler started, scheduled exports disabled")
	}

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for running jobs to finish and stops the cron runner.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	for _, id := range []cron.EntryID{s.exportEntryID, s.cleanupEntryID} {
		if id != 0 {
			s.cron.Remove(id)
		}
	}
	s.exportEntryID, s.cleanupEntryID = 0, 0

	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false

	s.log.Info("Scheduler stopped")
}

// RunNow enqueues an export immediately, regardless of the schedule.
func (s *Scheduler) RunNow() (string, error) {
	if s.cfg.ExportDir == "" {
		return "", errors.New("export directory not configured")
	}
	return s.enqueue(tasks.ExportWorkbookTask{Dir: s.cfg.ExportDir})
}

// IsRunning returns whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextExportTime returns when the next scheduled export will be enqueued,
// or nil when exports are not scheduled.
func (s *Scheduler) NextExportTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || s.exportEntryID == 0 {
		return nil
	}
	t := s.cron.Entry(s.exportEntryID).Next
	if t.IsZero() {
		return nil
	}
	return &t
}

func (s *Scheduler) runExport() string {
	id, err := s.enqueue(tasks.ExportWorkbookTask{Dir: s.cfg.ExportDir})
	if err != nil {
		s.log.WithError(err).Error("Failed to enqueue scheduled export")
		return ""
	}
	s.log.WithField("task_id", id).Info("Scheduled export enqueued")
	return id
}

// runCleanup enqueues the housekeeping tasks and returns their ids.
func (s *Scheduler) runCleanup() []string {
	var ids []string
	if s.cfg.AuditRetentionDays > 0 {
		id, err := s.enqueue(tasks.CleanupAuditEventsTask{RetentionDays: s.cfg.AuditRetentionDays})
		if err != nil {
			s.log.WithError(err).Error("Failed to enqueue audit cleanup")
		} else {
			s.log.WithField("task_id", id).Info("Audit cleanup enqueued")
			ids = append(ids, id)
		}
	}

	id, err := s.enqueue(tasks.CleanupOrphanPhotosTask{MinAgeMinutes: s.cfg.PhotoMinAgeMinutes})
	if err != nil {
		s.log.WithError(err).Error("Failed to enqueue orphan photo cleanup")
		return ids
	}
	s.log.WithField("task_id", id).Info("Orphan photo cleanup enqueued")
	return append(ids, id)
}

func (s *Scheduler) enqueue(task backlite.Task) (string, error) {
	ids, err := s.queue.Add(task).Save()
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", errors.New("no task id returned")
	}
	return ids[0], nil
}
