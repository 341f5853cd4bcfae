package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	auditsvc "github.com/beesmart/beesmart/internal/audit"
	"github.com/beesmart/beesmart/internal/auth"
	"github.com/beesmart/beesmart/internal/blob"
	"github.com/beesmart/beesmart/internal/config"
	"github.com/beesmart/beesmart/internal/database"
	"github.com/beesmart/beesmart/internal/database/apiaries"
	auditrepo "github.com/beesmart/beesmart/internal/database/audit"
	"github.com/beesmart/beesmart/internal/database/harvests"
	"github.com/beesmart/beesmart/internal/database/hives"
	"github.com/beesmart/beesmart/internal/database/inspections"
	"github.com/beesmart/beesmart/internal/database/products"
	"github.com/beesmart/beesmart/internal/database/users"
	"github.com/beesmart/beesmart/internal/demo"
	"github.com/beesmart/beesmart/internal/exporters"
	http_controllers "github.com/beesmart/beesmart/internal/http"
	"github.com/beesmart/beesmart/internal/metrics"
	"github.com/beesmart/beesmart/internal/scheduler"
	"github.com/beesmart/beesmart/internal/services"
	"github.com/beesmart/beesmart/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Store bundles the database with the repositories and projections built
// on top of it.
type Store struct {
	DB          *database.Database
	Apiaries    *apiaries.Repository
	Hives       *hives.Repository
	Inspections *inspections.Repository
	Products    *products.Repository
	Harvests    *harvests.Repository
	Overviews   *services.OverviewService
}

// OpenStore opens and migrates the configured database and wires the
// repositories. m may be nil.
func OpenStore(cfg config.Database, m *metrics.Metrics, log logrus.FieldLogger) (*Store, error) {
	db, err := database.NewDatabase(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if m != nil {
		if err := db.DB.Use(m.GormPlugin()); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to register metrics plugin: %w", err)
		}
	}

	s := &Store{
		DB:          db,
		Apiaries:    apiaries.NewRepository(db.DB, log),
		Hives:       hives.NewRepository(db.DB, log),
		Inspections: inspections.NewRepository(db.DB, log),
		Products:    products.NewRepository(db.DB, log),
		Harvests:    harvests.NewRepository(db.DB, log),
	}
	s.Overviews = services.NewOverviewService(services.Readers{
		Apiaries:    s.Apiaries,
		Hives:       s.Hives,
		Inspections: s.Inspections,
		Harvests:    s.Harvests,
		Products:    s.Products,
	}, log)
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.DB.Close()
}

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts it down
// within the configured timeout.
func Serve(handler http.Handler, cfg *config.Config, log logrus.FieldLogger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	log.WithField("timeout", timeout).Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener goes away.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("Server exiting")
	return nil
}

// Run wires every component from cfg and serves the API until a shutdown
// signal arrives.
func Run(cfg *config.Config, log *logrus.Logger, version string) error {
	log.WithFields(logrus.Fields{
		"version": version,
		"driver":  cfg.Database.Driver,
	}).Info("Starting Bee-Smart")

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	store, err := OpenStore(cfg.Database, m, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Error("Error closing database")
		}
	}()

	if cfg.Demo.Enabled {
		if err := seedDemo(context.Background(), store, log); err != nil {
			return err
		}
	}

	auditService := auditsvc.NewService(auditrepo.NewRepository(store.DB.DB), log)
	defer auditService.Flush()

	blobs, err := blob.Open(context.Background(), cfg.Blob)
	if err != nil {
		return fmt.Errorf("failed to initialize blob store: %w", err)
	}
	log.WithField("driver", blobs.Driver()).Info("Blob store initialized")

	exporter := exporters.NewWorkbookExporter(store.Overviews, log)

	routerCfg := http_controllers.RouterConfig{
		Log:                log,
		Database:           store.DB,
		Version:            version,
		Apiaries:           store.Apiaries,
		Hives:              store.Hives,
		Inspections:        store.Inspections,
		Products:           store.Products,
		Harvests:           store.Harvests,
		Overviews:          store.Overviews,
		Auditor:            auditService,
		AuditEvents:        auditService,
		Blobs:              blobs,
		MaxPhotoSize:       cfg.Blob.MaxPhotoSize,
		PresignTTL:         cfg.Blob.PresignTTL,
		Exporter:           exporter,
		ExportDir:          cfg.Export.Dir,
		AuditRetentionDays: cfg.Audit.RetentionDays,
		Metrics:            m,
	}
	if cfg.Demo.Enabled {
		log.Warn("Demo mode enabled, write operations will be blocked")
		routerCfg.Demo = demo.NewMiddleware(true)
	}

	// Authentication. No background work is running yet.
	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Info("Authentication mode: local")

		authService := auth.NewService(users.NewRepository(store.DB.DB), cfg.Auth, log)
		sessionManager, err := auth.NewSessionManager(store.DB, cfg.Auth)
		if err != nil {
			return fmt.Errorf("failed to initialize session manager: %w", err)
		}
		rateLimiter := auth.NewRateLimiter(cfg.Auth)
		authController := auth.NewAuthController(authService, sessionManager, rateLimiter, auditService, log)
		defer authController.Stop()

		routerCfg.SessionManager = sessionManager
		routerCfg.AuthMiddleware = auth.NewMiddleware(authService, sessionManager, cfg.Auth)
		routerCfg.AuthController = authController
	} else {
		log.Info("Authentication mode: none (no authentication required)")
	}

	// Task queue and scheduler
	var bg *background
	if cfg.Tasks.Enabled {
		bg, err = startTasks(cfg, store, exporter, auditService, blobs, log)
		if err != nil {
			return err
		}
		defer bg.close()
		routerCfg.TaskQueue = bg.client
	} else {
		log.Warn("Task queue disabled, background exports and cleanup will not run")
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if bg != nil {
			bg.shutdown(ctx)
		}
	}

	return Serve(router, cfg, log, onShutdown)
}

// DemoRepositories exposes the store to the demo data generator.
func (s *Store) DemoRepositories() demo.Repositories {
	return demo.Repositories{
		Apiaries:    s.Apiaries,
		Hives:       s.Hives,
		Inspections: s.Inspections,
		Harvests:    s.Harvests,
		Products:    s.Products,
	}
}

// seedDemo fills an empty store with sample data.
func seedDemo(ctx context.Context, store *Store, log logrus.FieldLogger) error {
	existing, err := store.Apiaries.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for existing data: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	if _, err := demo.Generate(ctx, store.DemoRepositories(), time.Now(), log); err != nil {
		return fmt.Errorf("failed to generate demo data: %w", err)
	}
	return nil
}

// taskQueuePath picks where the queue database lives. Postgres deployments
// keep it next to the default SQLite path.
func taskQueuePath(cfg config.Database) string {
	if cfg.Driver == config.DriverPostgres || cfg.Path == "" {
		return config.DefaultDatabasePath
	}
	return cfg.Path
}

// background is the running task queue and scheduler. cancel stops both.
type background struct {
	client *tasks.Client
	sched  *scheduler.Scheduler
	cancel context.CancelFunc
	log    logrus.FieldLogger
}

// startTasks opens the task queue, registers its processors and starts the
// workers and the scheduler. On error nothing is left running.
func startTasks(cfg *config.Config, store *Store, exporter tasks.WorkbookExporter, auditService *auditsvc.Service, blobs blob.Store, log logrus.FieldLogger) (*background, error) {
	client, err := tasks.NewClient(taskQueuePath(cfg.Database), tasks.FromConfig(cfg.Tasks), log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize task queue: %w", err)
	}
	client.Register(
		tasks.NewExportWorkbookQueue(exporter, auditService, log),
		tasks.NewCleanupAuditEventsQueue(auditService, log),
		tasks.NewCleanupOrphanPhotosQueue(blobs, store.Apiaries, store.Hives, log),
	)

	ctx, cancel := context.WithCancel(context.Background())
	bg := &background{client: client, cancel: cancel, log: log}

	bg.sched = scheduler.New(client, scheduler.FromConfig(cfg.Export, cfg.Audit), log)
	if err := bg.sched.Start(ctx); err != nil {
		bg.close()
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}
	go client.Start(ctx)
	return bg, nil
}

// shutdown drains the workers within ctx.
func (b *background) shutdown(ctx context.Context) {
	b.sched.Stop()
	b.client.Stop(ctx)
	b.cancel()
}

// close cancels the background context and closes the queue database.
func (b *background) close() {
	b.cancel()
	if b.sched != nil {
		b.sched.Stop()
	}
	if err := b.client.Close(); err != nil {
		b.log.WithError(err).Error("Error closing task client")
	}
}
