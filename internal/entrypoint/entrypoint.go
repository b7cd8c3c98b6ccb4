package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booklet/internal/audit"
	"github.com/mrlokans/booklet/internal/backup"
	"github.com/mrlokans/booklet/internal/config"
	"github.com/mrlokans/booklet/internal/database"
	"github.com/mrlokans/booklet/internal/database/books"
	http_controllers "github.com/mrlokans/booklet/internal/http"
	"github.com/mrlokans/booklet/internal/lifecycle"
	"github.com/mrlokans/booklet/internal/scheduler"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App holds the wired components for one database file. The HTTP server
// and every CLI command build one through Open.
type App struct {
	Config    *config.Config
	DB        *database.Database
	Books     *books.Repository
	Engine    *lifecycle.Engine
	Backups   *backup.Manager
	Journal   *audit.Journal
	Scheduler *scheduler.BackupScheduler
}

// Open connects to the configured database and builds the components on
// top of it. The scheduler is created but not started.
func Open(cfg *config.Config) (*App, error) {
	db, err := database.NewDatabase(cfg.Database.Path, database.WithLogLevel(cfg.Database.GormLogLevel()))
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Database.Path, err)
	}

	manager := backup.NewManager(db, backup.WithExtension(cfg.Backup.Extension))
	journal := audit.NewJournal(cfg.Audit.Dir)

	return &App{
		Config:  cfg,
		DB:      db,
		Books:   books.NewRepository(db),
		Engine:  lifecycle.NewEngine(db),
		Backups: manager,
		Journal: journal,
		Scheduler: scheduler.NewBackupScheduler(manager, journal, scheduler.BackupConfig{
			Enabled:   cfg.Backup.ScheduleEnabled,
			Schedule:  cfg.Backup.Schedule,
			Dir:       cfg.Backup.Dir,
			Retention: cfg.Backup.Retention,
		}),
	}, nil
}

// Close stops the scheduler and closes the database.
func (a *App) Close() error {
	a.Scheduler.Stop()
	return a.DB.Close()
}

// Router builds the HTTP router for the app.
func (a *App) Router(version string) *gin.Engine {
	routerCfg := http_controllers.RouterConfig{
		Database:  a.DB,
		Books:     a.Books,
		Lifecycle: a.Engine,
		Backups:   a.Backups,
		BackupDir: a.Config.Backup.Dir,
		Journal:   a.Journal,
		Version:   version,
	}
	if a.Scheduler.Config().Enabled {
		routerCfg.BackupSchedule = a.Scheduler
	}
	return http_controllers.NewRouter(routerCfg)
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Stop background work after in-flight requests have drained
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) error {
	log.Printf("Starting Booklet v%s", version)
	gin.SetMode(cfg.HTTP.GinMode)

	app, err := Open(cfg)
	if err != nil {
		return err
	}
	log.Printf("Database: %s", cfg.Database.Path)
	log.Printf("Backups: %s (extension %s)", cfg.Backup.Dir, app.Backups.Extension())
	if !app.Journal.Enabled() {
		log.Printf("Backup journal disabled (AUDIT_DIR is empty)")
	}

	schedulerCtx, cancelScheduler := context.WithCancel(context.Background())
	defer cancelScheduler()
	if err := app.Scheduler.Start(schedulerCtx); err != nil {
		log.Printf("Warning: failed to start backup scheduler: %v", err)
	}

	onShutdown := func(ctx context.Context) {
		cancelScheduler()
		if err := app.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}

	Serve(app.Router(version), cfg, onShutdown)
	return nil
}
