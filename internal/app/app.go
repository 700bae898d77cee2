package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"path/filepath"

	"event-reports/internal/adapters/archive"
	"event-reports/internal/adapters/auth/remote"
	"event-reports/internal/adapters/auth/static"
	"event-reports/internal/adapters/mail"
	mem "event-reports/internal/adapters/storage/memory"
	pg "event-reports/internal/adapters/storage/postgres"
	rdb "event-reports/internal/adapters/storage/redis"
	"event-reports/internal/config"
	"event-reports/internal/domain/events"
	"event-reports/internal/domain/reports"
	"event-reports/internal/platform/logger"
	"event-reports/internal/ports/auth"
	"event-reports/internal/router"

	goredis "github.com/redis/go-redis/v9"
)

// App agrupa las dependencias ya armadas a partir de la config.
type App struct {
	Config       config.Config
	Events       events.Repository
	Orchestrator *reports.Orchestrator
	Sweeper      *archive.Sweeper
	Verifier     auth.Verifier

	log   logger.Logger
	db    *sql.DB
	redis *goredis.Client
}

type buildOptions struct {
	notifier reports.Notifier
}

type Option func(*buildOptions)

// WithNotifier reemplaza el dispatcher de email (ej: CLI sin destinatario).
func WithNotifier(n reports.Notifier) Option {
	return func(o *buildOptions) { o.notifier = n }
}

// Build abre los stores y arma el pipeline de reportes. Close libera lo abierto.
func Build(ctx context.Context, cfg config.Config, log logger.Logger, opts ...Option) (*App, error) {
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}
	log = logger.OrNop(log)

	a := &App{Config: cfg, log: log}

	if err := a.openEvents(ctx); err != nil {
		a.Close()
		return nil, err
	}

	if err := a.buildVerifier(); err != nil {
		a.Close()
		return nil, err
	}

	jobs, err := a.openJobs(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	publishDir := cfg.Reports.Dir
	publisher, err := a.publisher(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	arch, err := archive.New(archive.Options{
		ScratchDir: filepath.Join(cfg.Reports.ScratchDir, "event-reports"),
		PublishDir: publishDir,
		Publisher:  publisher,
		Log:        log,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	notifier := bo.notifier
	if notifier == nil {
		sender, err := a.sender(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		d, err := mail.NewDispatcher(mail.Options{
			Sender:    sender,
			FromEmail: cfg.Mail.From,
			Retention: cfg.Reports.Retention,
			Log:       log,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		notifier = d
	}

	a.Orchestrator = reports.NewOrchestrator(reports.Options{
		Events:       a.Events,
		Archiver:     arch,
		Notifier:     notifier,
		Jobs:         jobs,
		Log:          log,
		MaxRows:      cfg.Reports.MaxRows,
		StageTimeout: cfg.Reports.StageTimeout,
		Workers:      cfg.Reports.Workers,
		QueueSize:    cfg.Reports.QueueSize,
	})
	a.Sweeper = archive.NewSweeper(publishDir, cfg.Reports.Retention, log)

	return a, nil
}

// Router monta la API HTTP sobre las dependencias del App.
func (a *App) Router() http.Handler {
	reportsDir := ""
	if a.Config.Reports.S3Bucket == "" {
		reportsDir = a.Config.Reports.Dir
	}
	return router.NewRouter(router.Options{
		Events:        a.Events,
		Reports:       a.Orchestrator,
		ReportsDir:    reportsDir,
		ExportMaxRows: a.Config.Reports.ExportMaxRows,
		Verifier:      a.Verifier,
		Log:           a.log,
	})
}

// Close drena los jobs en curso y cierra las conexiones.
func (a *App) Close() {
	if a.Orchestrator != nil {
		a.Orchestrator.Shutdown()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("redis close failed", map[string]any{"err": err})
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("postgres close failed", map[string]any{"err": err})
		}
	}
}

func (a *App) openEvents(ctx context.Context) error {
	dsn := a.Config.Storage.DatabaseURL
	if dsn == config.MemoryDSN {
		a.log.Warn("using in-memory event store", nil)
		a.Events = mem.NewEventRepo()
		return nil
	}

	db, err := pg.Open(dsn)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	a.db = db
	if err := pg.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	a.Events = pg.NewEventsRepo(db)
	return nil
}

func (a *App) buildVerifier() error {
	cfg := a.Config.Auth
	if cfg.VerifyURL == "" {
		a.Verifier = static.NewVerifier(map[string]string{cfg.User: cfg.Password})
		return nil
	}
	v, err := remote.NewVerifier(remote.Config{BaseURL: cfg.VerifyURL, APIKey: cfg.APIKey})
	if err != nil {
		return fmt.Errorf("auth verifier: %w", err)
	}
	a.Verifier = v
	return nil
}

func (a *App) openJobs(ctx context.Context) (reports.JobStore, error) {
	url := a.Config.Storage.RedisURL
	if url == "" {
		return mem.NewJobsRepo(a.Config.Reports.Retention), nil
	}

	client, err := rdb.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	a.redis = client
	return rdb.NewJobsRepo(client, a.Config.Reports.Retention), nil
}

func (a *App) publisher(ctx context.Context) (archive.Publisher, error) {
	cfg := a.Config
	if cfg.Reports.S3Bucket == "" {
		return archive.NewLocalPublisher(cfg.Server.PublicBaseURL), nil
	}
	return archive.NewS3Publisher(ctx, archive.S3Options{
		Bucket:          cfg.Reports.S3Bucket,
		Prefix:          cfg.Reports.S3Prefix,
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		LinkTTL:         cfg.Reports.Retention,
	})
}

func (a *App) sender(ctx context.Context) (mail.Sender, error) {
	cfg := a.Config
	switch cfg.Mail.Provider {
	case "ses":
		return mail.NewSESSender(ctx, mail.SESOptions{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
		})
	case "sendgrid":
		return mail.NewSendGridSender(cfg.Mail.SendGridAPIKey, cfg.Mail.SendGridURL)
	default:
		return mail.NewLogSender(a.log), nil
	}
}
