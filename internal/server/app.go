// Package server wires configuration, storage, the AI clients and the HTTP
// surface into a runnable application and manages its lifecycle.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dharitri/backend/internal/analysis"
	"github.com/dharitri/backend/internal/events"
	"github.com/dharitri/backend/internal/llm"
	"github.com/dharitri/backend/internal/logging"
	"github.com/dharitri/backend/internal/notify"
	"github.com/dharitri/backend/internal/server/config"
	"github.com/dharitri/backend/internal/server/httpapi"
	"github.com/dharitri/backend/internal/server/pipeline"
	"github.com/dharitri/backend/internal/server/repositories/repomanager"
	"github.com/dharitri/backend/internal/server/services"
	"github.com/dharitri/backend/internal/storage"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	publisher events.Publisher
	server    *httpapi.Server
}

// NewApp opens the database, applies migrations and builds every service.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	return newApp(ctx, cfg, os.Stdout)
}

func newApp(ctx context.Context, cfg *config.Config, logOut io.Writer) (*App, error) {
	logger := logging.New(logOut, cfg.LogFormat, cfg.LogLevel)

	um, err := repomanager.NewRepositoryManager(cfg.DatabaseDriver)
	if err != nil {
		return nil, err
	}

	db, err := repomanager.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := um.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	ai, err := llm.NewClient(ctx, cfg.GoogleAPIKey, cfg.GenerationModel, cfg.EmbeddingModel)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ai client init error: %w", err)
	}

	var archive storage.Archive
	if cfg.ArchiveEnabled() {
		s3, err := storage.NewS3Archive(ctx, storage.Options{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("archive init error: %w", err)
		}
		archive = s3
	}

	publisher, err := events.New(ctx, events.Settings{
		Driver:       cfg.EventsDriver,
		KafkaBrokers: cfg.KafkaBrokers,
		KafkaTopic:   cfg.KafkaTopic,
		SQSQueueURL:  cfg.SQSQueueURL,
		AWSRegion:    cfg.S3Region,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("events init error: %w", err)
	}

	if cfg.DoctorEmail == "" {
		logger.Warn(ctx, "DOCTOR_EMAIL is not set; report notifications will be marked failed")
	}

	us := services.NewUserService(db, um, cfg)
	rs := services.NewReportService(db, um, archive)
	ds := services.NewDietService(analysis.NewDietAdvisor(ai))

	p := pipeline.New(pipeline.Deps{
		DB:        db,
		Repos:     um,
		Embedder:  ai,
		Analyzer:  analysis.NewAnalyzer(ai),
		Sender:    notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SenderEmail, cfg.SenderPassword),
		Recipient: cfg.DoctorEmail,
		Archive:   archive,
		Publisher: publisher,
		Logger:    logger,
	})

	srv := httpapi.NewServer(httpapi.Options{
		Address:         cfg.ListenAddr,
		CORSOrigins:     cfg.CORSOrigins,
		MaxBodyBytes:    cfg.MaxUploadBytes,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          logger,
		Users:           us,
		Reports:         rs,
		Diet:            ds,
		Pipeline:        p,
	})

	return &App{config: cfg, logger: logger, db: db, publisher: publisher, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a termination signal arrives or ctx is cancelled, then
// releases the database and the event publisher.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	if err := app.publisher.Close(); err != nil {
		app.logger.Warn(ctx, "closing event publisher", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "closing database", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
