// Package server initializes and runs the transcription backend: it opens
// the database, applies migrations, wires services to the pipeline worker
// and starts the HTTP server, handling graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/medvoice/medvoice/internal/logging"
	"github.com/medvoice/medvoice/internal/server/archive"
	"github.com/medvoice/medvoice/internal/server/auth"
	"github.com/medvoice/medvoice/internal/server/config"
	"github.com/medvoice/medvoice/internal/server/httpapi"
	"github.com/medvoice/medvoice/internal/server/pipeline"
	"github.com/medvoice/medvoice/internal/server/recordings"
	"github.com/medvoice/medvoice/internal/server/repositories/repomanager"
	"github.com/medvoice/medvoice/internal/server/storage"
	"github.com/medvoice/medvoice/internal/server/transcribe"
	"github.com/medvoice/medvoice/internal/server/users"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	worker     *pipeline.Worker
	httpServer *httpapi.HTTPServer
}

func NewApp(c *config.Config) (*App, error) {

	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store := storage.NewStore(c.AudioStoragePath)
	transcriber := transcribe.New(c)

	var archiver *archive.S3Archiver
	if c.S3Enabled {
		archiver = archive.NewS3Archiver(c)
	}

	// interface values stay nil unless archival is configured
	var pipelineArchiver pipeline.Archiver
	var presigner recordings.AudioPresigner
	if archiver != nil {
		pipelineArchiver = archiver
		presigner = archiver
	}

	pipelineService := pipeline.NewService(db, rm, store, transcriber, pipelineArchiver, logger)
	worker := pipeline.NewWorker(pipelineService, c.PipelineQueueSize, logger)

	verifier := auth.NewGoogleVerifier(c.GoogleClientID)
	userService := users.NewService(db, rm, verifier, c, logger)
	recordingService := recordings.NewService(db, rm, store, worker, presigner, c, logger)

	httpServer := httpapi.NewHTTPServer(c, logger, userService, recordingService)

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		worker:     worker,
		httpServer: httpServer,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	app.worker.Start(ctx)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpServer.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()
	app.worker.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
