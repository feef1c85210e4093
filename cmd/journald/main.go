// Package main runs the journal layer daemon: the journal ledger, the access
// policy registry, and their REST API.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	app "github.com/moodvault/journal_layer/internal/app"
	"github.com/moodvault/journal_layer/internal/app/events"
	"github.com/moodvault/journal_layer/internal/app/httpapi"
	"github.com/moodvault/journal_layer/internal/app/storage/postgres"
	"github.com/moodvault/journal_layer/internal/config"
	"github.com/moodvault/journal_layer/internal/platform/migrations"
	"github.com/moodvault/journal_layer/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "journald: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	}).WithField("component", "journald")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var stores app.Stores
	if cfg.Database.DSN != "" {
		db, err := openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		store := postgres.New(db)
		stores = app.Stores{Journals: store, Entries: store, Policies: store}
		log.WithField("driver", cfg.Database.Driver).Info("using postgres store")
	} else {
		log.Warn("DATABASE_URL not set; using in-memory store")
	}

	eventLog := events.NewLog(cfg.Events.BufferSize)
	sink, err := events.NewFileSink(cfg.Events.SinkPath)
	if err != nil {
		return fmt.Errorf("open event sink: %w", err)
	}
	defer sink.Close()
	sink.Attach(eventLog)

	application, err := app.New(stores, eventLog, log)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}
	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("start application: %w", err)
	}
	defer application.Stop(context.Background())

	handler, err := httpapi.NewHandler(application, httpapi.Options{
		JWTSecret:     []byte(cfg.Auth.JWTSecret),
		DevTokens:     cfg.Auth.DevTokens,
		CORSOrigins:   cfg.Auth.CORSOrigins,
		AuditMax:      cfg.Audit.MaxEntries,
		AuditSinkPath: cfg.Audit.SinkPath,
	})
	if err != nil {
		return fmt.Errorf("build handler: %w", err)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("journal layer listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSec)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrations.Apply(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
