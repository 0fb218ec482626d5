package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cesargomez89/discosync/internal/config"
	"github.com/cesargomez89/discosync/internal/constants"
	"github.com/cesargomez89/discosync/internal/convert"
	"github.com/cesargomez89/discosync/internal/dispatcher"
	httpapp "github.com/cesargomez89/discosync/internal/http"
	"github.com/cesargomez89/discosync/internal/importer"
	"github.com/cesargomez89/discosync/internal/logger"
	"github.com/cesargomez89/discosync/internal/reconcile"
	"github.com/cesargomez89/discosync/internal/store"
	"github.com/cesargomez89/discosync/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize Logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTELEndpoint)
	if err != nil {
		appLogger.Error("Failed to init tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(tctx); err != nil {
			appLogger.Error("Failed to flush traces", "error", err)
		}
	}()

	// Initialize DB
	db, err := store.NewSQLiteDB(cfg.DBPath, constants.WatchedCollections...)
	if err != nil {
		appLogger.Error("Failed to init DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Reconcilers and change dispatch
	reconciler := reconcile.New(reconcile.Store(db), appLogger, reconcile.Options{
		DiscographyID:     cfg.DiscographyID,
		CascadeSongDelete: cfg.CascadeSongDelete,
	})

	d := dispatcher.NewDispatcher()
	d.RegisterReconciler(reconciler)

	w := dispatcher.NewWorker(db, d, appLogger)
	w.MaxConcurrent = cfg.DispatchConcurrency
	w.PollInterval = cfg.DispatchPollInterval
	w.BatchSize = cfg.DispatchBatchSize
	w.MaxAttempts = cfg.DispatchMaxAttempts
	w.Start()
	defer w.Stop()

	// Import directory
	importDone := make(chan struct{})
	if cfg.ImportDir != "" {
		if err := os.MkdirAll(cfg.ImportDir, constants.DirPermissions); err != nil {
			appLogger.Error("Failed to create import directory", "dir", cfg.ImportDir, "error", err)
			os.Exit(1)
		}
		im := importer.New(cfg.ImportDir, db, appLogger)
		im.QuietPeriod = cfg.ImportQuietPeriod
		go func() {
			defer close(importDone)
			if err := im.Run(ctx); err != nil {
				appLogger.Error("Importer stopped", "error", err)
			}
		}()
	} else {
		close(importDone)
	}

	// Optional simplified-script reads
	var converter convert.TextConverter
	if cfg.OpenCCEnabled {
		converter, err = convert.NewOpenCC(appLogger)
		if err != nil {
			appLogger.Error("Failed to init OpenCC converter", "error", err)
			os.Exit(1)
		}
	}

	// Routes
	h := httpapp.NewHandler(db, converter, appLogger)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httpapp.NewRouter(h),
	}

	go func() {
		appLogger.Info("Server listening", "addr", srv.Addr, "discography_id", cfg.DiscographyID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Server error", "error", err)
			stop()
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()

	appLogger.Info("Shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
	}
	<-importDone

	appLogger.Info("Server exiting")
}
