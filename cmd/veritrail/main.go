package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veritrail/veritrail/adapter/cli"
	"github.com/veritrail/veritrail/adapter/cli/record"
	"github.com/veritrail/veritrail/internal/app"
	"github.com/veritrail/veritrail/pkg/config"
)

func main() {
	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// In development without .env, use defaults
		logger.Warn("failed to load config, using development mode", "error", err)
		cfg = &config.Config{Environment: "development"}
	}

	// Update logger level based on config
	if cfg.IsDevelopment() {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	cli.SetLogger(logger)

	// Try to initialize the full container
	var cliApp *cli.App
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if cfg.IsDevelopment() {
			logger.Warn("failed to initialize container, running in limited mode", "error", err)
			// In development, allow CLI to run without database
			cliApp = nil
		} else {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
	} else {
		defer container.Close()

		// Drain this invocation's events into the audit trail on exit;
		// anything left over is picked up by the next run or the worker.
		if cfg.OutboxProcessorEnabled {
			defer flushOutbox(container)
		} else {
			logger.Info("outbox processor disabled in CLI")
		}

		// Create CLI app with handlers
		cliApp = cli.NewApp(
			container.CreateRecordHandler,
			container.UpdateRecordHandler,
			container.DeleteRecordHandler,
			container.TransitionRecordHandler,
			container.SupplierResponseHandler,
			container.ListRecordsHandler,
			container.GetRecordHandler,
			container.GetTimelineHandler,
			container.GetAuditTrailHandler,
			container.ExportRegisterHandler,
		)
		cliApp.SetDefaultActor(cfg.Actor)
	}

	// Set the CLI app
	cli.SetApp(cliApp)

	// Register commands
	cli.AddCommand(record.Cmd)
	cli.AddCommand(newServeCmd(cfg, container, logger))
	cli.AddCommand(newWorkerCmd(cfg, container, logger))
	cli.AddCommand(newMigrateCmd(cfg, logger))

	// Execute CLI
	cli.ExecuteContext(ctx)
}

// flushOutbox uses its own deadline because main's context is already
// cancelled when a signal ended a serve or worker run.
func flushOutbox(container *app.Container) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := container.OutboxProcessor.ProcessOnce(ctx); err != nil {
		container.Logger.Warn("failed to flush outbox", "error", err)
	}
}
