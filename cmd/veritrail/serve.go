package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/veritrail/veritrail/adapter/api"
	"github.com/veritrail/veritrail/adapter/ws"
	"github.com/veritrail/veritrail/internal/app"
	"github.com/veritrail/veritrail/internal/quality/application/subscribers"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/eventbus"
	"github.com/veritrail/veritrail/pkg/config"
)

func newServeCmd(cfg *config.Config, container *app.Container, logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Serve the quality record API over HTTP and stream record changes to
websocket clients. Unless a dedicated worker owns the outbox, the server
drains it in-process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if container == nil {
				return fmt.Errorf("application not initialized - database connection required")
			}
			return runServer(cmd.Context(), cfg, container, logger)
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config, container *app.Container, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Info("starting veritrail server", "addr", cfg.HTTPAddr)

	// Live change feed for websocket clients. In local mode the in-process
	// bus carries record events; with RabbitMQ the server consumes them
	// back from the broker on its own queue.
	hub := ws.NewHub(logger)
	broadcaster := subscribers.NewChangeBroadcaster(hub, logger)
	if container.InProcessEventBus != nil {
		container.InProcessEventBus.RegisterConsumer(broadcaster)
	} else if cfg.RabbitMQURL != "" {
		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:       cfg.RabbitMQURL,
			QueueName: "veritrail.server",
			Logger:    logger,
		})
		if err != nil {
			if cfg.IsDevelopment() {
				logger.Warn("RabbitMQ not available, live record updates disabled", "error", err)
			} else {
				return fmt.Errorf("failed to create RabbitMQ consumer: %w", err)
			}
		} else {
			consumer.RegisterConsumer(broadcaster)
			defer consumer.Close()

			go func() {
				if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
					logger.Error("RabbitMQ consumer stopped", "error", err)
				}
			}()
		}
	}

	// Drain the outbox in-process unless a dedicated worker owns it.
	if cfg.OutboxProcessorEnabled {
		logger.Info("starting outbox processor",
			"poll_interval", cfg.OutboxPollInterval,
			"batch_size", cfg.OutboxBatchSize,
			"max_retries", cfg.OutboxMaxRetries,
		)
		if err := container.OutboxProcessor.Start(ctx); err != nil {
			return fmt.Errorf("failed to start outbox processor: %w", err)
		}

		cleanupTicker := time.NewTicker(cfg.OutboxCleanupInterval)
		defer cleanupTicker.Stop()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-cleanupTicker.C:
					deleted, err := container.OutboxRepo.DeleteOld(ctx, cfg.OutboxRetentionDays)
					if err != nil {
						logger.Error("outbox cleanup failed", "error", err)
						continue
					}
					if deleted > 0 {
						logger.Info("outbox cleanup completed", "deleted", deleted, "retention_days", cfg.OutboxRetentionDays)
					}
				}
			}
		}()
	} else {
		logger.Info("outbox processor disabled, expecting a worker to drain the outbox")
	}

	// HTTP API
	handler := api.NewRecordHandler(api.RecordHandlerConfig{
		CreateRecord:     container.CreateRecordHandler,
		UpdateRecord:     container.UpdateRecordHandler,
		DeleteRecord:     container.DeleteRecordHandler,
		TransitionRecord: container.TransitionRecordHandler,
		SupplierResponse: container.SupplierResponseHandler,
		ListRecords:      container.ListRecordsHandler,
		GetRecord:        container.GetRecordHandler,
		GetTimeline:      container.GetTimelineHandler,
		GetAuditTrail:    container.GetAuditTrailHandler,
		ExportRegister:   container.ExportRegisterHandler,
		Metrics:          container.Metrics,
		Logger:           logger,
	})

	serverCfg := api.DefaultServerConfig()
	serverCfg.Addr = cfg.HTTPAddr
	serverCfg.Health = container.Health

	srv := api.NewServer(serverCfg, handler, hub, logger, container.Metrics)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
	return nil
}
