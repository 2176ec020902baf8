package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/veritrail/veritrail/internal/app"
	"github.com/veritrail/veritrail/internal/quality/application/subscribers"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/eventbus"
	"github.com/veritrail/veritrail/pkg/config"
)

func newWorkerCmd(cfg *config.Config, container *app.Container, logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the outbox relay worker",
		Long: `Drain the transactional outbox, publishing record events to the event
bus and recording completed status changes in the audit trail. The
standalone veritrail-worker binary does the same job for deployments
that want a separate process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if container == nil {
				return fmt.Errorf("application not initialized - database connection required")
			}
			return runWorker(cmd.Context(), cfg, container, logger)
		},
	}
}

func runWorker(ctx context.Context, cfg *config.Config, container *app.Container, logger *slog.Logger) error {
	logger.Info("starting veritrail worker")

	// In local mode the container already feeds the audit recorder through
	// the in-process bus. With RabbitMQ the worker consumes published
	// events back from the broker on its own queue.
	if container.InProcessEventBus == nil && cfg.RabbitMQURL != "" {
		auditRecorder := subscribers.NewAuditRecorder(container.AuditRepo, logger)
		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:       cfg.RabbitMQURL,
			QueueName: "veritrail.worker",
			Logger:    logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create RabbitMQ consumer: %w", err)
		}
		consumer.RegisterConsumer(auditRecorder)
		defer consumer.Close()

		go func() {
			if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error("RabbitMQ consumer stopped", "error", err)
			}
		}()
	}

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

	statsTicker := time.NewTicker(cfg.OutboxStatsInterval)
	defer statsTicker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-statsTicker.C:
				stats := container.OutboxProcessor.GetStats()
				logger.Info("outbox stats",
					"running", stats.IsRunning,
					"published", stats.PublishedCount,
					"failed", stats.FailedCount,
					"dead", stats.DeadCount,
					"lag_seconds", stats.LagSeconds,
					"oldest_message_at", stats.OldestMessageAt,
					"last_processed_at", stats.LastProcessedAt,
					"last_error_at", stats.LastErrorAt,
					"last_error", stats.LastError,
				)
			}
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down worker")

	container.OutboxProcessor.Stop()
	logger.Info("worker stopped")
	return nil
}
