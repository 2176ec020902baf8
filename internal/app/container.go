// Package app wires configuration, infrastructure, and handlers into a
// running application.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/veritrail/veritrail/internal/quality/application/commands"
	"github.com/veritrail/veritrail/internal/quality/application/queries"
	"github.com/veritrail/veritrail/internal/quality/application/subscribers"
	"github.com/veritrail/veritrail/internal/quality/domain/audit"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
	"github.com/veritrail/veritrail/internal/quality/infrastructure/approvals"
	"github.com/veritrail/veritrail/internal/quality/infrastructure/recordlock"
	sharedApplication "github.com/veritrail/veritrail/internal/shared/application"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/database"
	_ "github.com/veritrail/veritrail/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/veritrail/veritrail/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/veritrail/veritrail/internal/shared/infrastructure/eventbus"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/migrations"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/outbox"
	"github.com/veritrail/veritrail/pkg/config"
	"github.com/veritrail/veritrail/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics observability.Metrics

	// Database
	Conn     database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client

	// Repositories
	RecordRepo record.Repository
	AuditRepo  audit.Repository
	OutboxRepo outbox.Repository

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Publishers. InProcessEventBus is set only when no RabbitMQ URL is
	// configured; it then doubles as the EventPublisher.
	EventPublisher    eventbus.Publisher
	InProcessEventBus *eventbus.InProcessEventBus

	// Transition collaborators
	Gate   commands.ApprovalGate
	Locker commands.RecordLocker

	// Event Subscribers
	AuditRecorder *subscribers.AuditRecorder

	// Outbox Processor
	OutboxProcessor *outbox.Processor

	// Health
	Health *observability.HealthRegistry

	// Record Command Handlers
	CreateRecordHandler     *commands.CreateRecordHandler
	UpdateRecordHandler     *commands.UpdateRecordHandler
	DeleteRecordHandler     *commands.DeleteRecordHandler
	TransitionRecordHandler *commands.TransitionRecordHandler
	SupplierResponseHandler *commands.RecordSupplierResponseHandler

	// Record Query Handlers
	ListRecordsHandler    *queries.ListRecordsHandler
	GetRecordHandler      *queries.GetRecordHandler
	GetTimelineHandler    *queries.GetTimelineHandler
	GetAuditTrailHandler  *queries.GetAuditTrailHandler
	ExportRegisterHandler *queries.ExportRegisterHandler
}

// NewContainer creates and wires all dependencies. The database driver
// comes from configuration; an empty DATABASE_URL selects local SQLite, so
// the binary runs with zero external services.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
	}

	// Connect to the database
	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.Driver(cfg.DatabaseDriver),
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.Conn = conn
	c.DBDriver = conn.Driver()
	logger.Info("connected to database", "driver", c.DBDriver)

	// Apply schema migrations
	if err := migrations.Run(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Connect to Redis (optional; without it the transition lock stays in-process)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			if !cfg.IsDevelopment() {
				conn.Close()
				return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			logger.Warn("invalid Redis URL, record locking will use in-process fallback", "error", err)
		} else {
			redisClient := redis.NewClient(opt)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				if !cfg.IsDevelopment() {
					conn.Close()
					return nil, fmt.Errorf("failed to connect to Redis: %w", err)
				}
				logger.Warn("Redis not available, record locking will use in-process fallback", "error", err)
			} else {
				c.RedisClient = redisClient
				logger.Info("connected to Redis")
			}
		}
	}

	// Create repositories
	factory := NewRepositoryFactory(conn)

	recordRepo, err := factory.RecordRepository()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create record repository: %w", err)
	}
	c.RecordRepo = recordRepo

	auditRepo, err := factory.AuditRepository()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create audit repository: %w", err)
	}
	c.AuditRepo = auditRepo

	outboxRepo, err := factory.OutboxRepository()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create outbox repository: %w", err)
	}
	c.OutboxRepo = outboxRepo

	c.UnitOfWork = database.NewUnitOfWork(conn)

	// Create event publisher. With RabbitMQ the worker consumes the events;
	// without it an in-process bus feeds the subscribers directly.
	eventMode := "in-process"
	if cfg.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			if !cfg.IsDevelopment() {
				conn.Close()
				return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			logger.Warn("RabbitMQ not available, using noop publisher")
			c.EventPublisher = eventbus.NewNoopPublisher(logger)
			eventMode = "noop"
		} else {
			c.EventPublisher = eventbus.NewBreakerPublisher(publisher, eventbus.DefaultBreakerConfig(), logger)
			eventMode = "rabbitmq"
		}
	} else {
		c.InProcessEventBus = eventbus.NewInProcessEventBus(logger)
		c.EventPublisher = c.InProcessEventBus
	}

	// Create transition lock: Redis when available, otherwise per-process.
	if c.RedisClient != nil {
		c.Locker = recordlock.NewRedisLocker(c.RedisClient, cfg.RecordLockTTL, logger)
	} else {
		c.Locker = recordlock.NewMemoryLocker()
	}

	// Create approval gate from the configured role table. Development
	// without a table runs open; everywhere else an empty table denies all
	// approval-gated transitions.
	assignments := approvals.ParseAssignments(cfg.RoleAssignments)
	if len(assignments) == 0 && cfg.IsDevelopment() {
		logger.Warn("no role assignments configured, approval-gated transitions are open")
		c.Gate = approvals.NewAllowAllGate()
	} else {
		c.Gate = approvals.NewRoleGate(approvals.NewStaticDirectory(assignments), cfg.ApproverRoles)
	}

	// Create record command handlers
	c.CreateRecordHandler = commands.NewCreateRecordHandler(recordRepo, outboxRepo, c.UnitOfWork)
	c.UpdateRecordHandler = commands.NewUpdateRecordHandler(recordRepo, outboxRepo, c.UnitOfWork)
	c.DeleteRecordHandler = commands.NewDeleteRecordHandler(recordRepo, outboxRepo, c.UnitOfWork)
	c.SupplierResponseHandler = commands.NewRecordSupplierResponseHandler(recordRepo, outboxRepo, c.UnitOfWork)
	c.TransitionRecordHandler = commands.NewTransitionRecordHandler(recordRepo, outboxRepo, c.UnitOfWork, c.Gate, c.Locker)

	// Create record query handlers
	c.ListRecordsHandler = queries.NewListRecordsHandler(recordRepo)
	c.GetRecordHandler = queries.NewGetRecordHandler(recordRepo)
	c.GetTimelineHandler = queries.NewGetTimelineHandler(recordRepo)
	c.GetAuditTrailHandler = queries.NewGetAuditTrailHandler(recordRepo, auditRepo)
	c.ExportRegisterHandler = queries.NewExportRegisterHandler(recordRepo)

	// Register the audit recorder on the in-process bus. In RabbitMQ mode
	// the worker's consumer handles this instead.
	if c.InProcessEventBus != nil {
		c.AuditRecorder = subscribers.NewAuditRecorder(auditRepo, logger)
		c.InProcessEventBus.RegisterConsumer(c.AuditRecorder)
	}

	// Create outbox processor
	processorConfig := outbox.ProcessorConfig{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		MaxRetries:   cfg.OutboxMaxRetries,
	}
	c.OutboxProcessor = outbox.NewProcessor(outboxRepo, c.EventPublisher, processorConfig, logger, c.Metrics)

	// Register health checks
	c.Health = observability.NewHealthRegistry()
	c.Health.Register("database", observability.DatabaseHealthChecker(conn.Ping))
	if c.RedisClient != nil {
		c.Health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
			return c.RedisClient.Ping(ctx).Err()
		}))
	}

	logger.Info("container initialized",
		"driver", c.DBDriver,
		"events", eventMode,
	)

	return c, nil
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		}
	}

	if c.Conn != nil {
		if err := c.Conn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed")
		}
	}
}
