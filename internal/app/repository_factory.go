package app

import (
	"fmt"

	"github.com/veritrail/veritrail/internal/quality/domain/audit"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
	"github.com/veritrail/veritrail/internal/quality/infrastructure/persistence"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/database"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/outbox"
)

// RepositoryFactory creates repositories based on the database driver.
type RepositoryFactory struct {
	conn   database.Connection
	driver database.Driver
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{
		conn:   conn,
		driver: conn.Driver(),
	}
}

// RecordRepository creates a record repository for the configured driver.
func (f *RepositoryFactory) RecordRepository() (record.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return persistence.NewPostgresRecordRepository(f.conn), nil
	case database.DriverSQLite:
		return persistence.NewSQLiteRecordRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// AuditRepository creates an audit repository for the configured driver.
func (f *RepositoryFactory) AuditRepository() (audit.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return persistence.NewPostgresAuditRepository(f.conn), nil
	case database.DriverSQLite:
		return persistence.NewSQLiteAuditRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// OutboxRepository creates an outbox repository for the configured driver.
func (f *RepositoryFactory) OutboxRepository() (outbox.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return outbox.NewPostgresRepository(f.conn), nil
	case database.DriverSQLite:
		return outbox.NewSQLiteRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// Driver returns the database driver type.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}

// Connection returns the underlying database connection.
func (f *RepositoryFactory) Connection() database.Connection {
	return f.conn
}
