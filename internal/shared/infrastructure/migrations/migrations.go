// Package migrations applies the embedded schema migrations at startup.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/veritrail/veritrail/internal/shared/infrastructure/database"
)

//go:embed postgres/*.sql
var postgresFS embed.FS

//go:embed sqlite/*.sql
var sqliteFS embed.FS

// Run executes all migrations for the connection's driver, in file order.
// Statements use IF NOT EXISTS so reruns are idempotent.
func Run(ctx context.Context, conn database.Connection) error {
	switch conn.Driver() {
	case database.DriverPostgres:
		return runDir(ctx, conn, postgresFS, "postgres")
	case database.DriverSQLite:
		return runDir(ctx, conn, sqliteFS, "sqlite")
	default:
		return fmt.Errorf("no migrations for driver %q", conn.Driver())
	}
}

func runDir(ctx context.Context, conn database.Connection, fsys embed.FS, dir string) error {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, file := range upFiles {
		migration, err := fsys.ReadFile(dir + "/" + file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		if _, err := conn.Exec(ctx, string(migration)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
	}

	return nil
}
