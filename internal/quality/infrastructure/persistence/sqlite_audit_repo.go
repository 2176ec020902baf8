package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/veritrail/veritrail/internal/quality/domain/audit"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/database"
)

// SQLiteAuditRepository implements audit.Repository using SQLite.
type SQLiteAuditRepository struct {
	conn database.Connection
}

// NewSQLiteAuditRepository creates a new SQLite audit repository.
func NewSQLiteAuditRepository(conn database.Connection) *SQLiteAuditRepository {
	return &SQLiteAuditRepository{conn: conn}
}

// Append stores one audit entry.
func (r *SQLiteAuditRepository) Append(ctx context.Context, entry audit.Entry) error {
	query := `
		INSERT INTO quality_audit_log (
			id, record_id, kind, from_status, to_status, actor, comment, occurred_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, query,
		entry.ID.String(),
		entry.RecordID.String(),
		entry.Kind.String(),
		entry.FromStatus.String(),
		entry.ToStatus.String(),
		entry.Actor,
		entry.Comment,
		sqliteTime(entry.OccurredAt),
	)
	return err
}

// FindByRecordID retrieves a record's audit entries, oldest first.
func (r *SQLiteAuditRepository) FindByRecordID(ctx context.Context, recordID uuid.UUID) ([]audit.Entry, error) {
	query := `
		SELECT id, record_id, kind, from_status, to_status, actor, comment, occurred_at
		FROM quality_audit_log
		WHERE record_id = ?
		ORDER BY occurred_at
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, recordID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var (
			entry      audit.Entry
			id         string
			rid        string
			kind       string
			from       string
			to         string
			occurredAt string
		)
		if err := rows.Scan(
			&id,
			&rid,
			&kind,
			&from,
			&to,
			&entry.Actor,
			&entry.Comment,
			&occurredAt,
		); err != nil {
			return nil, err
		}

		if entry.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("audit entry: bad id: %w", err)
		}
		if entry.RecordID, err = uuid.Parse(rid); err != nil {
			return nil, fmt.Errorf("audit entry %s: bad record_id: %w", id, err)
		}
		entry.Kind = lifecycle.Kind(kind)
		entry.FromStatus = lifecycle.Status(from)
		entry.ToStatus = lifecycle.Status(to)
		if entry.OccurredAt, err = parseSQLiteTime(occurredAt); err != nil {
			return nil, fmt.Errorf("audit entry %s: bad occurred_at: %w", id, err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
