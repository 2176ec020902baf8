package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/veritrail/veritrail/internal/quality/domain/audit"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/database"
)

// PostgresAuditRepository implements audit.Repository using PostgreSQL.
type PostgresAuditRepository struct {
	conn database.Connection
}

// NewPostgresAuditRepository creates a new PostgreSQL audit repository.
func NewPostgresAuditRepository(conn database.Connection) *PostgresAuditRepository {
	return &PostgresAuditRepository{conn: conn}
}

// Append stores one audit entry.
func (r *PostgresAuditRepository) Append(ctx context.Context, entry audit.Entry) error {
	query := `
		INSERT INTO quality_audit_log (
			id, record_id, kind, from_status, to_status, actor, comment, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, query,
		entry.ID,
		entry.RecordID,
		entry.Kind.String(),
		entry.FromStatus.String(),
		entry.ToStatus.String(),
		entry.Actor,
		entry.Comment,
		entry.OccurredAt,
	)
	return err
}

// FindByRecordID retrieves a record's audit entries, oldest first.
func (r *PostgresAuditRepository) FindByRecordID(ctx context.Context, recordID uuid.UUID) ([]audit.Entry, error) {
	query := `
		SELECT id, record_id, kind, from_status, to_status, actor, comment, occurred_at
		FROM quality_audit_log
		WHERE record_id = $1
		ORDER BY occurred_at
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var (
			entry audit.Entry
			kind  string
			from  string
			to    string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.RecordID,
			&kind,
			&from,
			&to,
			&entry.Actor,
			&entry.Comment,
			&entry.OccurredAt,
		); err != nil {
			return nil, err
		}
		entry.Kind = lifecycle.Kind(kind)
		entry.FromStatus = lifecycle.Status(from)
		entry.ToStatus = lifecycle.Status(to)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
