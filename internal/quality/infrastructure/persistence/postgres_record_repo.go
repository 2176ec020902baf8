// Package persistence provides PostgreSQL, SQLite, and in-memory
// implementations of the quality repositories.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/database"
)

const recordColumns = `id, kind, status, title, description, severity, owner, supplier,
	       part_number, lot_numbers, tags, response_accepted, rejection_reason,
	       opened_at, work_started_at, review_started_at, disposition_requested_at,
	       verification_requested_at, verified_at, cancelled_at, issued_at,
	       responded_at, decided_at, closed_at, version, created_at, updated_at`

// PostgresRecordRepository implements record.Repository using PostgreSQL.
type PostgresRecordRepository struct {
	conn database.Connection
}

// NewPostgresRecordRepository creates a new PostgreSQL record repository.
func NewPostgresRecordRepository(conn database.Connection) *PostgresRecordRepository {
	return &PostgresRecordRepository{conn: conn}
}

// Save upserts the record, guarded by the aggregate version. The kind column
// is written once on insert and never updated.
func (r *PostgresRecordRepository) Save(ctx context.Context, rec *record.QualityRecord) error {
	query := `
		INSERT INTO quality_records (
			id, kind, status, title, description, severity, owner, supplier,
			part_number, lot_numbers, tags, response_accepted, rejection_reason,
			opened_at, work_started_at, review_started_at, disposition_requested_at,
			verification_requested_at, verified_at, cancelled_at, issued_at,
			responded_at, decided_at, closed_at, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		          $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			severity = EXCLUDED.severity,
			owner = EXCLUDED.owner,
			supplier = EXCLUDED.supplier,
			part_number = EXCLUDED.part_number,
			lot_numbers = EXCLUDED.lot_numbers,
			tags = EXCLUDED.tags,
			response_accepted = EXCLUDED.response_accepted,
			rejection_reason = EXCLUDED.rejection_reason,
			opened_at = EXCLUDED.opened_at,
			work_started_at = EXCLUDED.work_started_at,
			review_started_at = EXCLUDED.review_started_at,
			disposition_requested_at = EXCLUDED.disposition_requested_at,
			verification_requested_at = EXCLUDED.verification_requested_at,
			verified_at = EXCLUDED.verified_at,
			cancelled_at = EXCLUDED.cancelled_at,
			issued_at = EXCLUDED.issued_at,
			responded_at = EXCLUDED.responded_at,
			decided_at = EXCLUDED.decided_at,
			closed_at = EXCLUDED.closed_at,
			version = quality_records.version + 1,
			updated_at = NOW()
		WHERE quality_records.version = $25
		RETURNING version
	`

	st := rec.Export()

	var newVersion int
	exec := database.ExecutorFromContext(ctx, r.conn)
	err := exec.QueryRow(ctx, query,
		st.ID,
		st.Kind.String(),
		st.Status.String(),
		st.Title,
		st.Description,
		st.Severity.String(),
		st.Owner,
		st.Supplier,
		st.PartNumber,
		pq.Array(st.LotNumbers),
		pq.Array(st.Tags),
		st.ResponseAccepted,
		st.RejectionReason,
		datePtr(st, lifecycle.DateOpened),
		datePtr(st, lifecycle.DateWorkStarted),
		datePtr(st, lifecycle.DateReviewStarted),
		datePtr(st, lifecycle.DateDispositionRequested),
		datePtr(st, lifecycle.DateVerificationRequested),
		datePtr(st, lifecycle.DateVerified),
		datePtr(st, lifecycle.DateCancelled),
		datePtr(st, lifecycle.DateIssued),
		datePtr(st, lifecycle.DateResponded),
		datePtr(st, lifecycle.DateDecided),
		datePtr(st, lifecycle.DateClosed),
		st.Version,
		st.CreatedAt,
		st.UpdatedAt,
	).Scan(&newVersion)

	if err != nil {
		if database.IsNoRows(err) {
			return record.ErrConcurrentModification
		}
		return err
	}

	rec.SetVersion(newVersion)
	return nil
}

// CompareAndSwapStatus persists a transition only if the stored status still
// equals expected. Of two racing transitions exactly one update matches.
func (r *PostgresRecordRepository) CompareAndSwapStatus(ctx context.Context, rec *record.QualityRecord, expected lifecycle.Status) error {
	query := `
		UPDATE quality_records SET
			status = $2,
			opened_at = $3,
			work_started_at = $4,
			review_started_at = $5,
			disposition_requested_at = $6,
			verification_requested_at = $7,
			verified_at = $8,
			cancelled_at = $9,
			issued_at = $10,
			responded_at = $11,
			decided_at = $12,
			closed_at = $13,
			version = quality_records.version + 1,
			updated_at = $14
		WHERE id = $1 AND status = $15 AND version = $16
		RETURNING version
	`

	st := rec.Export()

	var newVersion int
	exec := database.ExecutorFromContext(ctx, r.conn)
	err := exec.QueryRow(ctx, query,
		st.ID,
		st.Status.String(),
		datePtr(st, lifecycle.DateOpened),
		datePtr(st, lifecycle.DateWorkStarted),
		datePtr(st, lifecycle.DateReviewStarted),
		datePtr(st, lifecycle.DateDispositionRequested),
		datePtr(st, lifecycle.DateVerificationRequested),
		datePtr(st, lifecycle.DateVerified),
		datePtr(st, lifecycle.DateCancelled),
		datePtr(st, lifecycle.DateIssued),
		datePtr(st, lifecycle.DateResponded),
		datePtr(st, lifecycle.DateDecided),
		datePtr(st, lifecycle.DateClosed),
		st.UpdatedAt,
		expected.String(),
		st.Version,
	).Scan(&newVersion)

	if err != nil {
		if database.IsNoRows(err) {
			return record.ErrConcurrentModification
		}
		return err
	}

	rec.SetVersion(newVersion)
	return nil
}

// FindByID retrieves a record by its ID.
func (r *PostgresRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*record.QualityRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM quality_records WHERE id = $1`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rec, err := scanRecord(exec.QueryRow(ctx, query, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, record.ErrRecordNotFound
		}
		return nil, err
	}
	return rec, nil
}

// List retrieves records matching the filter, newest first.
func (r *PostgresRecordRepository) List(ctx context.Context, filter record.Filter) ([]*record.QualityRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM quality_records WHERE 1=1`
	args := []any{}
	argIndex := 1

	if filter.Kind != nil {
		query += fmt.Sprintf(" AND kind = $%d", argIndex)
		args = append(args, filter.Kind.String())
		argIndex++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, filter.Status.String())
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
		argIndex++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filter.Offset)
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*record.QualityRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes a record.
func (r *PostgresRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, `DELETE FROM quality_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return record.ErrRecordNotFound
	}
	return nil
}

func datePtr(st record.State, field lifecycle.DateField) *time.Time {
	if at, ok := st.Dates[field]; ok {
		return &at
	}
	return nil
}

// scanRecord reads one row in recordColumns order and rehydrates the
// aggregate.
func scanRecord(row database.Row) (*record.QualityRecord, error) {
	var (
		st                      record.State
		kind                    string
		status                  string
		severity                string
		lotNumbers              []string
		tags                    []string
		openedAt                *time.Time
		workStartedAt           *time.Time
		reviewStartedAt         *time.Time
		dispositionRequestedAt  *time.Time
		verificationRequestedAt *time.Time
		verifiedAt              *time.Time
		cancelledAt             *time.Time
		issuedAt                *time.Time
		respondedAt             *time.Time
		decidedAt               *time.Time
		closedAt                *time.Time
	)

	err := row.Scan(
		&st.ID,
		&kind,
		&status,
		&st.Title,
		&st.Description,
		&severity,
		&st.Owner,
		&st.Supplier,
		&st.PartNumber,
		&lotNumbers,
		&tags,
		&st.ResponseAccepted,
		&st.RejectionReason,
		&openedAt,
		&workStartedAt,
		&reviewStartedAt,
		&dispositionRequestedAt,
		&verificationRequestedAt,
		&verifiedAt,
		&cancelledAt,
		&issuedAt,
		&respondedAt,
		&decidedAt,
		&closedAt,
		&st.Version,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	st.Kind = lifecycle.Kind(kind)
	st.Status = lifecycle.Status(status)
	st.Severity = record.Severity(severity)
	st.LotNumbers = lotNumbers
	st.Tags = tags

	st.Dates = make(map[lifecycle.DateField]time.Time)
	collectDate(st.Dates, lifecycle.DateOpened, openedAt)
	collectDate(st.Dates, lifecycle.DateWorkStarted, workStartedAt)
	collectDate(st.Dates, lifecycle.DateReviewStarted, reviewStartedAt)
	collectDate(st.Dates, lifecycle.DateDispositionRequested, dispositionRequestedAt)
	collectDate(st.Dates, lifecycle.DateVerificationRequested, verificationRequestedAt)
	collectDate(st.Dates, lifecycle.DateVerified, verifiedAt)
	collectDate(st.Dates, lifecycle.DateCancelled, cancelledAt)
	collectDate(st.Dates, lifecycle.DateIssued, issuedAt)
	collectDate(st.Dates, lifecycle.DateResponded, respondedAt)
	collectDate(st.Dates, lifecycle.DateDecided, decidedAt)
	collectDate(st.Dates, lifecycle.DateClosed, closedAt)

	return record.RehydrateRecord(st), nil
}

func collectDate(dates map[lifecycle.DateField]time.Time, field lifecycle.DateField, at *time.Time) {
	if at != nil {
		dates[field] = at.UTC()
	}
}
