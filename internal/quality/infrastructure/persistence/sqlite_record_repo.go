package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/database"
)

// SQLiteRecordRepository implements record.Repository using SQLite. UUIDs
// and timestamps are stored as TEXT, string lists as JSON.
type SQLiteRecordRepository struct {
	conn database.Connection
}

// NewSQLiteRecordRepository creates a new SQLite record repository.
func NewSQLiteRecordRepository(conn database.Connection) *SQLiteRecordRepository {
	return &SQLiteRecordRepository{conn: conn}
}

// Save upserts the record, guarded by the aggregate version.
func (r *SQLiteRecordRepository) Save(ctx context.Context, rec *record.QualityRecord) error {
	query := `
		INSERT INTO quality_records (
			id, kind, status, title, description, severity, owner, supplier,
			part_number, lot_numbers, tags, response_accepted, rejection_reason,
			opened_at, work_started_at, review_started_at, disposition_requested_at,
			verification_requested_at, verified_at, cancelled_at, issued_at,
			responded_at, decided_at, closed_at, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			title = excluded.title,
			description = excluded.description,
			severity = excluded.severity,
			owner = excluded.owner,
			supplier = excluded.supplier,
			part_number = excluded.part_number,
			lot_numbers = excluded.lot_numbers,
			tags = excluded.tags,
			response_accepted = excluded.response_accepted,
			rejection_reason = excluded.rejection_reason,
			opened_at = excluded.opened_at,
			work_started_at = excluded.work_started_at,
			review_started_at = excluded.review_started_at,
			disposition_requested_at = excluded.disposition_requested_at,
			verification_requested_at = excluded.verification_requested_at,
			verified_at = excluded.verified_at,
			cancelled_at = excluded.cancelled_at,
			issued_at = excluded.issued_at,
			responded_at = excluded.responded_at,
			decided_at = excluded.decided_at,
			closed_at = excluded.closed_at,
			version = quality_records.version + 1,
			updated_at = excluded.updated_at
		WHERE quality_records.version = ?
		RETURNING version
	`

	st := rec.Export()

	lotNumbers, err := encodeStrings(st.LotNumbers)
	if err != nil {
		return err
	}
	tags, err := encodeStrings(st.Tags)
	if err != nil {
		return err
	}

	var newVersion int
	exec := database.ExecutorFromContext(ctx, r.conn)
	err = exec.QueryRow(ctx, query,
		st.ID.String(),
		st.Kind.String(),
		st.Status.String(),
		st.Title,
		st.Description,
		st.Severity.String(),
		st.Owner,
		st.Supplier,
		st.PartNumber,
		lotNumbers,
		tags,
		st.ResponseAccepted,
		st.RejectionReason,
		sqliteDatePtr(st, lifecycle.DateOpened),
		sqliteDatePtr(st, lifecycle.DateWorkStarted),
		sqliteDatePtr(st, lifecycle.DateReviewStarted),
		sqliteDatePtr(st, lifecycle.DateDispositionRequested),
		sqliteDatePtr(st, lifecycle.DateVerificationRequested),
		sqliteDatePtr(st, lifecycle.DateVerified),
		sqliteDatePtr(st, lifecycle.DateCancelled),
		sqliteDatePtr(st, lifecycle.DateIssued),
		sqliteDatePtr(st, lifecycle.DateResponded),
		sqliteDatePtr(st, lifecycle.DateDecided),
		sqliteDatePtr(st, lifecycle.DateClosed),
		st.Version,
		sqliteTime(st.CreatedAt),
		sqliteTime(st.UpdatedAt),
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

// CompareAndSwapStatus persists a transition only if the stored status still
// equals expected.
func (r *SQLiteRecordRepository) CompareAndSwapStatus(ctx context.Context, rec *record.QualityRecord, expected lifecycle.Status) error {
	query := `
		UPDATE quality_records SET
			status = ?,
			opened_at = ?,
			work_started_at = ?,
			review_started_at = ?,
			disposition_requested_at = ?,
			verification_requested_at = ?,
			verified_at = ?,
			cancelled_at = ?,
			issued_at = ?,
			responded_at = ?,
			decided_at = ?,
			closed_at = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ? AND status = ? AND version = ?
		RETURNING version
	`

	st := rec.Export()

	var newVersion int
	exec := database.ExecutorFromContext(ctx, r.conn)
	err := exec.QueryRow(ctx, query,
		st.Status.String(),
		sqliteDatePtr(st, lifecycle.DateOpened),
		sqliteDatePtr(st, lifecycle.DateWorkStarted),
		sqliteDatePtr(st, lifecycle.DateReviewStarted),
		sqliteDatePtr(st, lifecycle.DateDispositionRequested),
		sqliteDatePtr(st, lifecycle.DateVerificationRequested),
		sqliteDatePtr(st, lifecycle.DateVerified),
		sqliteDatePtr(st, lifecycle.DateCancelled),
		sqliteDatePtr(st, lifecycle.DateIssued),
		sqliteDatePtr(st, lifecycle.DateResponded),
		sqliteDatePtr(st, lifecycle.DateDecided),
		sqliteDatePtr(st, lifecycle.DateClosed),
		sqliteTime(st.UpdatedAt),
		st.ID.String(),
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
func (r *SQLiteRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*record.QualityRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM quality_records WHERE id = ?`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rec, err := scanSQLiteRecord(exec.QueryRow(ctx, query, id.String()))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, record.ErrRecordNotFound
		}
		return nil, err
	}
	return rec, nil
}

// List retrieves records matching the filter, newest first.
func (r *SQLiteRecordRepository) List(ctx context.Context, filter record.Filter) ([]*record.QualityRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM quality_records WHERE 1=1`
	args := []any{}

	if filter.Kind != nil {
		query += " AND kind = ?"
		args = append(args, filter.Kind.String())
	}
	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, filter.Status.String())
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			// SQLite requires LIMIT before OFFSET.
			query += " LIMIT -1"
		}
		query += " OFFSET ?"
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
		rec, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes a record.
func (r *SQLiteRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, `DELETE FROM quality_records WHERE id = ?`, id.String())
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

// scanSQLiteRecord reads one row in recordColumns order and rehydrates the
// aggregate.
func scanSQLiteRecord(row database.Row) (*record.QualityRecord, error) {
	var (
		st         record.State
		id         string
		kind       string
		status     string
		severity   string
		lotNumbers string
		tags       string
		dateCols   [11]sql.NullString
		createdAt  string
		updatedAt  string
	)

	err := row.Scan(
		&id,
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
		&dateCols[0],
		&dateCols[1],
		&dateCols[2],
		&dateCols[3],
		&dateCols[4],
		&dateCols[5],
		&dateCols[6],
		&dateCols[7],
		&dateCols[8],
		&dateCols[9],
		&dateCols[10],
		&st.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if st.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("quality record: bad id: %w", err)
	}
	st.Kind = lifecycle.Kind(kind)
	st.Status = lifecycle.Status(status)
	st.Severity = record.Severity(severity)

	if err := json.Unmarshal([]byte(lotNumbers), &st.LotNumbers); err != nil {
		return nil, fmt.Errorf("quality record %s: bad lot_numbers: %w", id, err)
	}
	if err := json.Unmarshal([]byte(tags), &st.Tags); err != nil {
		return nil, fmt.Errorf("quality record %s: bad tags: %w", id, err)
	}

	fields := []lifecycle.DateField{
		lifecycle.DateOpened,
		lifecycle.DateWorkStarted,
		lifecycle.DateReviewStarted,
		lifecycle.DateDispositionRequested,
		lifecycle.DateVerificationRequested,
		lifecycle.DateVerified,
		lifecycle.DateCancelled,
		lifecycle.DateIssued,
		lifecycle.DateResponded,
		lifecycle.DateDecided,
		lifecycle.DateClosed,
	}
	st.Dates = make(map[lifecycle.DateField]time.Time)
	for i, field := range fields {
		if !dateCols[i].Valid {
			continue
		}
		at, err := parseSQLiteTime(dateCols[i].String)
		if err != nil {
			return nil, fmt.Errorf("quality record %s: bad %s: %w", id, field, err)
		}
		st.Dates[field] = at
	}

	if st.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
		return nil, fmt.Errorf("quality record %s: bad created_at: %w", id, err)
	}
	if st.UpdatedAt, err = parseSQLiteTime(updatedAt); err != nil {
		return nil, fmt.Errorf("quality record %s: bad updated_at: %w", id, err)
	}

	return record.RehydrateRecord(st), nil
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func sqliteTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseSQLiteTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func sqliteDatePtr(st record.State, field lifecycle.DateField) *string {
	if at, ok := st.Dates[field]; ok {
		s := sqliteTime(at)
		return &s
	}
	return nil
}
