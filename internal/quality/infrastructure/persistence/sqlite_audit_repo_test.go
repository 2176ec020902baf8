package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veritrail/veritrail/internal/quality/domain/audit"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/quality/infrastructure/persistence"
)

func TestSQLiteAuditRepository_AppendAndFind(t *testing.T) {
	conn := setupSQLiteDB(t)
	repo := persistence.NewSQLiteAuditRepository(conn)
	ctx := context.Background()
	recordID := uuid.New()

	second := audit.NewEntry(recordID, lifecycle.KindCAPA,
		lifecycle.StatusOpen, lifecycle.StatusInProgress,
		"qa.lopez", "", time.Date(2026, 3, 12, 10, 30, 0, 0, time.UTC))
	first := audit.NewEntry(recordID, lifecycle.KindCAPA,
		lifecycle.StatusDraft, lifecycle.StatusOpen,
		"qa.lopez", "submitting after triage", time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	require.NoError(t, repo.Append(ctx, second))
	require.NoError(t, repo.Append(ctx, first))

	entries, err := repo.FindByRecordID(ctx, recordID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, lifecycle.StatusDraft, entries[0].FromStatus)
	assert.Equal(t, "submitting after triage", entries[0].Comment)
	assert.Equal(t, lifecycle.StatusInProgress, entries[1].ToStatus)
	assert.True(t, entries[0].OccurredAt.Before(entries[1].OccurredAt))
}

func TestSQLiteAuditRepository_FindByRecordID_Empty(t *testing.T) {
	conn := setupSQLiteDB(t)
	repo := persistence.NewSQLiteAuditRepository(conn)

	entries, err := repo.FindByRecordID(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Empty(t, entries)
}
