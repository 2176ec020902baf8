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

func TestMemoryAuditRepository_AppendAndFind(t *testing.T) {
	repo := persistence.NewMemoryAuditRepository()
	ctx := context.Background()
	recordID := uuid.New()

	second := audit.NewEntry(recordID, lifecycle.KindNCR,
		lifecycle.StatusOpen, lifecycle.StatusUnderReview,
		"qa.lopez", "", time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC))
	first := audit.NewEntry(recordID, lifecycle.KindNCR,
		lifecycle.StatusDraft, lifecycle.StatusOpen,
		"qa.lopez", "", time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC))

	// Appended newest first; reads still come back oldest first.
	require.NoError(t, repo.Append(ctx, second))
	require.NoError(t, repo.Append(ctx, first))

	entries, err := repo.FindByRecordID(ctx, recordID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, lifecycle.StatusDraft, entries[0].FromStatus)
	assert.Equal(t, lifecycle.StatusUnderReview, entries[1].ToStatus)
}

func TestMemoryAuditRepository_FindByRecordID_Empty(t *testing.T) {
	repo := persistence.NewMemoryAuditRepository()

	entries, err := repo.FindByRecordID(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Empty(t, entries)
}
