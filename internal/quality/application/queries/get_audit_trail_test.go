package queries

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/veritrail/veritrail/internal/quality/domain/audit"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
)

func TestGetAuditTrailHandler_Handle(t *testing.T) {
	t.Run("returns the record's entries", func(t *testing.T) {
		recordRepo := new(mockRecordRepo)
		auditRepo := new(mockAuditRepo)
		handler := NewGetAuditTrailHandler(recordRepo, auditRepo)

		rec := registerRecord(lifecycle.KindNCR, lifecycle.StatusUnderReview, "Scratched housing")
		trail := []audit.Entry{
			audit.NewEntry(rec.ID(), lifecycle.KindNCR, lifecycle.StatusDraft, lifecycle.StatusOpen,
				"inspector.kim", "", time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)),
			audit.NewEntry(rec.ID(), lifecycle.KindNCR, lifecycle.StatusOpen, lifecycle.StatusUnderReview,
				"qa.lopez", "Containment verified", time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)),
		}

		recordRepo.On("FindByID", mock.Anything, rec.ID()).Return(rec, nil)
		auditRepo.On("FindByRecordID", mock.Anything, rec.ID()).Return(trail, nil)

		entries, err := handler.Handle(context.Background(), GetAuditTrailQuery{RecordID: rec.ID()})

		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, lifecycle.StatusDraft, entries[0].FromStatus)
		assert.Equal(t, lifecycle.StatusUnderReview, entries[1].ToStatus)
		assert.Equal(t, "Containment verified", entries[1].Comment)

		recordRepo.AssertExpectations(t)
		auditRepo.AssertExpectations(t)
	})

	t.Run("returns ErrRecordNotFound for an unknown record", func(t *testing.T) {
		recordRepo := new(mockRecordRepo)
		auditRepo := new(mockAuditRepo)
		handler := NewGetAuditTrailHandler(recordRepo, auditRepo)

		recordID := uuid.New()
		recordRepo.On("FindByID", mock.Anything, recordID).Return(nil, record.ErrRecordNotFound)

		entries, err := handler.Handle(context.Background(), GetAuditTrailQuery{RecordID: recordID})

		assert.ErrorIs(t, err, ErrRecordNotFound)
		assert.Nil(t, entries)
		auditRepo.AssertNotCalled(t, "FindByRecordID", mock.Anything, mock.Anything)
	})

	t.Run("returns an empty trail for a draft that never moved", func(t *testing.T) {
		recordRepo := new(mockRecordRepo)
		auditRepo := new(mockAuditRepo)
		handler := NewGetAuditTrailHandler(recordRepo, auditRepo)

		rec := registerRecord(lifecycle.KindMRB, lifecycle.StatusPendingReview, "Questionable lot from line 9")
		recordRepo.On("FindByID", mock.Anything, rec.ID()).Return(rec, nil)
		auditRepo.On("FindByRecordID", mock.Anything, rec.ID()).Return([]audit.Entry{}, nil)

		entries, err := handler.Handle(context.Background(), GetAuditTrailQuery{RecordID: rec.ID()})

		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
