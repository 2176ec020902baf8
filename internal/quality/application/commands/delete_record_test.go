package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/outbox"
)

func TestDeleteRecordHandler_Handle(t *testing.T) {
	t.Run("deletes a record still at its initial status", func(t *testing.T) {
		recordRepo := new(mockRecordRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewDeleteRecordHandler(recordRepo, outboxRepo, uow)

		rec := storedRecord(lifecycle.KindMRB, lifecycle.StatusPendingReview)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, testTxKey{}, "transaction")

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)
		recordRepo.On("FindByID", txCtx, rec.ID()).Return(rec, nil)
		recordRepo.On("Delete", txCtx, rec.ID()).Return(nil)

		var saved []*outbox.Message
		outboxRepo.On("SaveBatch", txCtx, mock.AnythingOfType("[]*outbox.Message")).
			Run(func(args mock.Arguments) {
				saved = args.Get(1).([]*outbox.Message)
			}).
			Return(nil)

		err := handler.Handle(ctx, DeleteRecordCommand{
			RecordID: rec.ID(),
			Actor:    "qa.lopez",
		})

		require.NoError(t, err)
		require.Len(t, saved, 1)
		assert.Equal(t, record.RoutingKeyDeleted, saved[0].RoutingKey)

		uow.AssertExpectations(t)
		recordRepo.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
	})

	t.Run("refuses to delete a record that entered the workflow", func(t *testing.T) {
		recordRepo := new(mockRecordRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewDeleteRecordHandler(recordRepo, outboxRepo, uow)

		rec := storedRecord(lifecycle.KindNCR, lifecycle.StatusOpen)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, testTxKey{}, "transaction")

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)
		recordRepo.On("FindByID", txCtx, rec.ID()).Return(rec, nil)

		err := handler.Handle(ctx, DeleteRecordCommand{
			RecordID: rec.ID(),
			Actor:    "qa.lopez",
		})

		assert.ErrorIs(t, err, record.ErrNotDeletable)
		recordRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		outboxRepo.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)

		uow.AssertExpectations(t)
		recordRepo.AssertExpectations(t)
	})
}
