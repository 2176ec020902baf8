package commands

import (
	"context"

	"github.com/google/uuid"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
	sharedApplication "github.com/veritrail/veritrail/internal/shared/application"
	"github.com/veritrail/veritrail/internal/shared/domain"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/outbox"
)

// DeleteRecordCommand discards a record that never entered the workflow.
// Anything past its initial status is part of the quality trail and stays.
type DeleteRecordCommand struct {
	RecordID uuid.UUID
	Actor    string
}

// DeleteRecordHandler handles the DeleteRecordCommand.
type DeleteRecordHandler struct {
	recordRepo record.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewDeleteRecordHandler creates a new DeleteRecordHandler.
func NewDeleteRecordHandler(recordRepo record.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *DeleteRecordHandler {
	return &DeleteRecordHandler{
		recordRepo: recordRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the DeleteRecordCommand.
func (h *DeleteRecordHandler) Handle(ctx context.Context, cmd DeleteRecordCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		rec, err := h.recordRepo.FindByID(txCtx, cmd.RecordID)
		if err != nil {
			return err
		}

		if rec.Status() != lifecycle.InitialStatus(rec.Kind()) {
			return record.ErrNotDeletable
		}

		if err := h.recordRepo.Delete(txCtx, cmd.RecordID); err != nil {
			return err
		}

		event := record.NewRecordDeleted(rec.ID(), rec.Kind())
		sharedApplication.ApplyEventMetadata(
			[]domain.DomainEvent{event},
			sharedApplication.NewEventMetadata(cmd.Actor),
		)

		msg, err := outbox.NewMessage(event)
		if err != nil {
			return err
		}
		return h.outboxRepo.SaveBatch(txCtx, []*outbox.Message{msg})
	})
}
