package commands

import (
	"context"

	"github.com/google/uuid"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
	sharedApplication "github.com/veritrail/veritrail/internal/shared/application"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/outbox"
)

// RecordSupplierResponseCommand stores the verdict on a SCAR supplier
// response. The verdict does not move the record; an unaccepted response
// still goes forward to review, where the rejection reason informs the
// closing decision.
type RecordSupplierResponseCommand struct {
	RecordID        uuid.UUID
	Accepted        bool
	RejectionReason string
	Actor           string
}

// RecordSupplierResponseHandler handles the RecordSupplierResponseCommand.
type RecordSupplierResponseHandler struct {
	recordRepo record.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewRecordSupplierResponseHandler creates a new RecordSupplierResponseHandler.
func NewRecordSupplierResponseHandler(recordRepo record.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *RecordSupplierResponseHandler {
	return &RecordSupplierResponseHandler{
		recordRepo: recordRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the RecordSupplierResponseCommand.
func (h *RecordSupplierResponseHandler) Handle(ctx context.Context, cmd RecordSupplierResponseCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		rec, err := h.recordRepo.FindByID(txCtx, cmd.RecordID)
		if err != nil {
			return err
		}

		if err := rec.RecordSupplierResponse(cmd.Accepted, cmd.RejectionReason); err != nil {
			return err
		}

		rec.AddDomainEvent(record.NewRecordUpdated(rec.ID(), []string{"supplier_response"}))

		if err := h.recordRepo.Save(txCtx, rec); err != nil {
			return err
		}

		events := rec.DomainEvents()
		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(cmd.Actor))

		msgs := make([]*outbox.Message, 0, len(events))
		for _, event := range events {
			msg, err := outbox.NewMessage(event)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		return h.outboxRepo.SaveBatch(txCtx, msgs)
	})
}
