package commands

import (
	"context"

	"github.com/google/uuid"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
	sharedApplication "github.com/veritrail/veritrail/internal/shared/application"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/outbox"
)

// UpdateRecordCommand contains the data needed to update a record's content
// fields. Status never moves through here; that is TransitionRecordCommand's
// job.
type UpdateRecordCommand struct {
	RecordID    uuid.UUID
	Actor       string
	Title       *string   // nil means no change
	Description *string   // nil means no change
	Severity    *string   // nil means no change
	Owner       *string   // nil means no change
	Supplier    *string   // nil means no change
	PartNumber  *string   // nil means no change
	LotNumbers  *[]string // nil means no change
	Tags        *[]string // nil means no change
}

// UpdateRecordHandler handles the UpdateRecordCommand.
type UpdateRecordHandler struct {
	recordRepo record.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewUpdateRecordHandler creates a new UpdateRecordHandler.
func NewUpdateRecordHandler(recordRepo record.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *UpdateRecordHandler {
	return &UpdateRecordHandler{
		recordRepo: recordRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the UpdateRecordCommand.
func (h *UpdateRecordHandler) Handle(ctx context.Context, cmd UpdateRecordCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		rec, err := h.recordRepo.FindByID(txCtx, cmd.RecordID)
		if err != nil {
			return err
		}

		var updatedFields []string

		if cmd.Title != nil {
			if err := rec.SetTitle(*cmd.Title); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "title")
		}

		if cmd.Description != nil {
			if err := rec.SetDescription(*cmd.Description); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "description")
		}

		if cmd.Severity != nil {
			severity, err := record.ParseSeverity(*cmd.Severity)
			if err != nil {
				return err
			}
			if err := rec.SetSeverity(severity); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "severity")
		}

		if cmd.Owner != nil {
			if err := rec.SetOwner(*cmd.Owner); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "owner")
		}

		if cmd.Supplier != nil {
			if err := rec.SetSupplier(*cmd.Supplier); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "supplier")
		}

		if cmd.PartNumber != nil {
			if err := rec.SetPartNumber(*cmd.PartNumber); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "part_number")
		}

		if cmd.LotNumbers != nil {
			if err := rec.SetLotNumbers(*cmd.LotNumbers); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "lot_numbers")
		}

		if cmd.Tags != nil {
			if err := rec.SetTags(*cmd.Tags); err != nil {
				return err
			}
			updatedFields = append(updatedFields, "tags")
		}

		// No changes to save
		if len(updatedFields) == 0 {
			return nil
		}

		rec.AddDomainEvent(record.NewRecordUpdated(rec.ID(), updatedFields))

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
