package commands

import (
	"context"

	"github.com/google/uuid"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
	sharedApplication "github.com/veritrail/veritrail/internal/shared/application"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/outbox"
)

// CreateRecordCommand contains the data needed to open a new quality record.
type CreateRecordCommand struct {
	Kind        lifecycle.Kind
	Title       string
	Description string
	Severity    string
	Owner       string
	Supplier    string
	PartNumber  string
	LotNumbers  []string
	Tags        []string
	Actor       string
}

// CreateRecordResult contains the result of creating a record.
type CreateRecordResult struct {
	RecordID uuid.UUID
	Status   lifecycle.Status
}

// CreateRecordHandler handles the CreateRecordCommand.
type CreateRecordHandler struct {
	recordRepo record.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewCreateRecordHandler creates a new CreateRecordHandler.
func NewCreateRecordHandler(recordRepo record.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *CreateRecordHandler {
	return &CreateRecordHandler{
		recordRepo: recordRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the CreateRecordCommand.
func (h *CreateRecordHandler) Handle(ctx context.Context, cmd CreateRecordCommand) (*CreateRecordResult, error) {
	var result *CreateRecordResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		rec, err := record.NewRecord(cmd.Kind, cmd.Title)
		if err != nil {
			return err
		}

		if cmd.Description != "" {
			if err := rec.SetDescription(cmd.Description); err != nil {
				return err
			}
		}

		if cmd.Severity != "" {
			severity, err := record.ParseSeverity(cmd.Severity)
			if err != nil {
				return err
			}
			if err := rec.SetSeverity(severity); err != nil {
				return err
			}
		}

		if cmd.Owner != "" {
			if err := rec.SetOwner(cmd.Owner); err != nil {
				return err
			}
		}

		if cmd.Supplier != "" {
			if err := rec.SetSupplier(cmd.Supplier); err != nil {
				return err
			}
		}

		if cmd.PartNumber != "" {
			if err := rec.SetPartNumber(cmd.PartNumber); err != nil {
				return err
			}
		}

		if len(cmd.LotNumbers) > 0 {
			if err := rec.SetLotNumbers(cmd.LotNumbers); err != nil {
				return err
			}
		}

		if len(cmd.Tags) > 0 {
			if err := rec.SetTags(cmd.Tags); err != nil {
				return err
			}
		}

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
		if err := h.outboxRepo.SaveBatch(txCtx, msgs); err != nil {
			return err
		}

		result = &CreateRecordResult{RecordID: rec.ID(), Status: rec.Status()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
