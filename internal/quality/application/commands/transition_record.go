package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
	sharedApplication "github.com/veritrail/veritrail/internal/shared/application"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/outbox"
)

// ApprovalGate decides whether an actor may take a gated transition.
// Implementations must return false (not an error) for a plain denial;
// errors are reserved for infrastructure failures.
type ApprovalGate interface {
	IsAuthorized(ctx context.Context, actor string, edge lifecycle.TransitionEdge) (bool, error)
}

// RecordLocker serializes transitions per record. Acquire returns
// record.ErrConcurrentModification when another transition is already in
// flight for the same record. The compare-and-swap in the repository is the
// authoritative guard; the lock just avoids burning a transaction on a race
// that is already lost.
type RecordLocker interface {
	Acquire(ctx context.Context, recordID uuid.UUID) (release func(), err error)
}

// TransitionRecordCommand contains the data needed to move a record to a new
// status.
type TransitionRecordCommand struct {
	RecordID uuid.UUID
	ToStatus lifecycle.Status
	Actor    string
	Comment  string
}

// TransitionRecordResult describes the transition that was applied.
type TransitionRecordResult struct {
	RecordID   uuid.UUID
	FromStatus lifecycle.Status
	ToStatus   lifecycle.Status
	Label      string
}

// TransitionRecordHandler handles the TransitionRecordCommand. It validates
// the requested move against the rule table, enforces the comment and
// approval gates, applies the status change with its milestone date, and
// stores the resulting event in the outbox, all in one transaction.
type TransitionRecordHandler struct {
	recordRepo record.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	gate       ApprovalGate
	locker     RecordLocker
}

// NewTransitionRecordHandler creates a new TransitionRecordHandler. The
// locker may be nil, in which case only the compare-and-swap guards against
// concurrent transitions.
func NewTransitionRecordHandler(
	recordRepo record.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	gate ApprovalGate,
	locker RecordLocker,
) *TransitionRecordHandler {
	return &TransitionRecordHandler{
		recordRepo: recordRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		gate:       gate,
		locker:     locker,
	}
}

// Handle executes the TransitionRecordCommand.
func (h *TransitionRecordHandler) Handle(ctx context.Context, cmd TransitionRecordCommand) (*TransitionRecordResult, error) {
	if h.locker != nil {
		release, err := h.locker.Acquire(ctx, cmd.RecordID)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	var result *TransitionRecordResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		rec, err := h.recordRepo.FindByID(txCtx, cmd.RecordID)
		if err != nil {
			return err
		}

		fromStatus := rec.Status()

		// Validate the move against the rule table
		edge, err := lifecycle.Validate(rec.Kind(), fromStatus, cmd.ToStatus)
		if err != nil {
			return err
		}

		// Comment gate comes before the approval gate so callers fix the
		// cheap problem first
		comment := strings.TrimSpace(cmd.Comment)
		if edge.RequiresComment && comment == "" {
			return &lifecycle.MissingCommentError{Kind: rec.Kind(), From: edge.From, To: edge.To}
		}

		if edge.RequiresApproval {
			ok, err := h.gate.IsAuthorized(txCtx, cmd.Actor, edge)
			if err != nil {
				return fmt.Errorf("approval check failed: %w", err)
			}
			if !ok {
				return &lifecycle.UnauthorizedError{Actor: cmd.Actor, Kind: rec.Kind(), From: edge.From, To: edge.To}
			}
		}

		if err := rec.ApplyTransition(edge, cmd.Actor, comment); err != nil {
			return err
		}

		// Persist only if nobody else moved the record since we loaded it
		if err := h.recordRepo.CompareAndSwapStatus(txCtx, rec, fromStatus); err != nil {
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

		result = &TransitionRecordResult{
			RecordID:   rec.ID(),
			FromStatus: fromStatus,
			ToStatus:   rec.Status(),
			Label:      edge.Label,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
