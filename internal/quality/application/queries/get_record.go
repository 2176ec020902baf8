package queries

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
)

// ErrRecordNotFound is returned when a record is not found.
var ErrRecordNotFound = errors.New("record not found")

// GetRecordQuery contains the parameters for getting a single record.
type GetRecordQuery struct {
	RecordID uuid.UUID
}

// RecordDetailDTO is the full read model for one record: its fields, its
// projected milestones, and the transitions available from its current
// status.
type RecordDetailDTO struct {
	RecordDTO
	Milestones           []lifecycle.MilestoneStage
	AvailableTransitions []lifecycle.TransitionEdge
}

// GetRecordHandler handles the GetRecordQuery.
type GetRecordHandler struct {
	recordRepo record.Repository
}

// NewGetRecordHandler creates a new GetRecordHandler.
func NewGetRecordHandler(recordRepo record.Repository) *GetRecordHandler {
	return &GetRecordHandler{recordRepo: recordRepo}
}

// Handle executes the GetRecordQuery.
func (h *GetRecordHandler) Handle(ctx context.Context, query GetRecordQuery) (*RecordDetailDTO, error) {
	rec, err := h.recordRepo.FindByID(ctx, query.RecordID)
	if err != nil {
		if errors.Is(err, record.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	if rec == nil {
		return nil, ErrRecordNotFound
	}

	milestones, err := lifecycle.Project(rec.Kind(), rec.Status())
	if err != nil {
		return nil, err
	}

	dto := RecordDetailDTO{
		RecordDTO:            toRecordDTO(rec),
		Milestones:           milestones,
		AvailableTransitions: lifecycle.AvailableTransitions(rec.Kind(), rec.Status()),
	}

	return &dto, nil
}
