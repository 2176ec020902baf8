package queries

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
)

// GetTimelineQuery contains the parameters for building a record's timeline.
type GetTimelineQuery struct {
	RecordID uuid.UUID
}

// GetTimelineHandler handles the GetTimelineQuery.
type GetTimelineHandler struct {
	recordRepo record.Repository
}

// NewGetTimelineHandler creates a new GetTimelineHandler.
func NewGetTimelineHandler(recordRepo record.Repository) *GetTimelineHandler {
	return &GetTimelineHandler{recordRepo: recordRepo}
}

// Handle executes the GetTimelineQuery.
func (h *GetTimelineHandler) Handle(ctx context.Context, query GetTimelineQuery) ([]lifecycle.TimelineItem, error) {
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

	return lifecycle.BuildTimeline(rec)
}
