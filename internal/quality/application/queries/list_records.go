package queries

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
)

// RecordDTO is a data transfer object for quality records.
type RecordDTO struct {
	ID               uuid.UUID
	Kind             lifecycle.Kind
	KindName         string
	Status           lifecycle.Status
	Title            string
	Description      string
	Severity         string
	Owner            string
	Supplier         string
	PartNumber       string
	LotNumbers       []string
	Tags             []string
	ResponseAccepted *bool
	RejectionReason  string
	Dates            map[lifecycle.DateField]time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int
}

// ListRecordsQuery contains the parameters for listing records.
type ListRecordsQuery struct {
	Kind   string // empty matches every kind
	Status string // empty matches every status
	Limit  int    // 0 = no limit
	Offset int
}

// ListRecordsHandler handles the ListRecordsQuery.
type ListRecordsHandler struct {
	recordRepo record.Repository
}

// NewListRecordsHandler creates a new ListRecordsHandler.
func NewListRecordsHandler(recordRepo record.Repository) *ListRecordsHandler {
	return &ListRecordsHandler{recordRepo: recordRepo}
}

// Handle executes the ListRecordsQuery.
func (h *ListRecordsHandler) Handle(ctx context.Context, query ListRecordsQuery) ([]RecordDTO, error) {
	filter := record.Filter{
		Limit:  query.Limit,
		Offset: query.Offset,
	}

	if query.Kind != "" {
		kind, err := lifecycle.ParseKind(query.Kind)
		if err != nil {
			return nil, err
		}
		filter.Kind = &kind
	}

	if query.Status != "" {
		status := lifecycle.Status(query.Status)
		if filter.Kind != nil {
			parsed, err := lifecycle.ParseStatus(*filter.Kind, query.Status)
			if err != nil {
				return nil, err
			}
			status = parsed
		}
		filter.Status = &status
	}

	records, err := h.recordRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return toRecordDTOs(records), nil
}

func toRecordDTO(rec *record.QualityRecord) RecordDTO {
	return RecordDTO{
		ID:               rec.ID(),
		Kind:             rec.Kind(),
		KindName:         rec.Kind().DisplayName(),
		Status:           rec.Status(),
		Title:            rec.Title(),
		Description:      rec.Description(),
		Severity:         rec.Severity().String(),
		Owner:            rec.Owner(),
		Supplier:         rec.Supplier(),
		PartNumber:       rec.PartNumber(),
		LotNumbers:       rec.LotNumbers(),
		Tags:             rec.Tags(),
		ResponseAccepted: rec.ResponseAccepted(),
		RejectionReason:  rec.RejectionReason(),
		Dates:            rec.MilestoneDates(),
		CreatedAt:        rec.CreatedAt(),
		UpdatedAt:        rec.UpdatedAt(),
		Version:          rec.Version(),
	}
}

func toRecordDTOs(records []*record.QualityRecord) []RecordDTO {
	dtos := make([]RecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toRecordDTO(rec)
	}
	return dtos
}
