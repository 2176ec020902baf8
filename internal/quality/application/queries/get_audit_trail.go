package queries

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/veritrail/veritrail/internal/quality/domain/audit"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
)

// GetAuditTrailQuery contains the parameters for reading a record's status
// history.
type GetAuditTrailQuery struct {
	RecordID uuid.UUID
}

// GetAuditTrailHandler handles the GetAuditTrailQuery.
type GetAuditTrailHandler struct {
	recordRepo record.Repository
	auditRepo  audit.Repository
}

// NewGetAuditTrailHandler creates a new GetAuditTrailHandler.
func NewGetAuditTrailHandler(recordRepo record.Repository, auditRepo audit.Repository) *GetAuditTrailHandler {
	return &GetAuditTrailHandler{
		recordRepo: recordRepo,
		auditRepo:  auditRepo,
	}
}

// Handle executes the GetAuditTrailQuery. Entries come back oldest first.
func (h *GetAuditTrailHandler) Handle(ctx context.Context, query GetAuditTrailQuery) ([]audit.Entry, error) {
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

	return h.auditRepo.FindByRecordID(ctx, query.RecordID)
}
