package record

import (
	"time"

	"github.com/google/uuid"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/shared/domain"
)

// State carries the persisted fields of a record between the aggregate and
// its repositories.
type State struct {
	ID               uuid.UUID
	Kind             lifecycle.Kind
	Status           lifecycle.Status
	Title            string
	Description      string
	Severity         Severity
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

// RehydrateRecord recreates a record from persisted state. No events are
// queued and nothing is validated; the state is trusted as written.
func RehydrateRecord(st State) *QualityRecord {
	r := &QualityRecord{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(
			domain.RehydrateBaseEntity(st.ID, st.CreatedAt, st.UpdatedAt),
			st.Version,
		),
		kind:             st.Kind,
		status:           st.Status,
		title:            st.Title,
		description:      st.Description,
		severity:         st.Severity,
		owner:            st.Owner,
		supplier:         st.Supplier,
		partNumber:       st.PartNumber,
		lotNumbers:       st.LotNumbers,
		tags:             st.Tags,
		responseAccepted: st.ResponseAccepted,
		rejectionReason:  st.RejectionReason,
	}
	for field, at := range st.Dates {
		r.setMilestoneDate(field, at)
	}
	return r
}

// Export captures the record's current state for persistence.
func (r *QualityRecord) Export() State {
	return State{
		ID:               r.ID(),
		Kind:             r.kind,
		Status:           r.status,
		Title:            r.title,
		Description:      r.description,
		Severity:         r.severity,
		Owner:            r.owner,
		Supplier:         r.supplier,
		PartNumber:       r.partNumber,
		LotNumbers:       r.lotNumbers,
		Tags:             r.tags,
		ResponseAccepted: r.responseAccepted,
		RejectionReason:  r.rejectionReason,
		Dates:            r.MilestoneDates(),
		CreatedAt:        r.CreatedAt(),
		UpdatedAt:        r.UpdatedAt(),
		Version:          r.Version(),
	}
}
