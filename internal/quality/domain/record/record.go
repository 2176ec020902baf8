// Package record holds the QualityRecord aggregate. The aggregate owns every
// status write: transitions come in as rule-table edges resolved by the
// lifecycle package, and each applied edge stamps its milestone date and
// queues exactly one StatusChanged event.
package record

import (
	"errors"
	"strings"
	"time"

	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/shared/domain"
)

var (
	ErrEmptyTitle   = errors.New("record title cannot be empty")
	ErrRecordClosed = errors.New("record is closed")
	ErrKindMismatch = errors.New("transition edge belongs to a different record kind")
	ErrEdgeMismatch = errors.New("transition edge does not start from the record's current status")
	ErrNotDeletable = errors.New("records past their initial status cannot be deleted")
)

// Severity grades the impact of the underlying quality issue.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// ParseSeverity converts external input into a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityMinor, SeverityMajor, SeverityCritical:
		return Severity(s), nil
	default:
		return "", errors.New("unknown severity: " + s)
	}
}

func (s Severity) String() string { return string(s) }

// QualityRecord is one NCR, CAPA, SCAR, or MRB record. The kind is fixed at
// creation; the status only ever moves along the kind's transition graph.
type QualityRecord struct {
	domain.BaseAggregateRoot
	kind        lifecycle.Kind
	status      lifecycle.Status
	title       string
	description string
	severity    Severity
	owner       string
	supplier    string
	partNumber  string
	lotNumbers  []string
	tags        []string

	// Supplier response details, SCAR only. The response verdict carries no
	// edge of its own; an unaccepted response still routes forward to review.
	responseAccepted *bool
	rejectionReason  string

	openedAt                *time.Time
	workStartedAt           *time.Time
	reviewStartedAt         *time.Time
	dispositionRequestedAt  *time.Time
	verificationRequestedAt *time.Time
	verifiedAt              *time.Time
	cancelledAt             *time.Time
	issuedAt                *time.Time
	respondedAt             *time.Time
	decidedAt               *time.Time
	closedAt                *time.Time
}

// NewRecord creates a record of the given kind in its initial status.
func NewRecord(kind lifecycle.Kind, title string) (*QualityRecord, error) {
	if !kind.Valid() {
		return nil, lifecycle.ErrUnknownKind
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	r := &QualityRecord{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		kind:              kind,
		status:            lifecycle.InitialStatus(kind),
		title:             title,
		severity:          SeverityMinor,
	}

	r.AddDomainEvent(NewRecordCreated(r.ID(), r.kind, r.status, r.title))

	return r, nil
}

// Getters

func (r *QualityRecord) Kind() lifecycle.Kind     { return r.kind }
func (r *QualityRecord) Status() lifecycle.Status { return r.status }
func (r *QualityRecord) Title() string            { return r.title }
func (r *QualityRecord) Description() string      { return r.description }
func (r *QualityRecord) Severity() Severity       { return r.severity }
func (r *QualityRecord) Owner() string            { return r.owner }
func (r *QualityRecord) Supplier() string         { return r.supplier }
func (r *QualityRecord) PartNumber() string       { return r.partNumber }
func (r *QualityRecord) LotNumbers() []string     { return r.lotNumbers }
func (r *QualityRecord) Tags() []string           { return r.tags }
func (r *QualityRecord) ResponseAccepted() *bool  { return r.responseAccepted }
func (r *QualityRecord) RejectionReason() string  { return r.rejectionReason }

// IsClosed reports whether the record reached a terminal status.
func (r *QualityRecord) IsClosed() bool {
	return lifecycle.IsTerminal(r.kind, r.status)
}

// SetTitle updates the record title.
func (r *QualityRecord) SetTitle(title string) error {
	if r.IsClosed() {
		return ErrRecordClosed
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	r.title = title
	r.Touch()
	return nil
}

// SetDescription updates the record description.
func (r *QualityRecord) SetDescription(description string) error {
	if r.IsClosed() {
		return ErrRecordClosed
	}
	r.description = strings.TrimSpace(description)
	r.Touch()
	return nil
}

// SetSeverity updates the severity grade.
func (r *QualityRecord) SetSeverity(severity Severity) error {
	if r.IsClosed() {
		return ErrRecordClosed
	}
	r.severity = severity
	r.Touch()
	return nil
}

// SetOwner assigns the person responsible for driving the record.
func (r *QualityRecord) SetOwner(owner string) error {
	if r.IsClosed() {
		return ErrRecordClosed
	}
	r.owner = strings.TrimSpace(owner)
	r.Touch()
	return nil
}

// SetSupplier names the supplier a SCAR is addressed to.
func (r *QualityRecord) SetSupplier(supplier string) error {
	if r.IsClosed() {
		return ErrRecordClosed
	}
	r.supplier = strings.TrimSpace(supplier)
	r.Touch()
	return nil
}

// SetPartNumber updates the affected part number.
func (r *QualityRecord) SetPartNumber(partNumber string) error {
	if r.IsClosed() {
		return ErrRecordClosed
	}
	r.partNumber = strings.TrimSpace(partNumber)
	r.Touch()
	return nil
}

// SetLotNumbers replaces the affected lot numbers.
func (r *QualityRecord) SetLotNumbers(lotNumbers []string) error {
	if r.IsClosed() {
		return ErrRecordClosed
	}
	r.lotNumbers = lotNumbers
	r.Touch()
	return nil
}

// SetTags replaces the free-form tags.
func (r *QualityRecord) SetTags(tags []string) error {
	if r.IsClosed() {
		return ErrRecordClosed
	}
	r.tags = tags
	r.Touch()
	return nil
}

// RecordSupplierResponse captures the verdict on a supplier's response.
func (r *QualityRecord) RecordSupplierResponse(accepted bool, rejectionReason string) error {
	if r.IsClosed() {
		return ErrRecordClosed
	}
	r.responseAccepted = &accepted
	r.rejectionReason = strings.TrimSpace(rejectionReason)
	r.Touch()
	return nil
}

// ApplyTransition moves the record along a validated rule-table edge. The
// edge must have been resolved for this record's kind and current status;
// both are rechecked here so a record loaded twice can never be moved from a
// status it already left. Entering the new status stamps its milestone date
// with the same instant carried by the StatusChanged event.
func (r *QualityRecord) ApplyTransition(edge lifecycle.TransitionEdge, actor, comment string) error {
	if edge.Kind != r.kind {
		return ErrKindMismatch
	}
	if edge.From != r.status {
		return ErrEdgeMismatch
	}
	comment = strings.TrimSpace(comment)
	if edge.RequiresComment && comment == "" {
		return &lifecycle.MissingCommentError{Kind: r.kind, From: edge.From, To: edge.To}
	}

	now := time.Now().UTC()
	r.status = edge.To
	if field, ok := lifecycle.EntryDate(r.kind, edge.To); ok {
		r.setMilestoneDate(field, now)
	}
	r.Touch()

	r.AddDomainEvent(NewStatusChanged(r.ID(), r.kind, edge.From, edge.To, actor, comment, now))

	return nil
}

// MilestoneDate returns the stored timestamp for a milestone field, or nil
// when the record has not entered the matching status yet.
func (r *QualityRecord) MilestoneDate(field lifecycle.DateField) *time.Time {
	switch field {
	case lifecycle.DateOpened:
		return r.openedAt
	case lifecycle.DateWorkStarted:
		return r.workStartedAt
	case lifecycle.DateReviewStarted:
		return r.reviewStartedAt
	case lifecycle.DateDispositionRequested:
		return r.dispositionRequestedAt
	case lifecycle.DateVerificationRequested:
		return r.verificationRequestedAt
	case lifecycle.DateVerified:
		return r.verifiedAt
	case lifecycle.DateCancelled:
		return r.cancelledAt
	case lifecycle.DateIssued:
		return r.issuedAt
	case lifecycle.DateResponded:
		return r.respondedAt
	case lifecycle.DateDecided:
		return r.decidedAt
	case lifecycle.DateClosed:
		return r.closedAt
	default:
		return nil
	}
}

func (r *QualityRecord) setMilestoneDate(field lifecycle.DateField, t time.Time) {
	switch field {
	case lifecycle.DateOpened:
		r.openedAt = &t
	case lifecycle.DateWorkStarted:
		r.workStartedAt = &t
	case lifecycle.DateReviewStarted:
		r.reviewStartedAt = &t
	case lifecycle.DateDispositionRequested:
		r.dispositionRequestedAt = &t
	case lifecycle.DateVerificationRequested:
		r.verificationRequestedAt = &t
	case lifecycle.DateVerified:
		r.verifiedAt = &t
	case lifecycle.DateCancelled:
		r.cancelledAt = &t
	case lifecycle.DateIssued:
		r.issuedAt = &t
	case lifecycle.DateResponded:
		r.respondedAt = &t
	case lifecycle.DateDecided:
		r.decidedAt = &t
	case lifecycle.DateClosed:
		r.closedAt = &t
	}
}

// MilestoneDates returns every set milestone date keyed by field.
func (r *QualityRecord) MilestoneDates() map[lifecycle.DateField]time.Time {
	out := make(map[lifecycle.DateField]time.Time)
	for _, field := range lifecycle.DateFields() {
		if d := r.MilestoneDate(field); d != nil {
			out[field] = *d
		}
	}
	return out
}
