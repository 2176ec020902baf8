package lifecycle

import "fmt"

// Status is a lifecycle state drawn from a kind-specific closed vocabulary.
// There is no shared status set: a value is only meaningful together with
// the Kind whose graph declares it.
type Status string

// NCR statuses.
const (
	StatusDraft              Status = "draft"
	StatusOpen               Status = "open"
	StatusUnderReview        Status = "under_review"
	StatusPendingDisposition Status = "pending_disposition"
	StatusClosed             Status = "closed"
)

// CAPA statuses beyond the draft/open/closed backbone.
const (
	StatusInProgress          Status = "in_progress"
	StatusPendingVerification Status = "pending_verification"
	StatusVerified            Status = "verified"
	StatusCancelled           Status = "cancelled"
)

// SCAR statuses beyond draft/closed.
const (
	StatusIssued           Status = "issued"
	StatusSupplierResponse Status = "supplier_response"
	StatusReview           Status = "review"
)

// MRB statuses.
const (
	StatusPendingReview      Status = "pending_review"
	StatusInReview           Status = "in_review"
	StatusDispositionPending Status = "disposition_pending"
	StatusApproved           Status = "approved"
	StatusRejected           Status = "rejected"
)

func (s Status) String() string { return string(s) }

// DisplayName returns the status in title form for presentation.
func (s Status) DisplayName() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusOpen:
		return "Open"
	case StatusUnderReview:
		return "Under Review"
	case StatusPendingDisposition:
		return "Pending Disposition"
	case StatusClosed:
		return "Closed"
	case StatusInProgress:
		return "In Progress"
	case StatusPendingVerification:
		return "Pending Verification"
	case StatusVerified:
		return "Verified"
	case StatusCancelled:
		return "Cancelled"
	case StatusIssued:
		return "Issued"
	case StatusSupplierResponse:
		return "Supplier Response"
	case StatusReview:
		return "Review"
	case StatusPendingReview:
		return "Pending Review"
	case StatusInReview:
		return "In Review"
	case StatusDispositionPending:
		return "Disposition Pending"
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected"
	default:
		return string(s)
	}
}

// ParseStatus converts external input into a Status belonging to kind's
// vocabulary.
func ParseStatus(kind Kind, s string) (Status, error) {
	g, ok := graphs[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	status := Status(s)
	if !g.contains(status) {
		return "", &InvalidStatusError{Kind: kind, Status: status}
	}
	return status, nil
}

// Vocabulary returns the closed status set of a kind in declaration order.
// It returns nil for an unknown kind.
func Vocabulary(kind Kind) []Status {
	g, ok := graphs[kind]
	if !ok {
		return nil
	}
	out := make([]Status, len(g.vocabulary))
	copy(out, g.vocabulary)
	return out
}

// InitialStatus returns the status a freshly created record of this kind
// starts in: draft for NCR, CAPA and SCAR, pending_review for MRB.
func InitialStatus(kind Kind) Status {
	g, ok := graphs[kind]
	if !ok {
		return ""
	}
	return g.initial
}

// Contains reports whether status belongs to kind's vocabulary.
func Contains(kind Kind, status Status) bool {
	g, ok := graphs[kind]
	if !ok {
		return false
	}
	return g.contains(status)
}

// IsTerminal reports whether status has no outgoing transitions for kind.
func IsTerminal(kind Kind, status Status) bool {
	g, ok := graphs[kind]
	if !ok {
		return false
	}
	return g.contains(status) && len(g.out[status]) == 0
}
