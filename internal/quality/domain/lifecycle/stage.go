package lifecycle

// StageState classifies a canonical stage relative to the current status.
type StageState string

const (
	StagePending   StageState = "pending"
	StageCurrent   StageState = "current"
	StageCompleted StageState = "completed"
	StageSkipped   StageState = "skipped"
)

// DateField names a milestone timestamp on a quality record. The rule table
// designates which field is stamped when a record enters a given status, and
// the timeline builder reads the same designation when attaching dates to
// stages. Records store one typed field per value; there is no dynamic
// field-name dispatch anywhere.
type DateField string

const (
	DateOpened                DateField = "opened_at"
	DateWorkStarted           DateField = "work_started_at"
	DateReviewStarted         DateField = "review_started_at"
	DateDispositionRequested  DateField = "disposition_requested_at"
	DateVerificationRequested DateField = "verification_requested_at"
	DateVerified              DateField = "verified_at"
	DateCancelled             DateField = "cancelled_at"
	DateIssued                DateField = "issued_at"
	DateResponded             DateField = "responded_at"
	DateDecided               DateField = "decided_at"
	DateClosed                DateField = "closed_at"
)

// DateFields returns every milestone date field in declaration order.
func DateFields() []DateField {
	return []DateField{
		DateOpened,
		DateWorkStarted,
		DateReviewStarted,
		DateDispositionRequested,
		DateVerificationRequested,
		DateVerified,
		DateCancelled,
		DateIssued,
		DateResponded,
		DateDecided,
		DateClosed,
	}
}

// Stage is one canonical milestone checkpoint of a kind. A stage is
// identified by the status value it represents; statuses off the canonical
// backbone (verified, cancelled, rejected) have no stage of their own and
// project purely through graph reachability.
type Stage struct {
	Status Status
	Label  string

	// DateField is the record timestamp shown for this stage in the
	// timeline. Empty means the record's creation time (the initial stage).
	DateField DateField
}

// MilestoneStage is the projector's output for one canonical stage. It is
// ephemeral: computed on every read, never persisted.
type MilestoneStage struct {
	ID    Status     `json:"id"`
	Label string     `json:"label"`
	State StageState `json:"state"`
}

// Stages returns the canonical stage list of a kind in display order, or
// nil for an unknown kind.
func Stages(kind Kind) []Stage {
	g, ok := graphs[kind]
	if !ok {
		return nil
	}
	out := make([]Stage, len(g.stages))
	copy(out, g.stages)
	return out
}

// EntryDate returns the milestone date field stamped when a record of this
// kind enters the given status.
func EntryDate(kind Kind, status Status) (DateField, bool) {
	g, ok := graphs[kind]
	if !ok {
		return "", false
	}
	field, ok := g.entryDates[status]
	return field, ok
}
