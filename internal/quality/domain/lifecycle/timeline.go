package lifecycle

import (
	"fmt"
	"time"
)

// tooltipDateLayout is the presentation format for milestone dates.
const tooltipDateLayout = "Jan 2, 2006"

// RecordSnapshot is the read-side view of a quality record the timeline
// builder consumes. The record aggregate satisfies it; tests may use any
// stand-in.
type RecordSnapshot interface {
	Kind() Kind
	Status() Status
	CreatedAt() time.Time
	MilestoneDate(field DateField) *time.Time
}

// TimelineItem is a milestone stage enriched with a human-readable tooltip
// and the record date matching the stage, when one exists.
type TimelineItem struct {
	MilestoneStage
	Tooltip string     `json:"tooltip"`
	Date    *time.Time `json:"date,omitempty"`
}

// BuildTimeline composes the milestone projection with the record's own
// milestone dates. Order is fixed by the canonical stage list: a missing or
// out-of-sequence date only leaves the item's date empty, it never reorders
// or fails the timeline.
func BuildTimeline(snapshot RecordSnapshot) ([]TimelineItem, error) {
	kind := snapshot.Kind()
	g, ok := graphs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	projection, err := Project(kind, snapshot.Status())
	if err != nil {
		return nil, err
	}

	items := make([]TimelineItem, 0, len(projection))
	for i, stage := range projection {
		date := stageDate(snapshot, g.stages[i])
		items = append(items, TimelineItem{
			MilestoneStage: stage,
			Tooltip:        tooltip(stage, date),
			Date:           date,
		})
	}
	return items, nil
}

// stageDate resolves a stage's date from the record: the initial stage maps
// to the creation time, every other stage to its designated milestone field.
func stageDate(snapshot RecordSnapshot, stage Stage) *time.Time {
	if stage.DateField == "" {
		created := snapshot.CreatedAt()
		if created.IsZero() {
			return nil
		}
		return &created
	}
	return snapshot.MilestoneDate(stage.DateField)
}

func tooltip(stage MilestoneStage, date *time.Time) string {
	switch stage.State {
	case StageCurrent:
		return fmt.Sprintf("%s in progress", stage.Label)
	case StageCompleted:
		if date != nil {
			return fmt.Sprintf("%s completed on %s", stage.Label, date.Format(tooltipDateLayout))
		}
		return fmt.Sprintf("%s completed", stage.Label)
	case StageSkipped:
		return fmt.Sprintf("%s bypassed", stage.Label)
	default:
		return fmt.Sprintf("Awaiting %s", stage.Label)
	}
}
