package lifecycle

import "fmt"

// Project derives the milestone view of a record from its kind and current
// status alone. The result lists the kind's canonical stages in order, each
// classified against the rule table's reachability relation:
//
//   - the stage matching the current status is current,
//   - a stage whose status can still reach the current one was passed and is
//     completed,
//   - a stage the current status can still reach lies ahead and is pending,
//   - a stage that is neither behind nor ahead was bypassed by the path
//     actually taken and is skipped (MRB's rejected path bypasses Approved,
//     a cancelled CAPA bypasses Verification).
//
// Because the graphs are acyclic, at most one of those relations holds per
// stage, so the projection is deterministic and monotonic: nothing before
// the current stage ever reads pending, nothing after it ever reads
// completed. Records imported mid-lifecycle project the same way; Project
// never fails on a reachable status.
func Project(kind Kind, status Status) ([]MilestoneStage, error) {
	g, ok := graphs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if !g.contains(status) {
		return nil, &InvalidStatusError{Kind: kind, Status: status}
	}

	out := make([]MilestoneStage, 0, len(g.stages))
	for _, stage := range g.stages {
		out = append(out, MilestoneStage{
			ID:    stage.Status,
			Label: stage.Label,
			State: stageState(g, stage.Status, status),
		})
	}
	return out, nil
}

func stageState(g *graph, stage, current Status) StageState {
	switch {
	case stage == current:
		return StageCurrent
	case g.reachable(stage, current):
		return StageCompleted
	case g.reachable(current, stage):
		return StagePending
	default:
		return StageSkipped
	}
}
