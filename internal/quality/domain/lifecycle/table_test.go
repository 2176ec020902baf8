package lifecycle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
)

func TestVocabularies(t *testing.T) {
	tests := []struct {
		kind    lifecycle.Kind
		initial lifecycle.Status
		vocab   []lifecycle.Status
	}{
		{
			kind:    lifecycle.KindNCR,
			initial: lifecycle.StatusDraft,
			vocab: []lifecycle.Status{
				lifecycle.StatusDraft, lifecycle.StatusOpen, lifecycle.StatusUnderReview,
				lifecycle.StatusPendingDisposition, lifecycle.StatusClosed,
			},
		},
		{
			kind:    lifecycle.KindCAPA,
			initial: lifecycle.StatusDraft,
			vocab: []lifecycle.Status{
				lifecycle.StatusDraft, lifecycle.StatusOpen, lifecycle.StatusInProgress,
				lifecycle.StatusPendingVerification, lifecycle.StatusVerified,
				lifecycle.StatusCancelled, lifecycle.StatusClosed,
			},
		},
		{
			kind:    lifecycle.KindSCAR,
			initial: lifecycle.StatusDraft,
			vocab: []lifecycle.Status{
				lifecycle.StatusDraft, lifecycle.StatusIssued, lifecycle.StatusSupplierResponse,
				lifecycle.StatusReview, lifecycle.StatusClosed,
			},
		},
		{
			kind:    lifecycle.KindMRB,
			initial: lifecycle.StatusPendingReview,
			vocab: []lifecycle.Status{
				lifecycle.StatusPendingReview, lifecycle.StatusInReview,
				lifecycle.StatusDispositionPending, lifecycle.StatusApproved,
				lifecycle.StatusRejected, lifecycle.StatusClosed,
			},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.vocab, lifecycle.Vocabulary(tt.kind))
			assert.Equal(t, tt.initial, lifecycle.InitialStatus(tt.kind))
			for _, s := range tt.vocab {
				assert.True(t, lifecycle.Contains(tt.kind, s), "vocabulary member %s", s)
			}
		})
	}
}

func TestVocabulary_UnknownKind(t *testing.T) {
	assert.Nil(t, lifecycle.Vocabulary(lifecycle.Kind("DMR")))
	assert.Empty(t, lifecycle.InitialStatus(lifecycle.Kind("DMR")))
	assert.False(t, lifecycle.Contains(lifecycle.Kind("DMR"), lifecycle.StatusOpen))
}

func TestParseKind(t *testing.T) {
	kind, err := lifecycle.ParseKind("SCAR")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.KindSCAR, kind)

	_, err = lifecycle.ParseKind("scar")
	require.ErrorIs(t, err, lifecycle.ErrUnknownKind)
}

func TestParseStatus(t *testing.T) {
	status, err := lifecycle.ParseStatus(lifecycle.KindCAPA, "pending_verification")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusPendingVerification, status)

	// under_review belongs to NCR, not CAPA.
	_, err = lifecycle.ParseStatus(lifecycle.KindCAPA, "under_review")
	var invalid *lifecycle.InvalidStatusError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, lifecycle.KindCAPA, invalid.Kind)
}

// reachability rebuilds the transitive closure from the public edge list so
// the structural checks below do not depend on package internals.
func reachability(kind lifecycle.Kind) map[lifecycle.Status]map[lifecycle.Status]bool {
	out := make(map[lifecycle.Status][]lifecycle.Status)
	for _, e := range lifecycle.Edges(kind) {
		out[e.From] = append(out[e.From], e.To)
	}
	reach := make(map[lifecycle.Status]map[lifecycle.Status]bool)
	for _, s := range lifecycle.Vocabulary(kind) {
		seen := make(map[lifecycle.Status]bool)
		stack := []lifecycle.Status{s}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, next := range out[cur] {
				if !seen[next] {
					seen[next] = true
					stack = append(stack, next)
				}
			}
		}
		reach[s] = seen
	}
	return reach
}

func TestGraphs_NoSelfLoopsAndNoDuplicates(t *testing.T) {
	for _, kind := range lifecycle.Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			seen := make(map[[2]lifecycle.Status]bool)
			for _, e := range lifecycle.Edges(kind) {
				assert.NotEqual(t, e.From, e.To, "self-loop on %s", e.From)
				key := [2]lifecycle.Status{e.From, e.To}
				assert.False(t, seen[key], "duplicate edge %s -> %s", e.From, e.To)
				seen[key] = true
				assert.True(t, lifecycle.Contains(kind, e.From))
				assert.True(t, lifecycle.Contains(kind, e.To))
				assert.Equal(t, kind, e.Kind)
				assert.NotEmpty(t, e.Label)
			}
		})
	}
}

func TestGraphs_EveryStatusReachesATerminal(t *testing.T) {
	for _, kind := range lifecycle.Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			reach := reachability(kind)
			for _, s := range lifecycle.Vocabulary(kind) {
				if lifecycle.IsTerminal(kind, s) {
					continue
				}
				found := false
				for target := range reach[s] {
					if lifecycle.IsTerminal(kind, target) {
						found = true
						break
					}
				}
				assert.True(t, found, "%s %s has no path to a terminal status", kind, s)
			}
		})
	}
}

func TestGraphs_Acyclic(t *testing.T) {
	for _, kind := range lifecycle.Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			reach := reachability(kind)
			for _, s := range lifecycle.Vocabulary(kind) {
				assert.False(t, reach[s][s], "%s %s sits on a cycle", kind, s)
			}
		})
	}
}

func TestGraphs_EveryStatusReachableFromInitial(t *testing.T) {
	for _, kind := range lifecycle.Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			reach := reachability(kind)
			initial := lifecycle.InitialStatus(kind)
			for _, s := range lifecycle.Vocabulary(kind) {
				if s == initial {
					continue
				}
				assert.True(t, reach[initial][s], "%s %s unreachable from %s", kind, s, initial)
			}
		})
	}
}

func TestGraphs_TerminalStatuses(t *testing.T) {
	// closed is the only terminal everywhere; MRB's approved and rejected
	// keep their edge to closed and so are not terminal.
	for _, kind := range lifecycle.Kinds() {
		assert.True(t, lifecycle.IsTerminal(kind, lifecycle.StatusClosed), "%s closed", kind)
	}
	assert.False(t, lifecycle.IsTerminal(lifecycle.KindMRB, lifecycle.StatusApproved))
	assert.False(t, lifecycle.IsTerminal(lifecycle.KindMRB, lifecycle.StatusRejected))
	assert.False(t, lifecycle.IsTerminal(lifecycle.KindCAPA, lifecycle.StatusCancelled))
	assert.False(t, lifecycle.IsTerminal(lifecycle.KindCAPA, lifecycle.StatusVerified))
}

func TestStages_BackboneMembership(t *testing.T) {
	for _, kind := range lifecycle.Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			stages := lifecycle.Stages(kind)
			require.Len(t, stages, 5)
			assert.Equal(t, lifecycle.InitialStatus(kind), stages[0].Status)
			assert.Equal(t, lifecycle.StatusClosed, stages[len(stages)-1].Status)

			seen := make(map[lifecycle.Status]bool)
			for _, st := range stages {
				assert.True(t, lifecycle.Contains(kind, st.Status))
				assert.False(t, seen[st.Status], "status %s mapped to two stages", st.Status)
				seen[st.Status] = true
				assert.NotEmpty(t, st.Label)
			}
		})
	}
}

func TestEntryDate(t *testing.T) {
	tests := []struct {
		kind   lifecycle.Kind
		status lifecycle.Status
		field  lifecycle.DateField
	}{
		{lifecycle.KindNCR, lifecycle.StatusOpen, lifecycle.DateOpened},
		{lifecycle.KindNCR, lifecycle.StatusClosed, lifecycle.DateClosed},
		{lifecycle.KindCAPA, lifecycle.StatusInProgress, lifecycle.DateWorkStarted},
		{lifecycle.KindCAPA, lifecycle.StatusCancelled, lifecycle.DateCancelled},
		{lifecycle.KindSCAR, lifecycle.StatusIssued, lifecycle.DateIssued},
		{lifecycle.KindSCAR, lifecycle.StatusSupplierResponse, lifecycle.DateResponded},
		{lifecycle.KindMRB, lifecycle.StatusApproved, lifecycle.DateDecided},
		{lifecycle.KindMRB, lifecycle.StatusRejected, lifecycle.DateDecided},
	}
	for _, tt := range tests {
		field, ok := lifecycle.EntryDate(tt.kind, tt.status)
		require.True(t, ok, "%s %s", tt.kind, tt.status)
		assert.Equal(t, tt.field, field)
	}

	// The initial status is stamped by creation, not by a transition.
	_, ok := lifecycle.EntryDate(lifecycle.KindNCR, lifecycle.StatusDraft)
	assert.False(t, ok)
}

func TestKindDisplayName(t *testing.T) {
	assert.Equal(t, "Non-Conformance Report", lifecycle.KindNCR.DisplayName())
	assert.Equal(t, "Material Review Board Disposition", lifecycle.KindMRB.DisplayName())
}
