package lifecycle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
)

func TestValidate_DirectEdge(t *testing.T) {
	edge, err := lifecycle.Validate(lifecycle.KindNCR, lifecycle.StatusDraft, lifecycle.StatusOpen)
	require.NoError(t, err)
	assert.Equal(t, "Submit", edge.Label)
	assert.False(t, edge.RequiresComment)
	assert.False(t, edge.RequiresApproval)

	edge, err = lifecycle.Validate(lifecycle.KindCAPA, lifecycle.StatusPendingVerification, lifecycle.StatusVerified)
	require.NoError(t, err)
	assert.Equal(t, "Mark Verified", edge.Label)
	assert.True(t, edge.RequiresComment)
	assert.True(t, edge.RequiresApproval)
}

func TestValidate_RejectsSkippingStages(t *testing.T) {
	// under_review -> closed has no edge; closing requires passing through
	// pending_disposition first.
	_, err := lifecycle.Validate(lifecycle.KindNCR, lifecycle.StatusUnderReview, lifecycle.StatusClosed)

	var invalid *lifecycle.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, lifecycle.KindNCR, invalid.Kind)
	assert.Equal(t, lifecycle.StatusUnderReview, invalid.From)
	assert.Equal(t, lifecycle.StatusClosed, invalid.To)
	assert.Equal(t, "no such transition", invalid.Reason)
	assert.Equal(t, "invalid NCR transition under_review -> closed: no such transition", err.Error())
}

func TestValidate_TerminalStatus(t *testing.T) {
	_, err := lifecycle.Validate(lifecycle.KindSCAR, lifecycle.StatusClosed, lifecycle.StatusIssued)

	var invalid *lifecycle.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "current status is terminal", invalid.Reason)
}

func TestValidate_UnknownKind(t *testing.T) {
	_, err := lifecycle.Validate(lifecycle.Kind("RMA"), lifecycle.StatusDraft, lifecycle.StatusOpen)

	var invalid *lifecycle.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "unknown record kind", invalid.Reason)
}

func TestValidate_StatusOutsideVocabulary(t *testing.T) {
	_, err := lifecycle.Validate(lifecycle.KindNCR, lifecycle.StatusInProgress, lifecycle.StatusClosed)
	var invalid *lifecycle.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "current status is not in the vocabulary", invalid.Reason)

	_, err = lifecycle.Validate(lifecycle.KindNCR, lifecycle.StatusOpen, lifecycle.StatusSupplierResponse)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "requested status is not in the vocabulary", invalid.Reason)
}

func TestValidate_NoSelfTransition(t *testing.T) {
	_, err := lifecycle.Validate(lifecycle.KindCAPA, lifecycle.StatusOpen, lifecycle.StatusOpen)

	var invalid *lifecycle.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "no such transition", invalid.Reason)
}

func TestAvailableTransitions_DeclarationOrder(t *testing.T) {
	edges := lifecycle.AvailableTransitions(lifecycle.KindCAPA, lifecycle.StatusInProgress)
	require.Len(t, edges, 2)
	assert.Equal(t, lifecycle.StatusPendingVerification, edges[0].To)
	assert.Equal(t, "Request Verification", edges[0].Label)
	assert.Equal(t, lifecycle.StatusCancelled, edges[1].To)
	assert.Equal(t, "Cancel", edges[1].Label)

	edges = lifecycle.AvailableTransitions(lifecycle.KindMRB, lifecycle.StatusDispositionPending)
	require.Len(t, edges, 2)
	assert.Equal(t, "Approve", edges[0].Label)
	assert.Equal(t, "Reject", edges[1].Label)
}

func TestAvailableTransitions_Terminal(t *testing.T) {
	for _, kind := range lifecycle.Kinds() {
		assert.Empty(t, lifecycle.AvailableTransitions(kind, lifecycle.StatusClosed), "%s", kind)
	}
}

func TestAvailableTransitions_UnknownKind(t *testing.T) {
	assert.Nil(t, lifecycle.AvailableTransitions(lifecycle.Kind("RMA"), lifecycle.StatusOpen))
}

// TestAvailableTransitions_AgreesWithValidate cross-checks the two lookup
// paths: everything enumerated validates, and nothing outside the
// enumeration does.
func TestAvailableTransitions_AgreesWithValidate(t *testing.T) {
	for _, kind := range lifecycle.Kinds() {
		for _, from := range lifecycle.Vocabulary(kind) {
			available := make(map[lifecycle.Status]bool)
			for _, edge := range lifecycle.AvailableTransitions(kind, from) {
				available[edge.To] = true
				validated, err := lifecycle.Validate(kind, edge.From, edge.To)
				require.NoError(t, err, "%s %s -> %s", kind, edge.From, edge.To)
				assert.Equal(t, edge, validated)
			}
			for _, to := range lifecycle.Vocabulary(kind) {
				if available[to] {
					continue
				}
				_, err := lifecycle.Validate(kind, from, to)
				assert.Error(t, err, "%s %s -> %s", kind, from, to)
			}
		}
	}
}

func TestAvailableTransitions_ReturnsCopy(t *testing.T) {
	edges := lifecycle.AvailableTransitions(lifecycle.KindNCR, lifecycle.StatusDraft)
	require.Len(t, edges, 2)
	edges[0].Label = "tampered"

	again := lifecycle.AvailableTransitions(lifecycle.KindNCR, lifecycle.StatusDraft)
	assert.Equal(t, "Submit", again[0].Label)
}
