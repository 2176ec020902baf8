package approvals_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/quality/infrastructure/approvals"
)

// failingDirectory simulates an unreachable identity source.
type failingDirectory struct{ err error }

func (d failingDirectory) RolesOf(context.Context, string) ([]string, error) {
	return nil, d.err
}

func approvalEdge(t *testing.T) lifecycle.TransitionEdge {
	t.Helper()
	edge, err := lifecycle.Validate(lifecycle.KindNCR, lifecycle.StatusPendingDisposition, lifecycle.StatusClosed)
	require.NoError(t, err)
	require.True(t, edge.RequiresApproval)
	return edge
}

func plainEdge(t *testing.T) lifecycle.TransitionEdge {
	t.Helper()
	edge, err := lifecycle.Validate(lifecycle.KindNCR, lifecycle.StatusDraft, lifecycle.StatusOpen)
	require.NoError(t, err)
	require.False(t, edge.RequiresApproval)
	return edge
}

func TestRoleGate_IsAuthorized(t *testing.T) {
	ctx := context.Background()
	directory := approvals.NewStaticDirectory(map[string][]string{
		"qm.okafor":   {approvals.RoleQualityManager},
		"qe.marsh":    {approvals.RoleQualityEngineer},
		"ops.delgado": {"production_supervisor"},
	})
	gate := approvals.NewRoleGate(directory, nil)

	t.Run("actor with an approver role passes", func(t *testing.T) {
		ok, err := gate.IsAuthorized(ctx, "qm.okafor", approvalEdge(t))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("engineer role is not an approver by default", func(t *testing.T) {
		ok, err := gate.IsAuthorized(ctx, "qe.marsh", approvalEdge(t))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unrelated role is refused", func(t *testing.T) {
		ok, err := gate.IsAuthorized(ctx, "ops.delgado", approvalEdge(t))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown actor is refused", func(t *testing.T) {
		ok, err := gate.IsAuthorized(ctx, "nobody", approvalEdge(t))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("blank actor is refused without a lookup", func(t *testing.T) {
		ok, err := gate.IsAuthorized(ctx, "   ", approvalEdge(t))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("edges without approval pass for anyone", func(t *testing.T) {
		ok, err := gate.IsAuthorized(ctx, "nobody", plainEdge(t))
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestRoleGate_ConfiguredApproverRoles(t *testing.T) {
	ctx := context.Background()
	directory := approvals.NewStaticDirectory(map[string][]string{
		"qm.okafor": {approvals.RoleQualityManager},
		"qe.marsh":  {approvals.RoleQualityEngineer},
	})
	gate := approvals.NewRoleGate(directory, []string{approvals.RoleQualityEngineer})

	ok, err := gate.IsAuthorized(ctx, "qe.marsh", approvalEdge(t))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = gate.IsAuthorized(ctx, "qm.okafor", approvalEdge(t))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRoleGate_DirectoryError(t *testing.T) {
	dirErr := errors.New("directory unavailable")
	gate := approvals.NewRoleGate(failingDirectory{err: dirErr}, nil)

	ok, err := gate.IsAuthorized(context.Background(), "qm.okafor", approvalEdge(t))
	assert.False(t, ok)
	assert.ErrorIs(t, err, dirErr)
}

func TestAllowAllGate_IsAuthorized(t *testing.T) {
	gate := approvals.NewAllowAllGate()

	ok, err := gate.IsAuthorized(context.Background(), "", approvalEdge(t))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStaticDirectory_NormalizesRoles(t *testing.T) {
	directory := approvals.NewStaticDirectory(map[string][]string{
		"qm.okafor": {" Quality_Manager ", ""},
	})

	roles, err := directory.RolesOf(context.Background(), "qm.okafor")
	require.NoError(t, err)
	assert.Equal(t, []string{"quality_manager"}, roles)

	roles, err = directory.RolesOf(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestParseAssignments(t *testing.T) {
	t.Run("parses actors with multiple roles", func(t *testing.T) {
		assignments := approvals.ParseAssignments("qm.okafor=quality_manager|admin, qe.marsh=quality_engineer")

		assert.Equal(t, map[string][]string{
			"qm.okafor": {"quality_manager", "admin"},
			"qe.marsh":  {"quality_engineer"},
		}, assignments)
	})

	t.Run("skips malformed entries", func(t *testing.T) {
		assignments := approvals.ParseAssignments("noequals, =quality_manager, qe.marsh=")

		assert.Empty(t, assignments)
	})

	t.Run("empty input yields an empty table", func(t *testing.T) {
		assert.Empty(t, approvals.ParseAssignments(""))
	})
}
