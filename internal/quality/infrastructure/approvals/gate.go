package approvals

import (
	"context"
	"fmt"
	"strings"

	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
)

// Role names recognized by the default deployment. Deployments may add
// their own through configuration; the gate only compares strings.
const (
	RoleQualityEngineer = "quality_engineer"
	RoleQualityManager  = "quality_manager"
	RoleAdmin           = "admin"
)

// DefaultApproverRoles may approve disposition and verification edges when
// configuration does not narrow the set.
func DefaultApproverRoles() []string {
	return []string{RoleQualityManager, RoleAdmin}
}

// RoleGate authorizes an actor when the directory assigns them at least one
// approver role.
type RoleGate struct {
	directory RoleDirectory
	approvers map[string]struct{}
}

// NewRoleGate creates a gate over the directory. An empty approverRoles
// falls back to DefaultApproverRoles.
func NewRoleGate(directory RoleDirectory, approverRoles []string) *RoleGate {
	if len(approverRoles) == 0 {
		approverRoles = DefaultApproverRoles()
	}
	approvers := make(map[string]struct{}, len(approverRoles))
	for _, role := range approverRoles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role != "" {
			approvers[role] = struct{}{}
		}
	}
	return &RoleGate{
		directory: directory,
		approvers: approvers,
	}
}

// IsAuthorized reports whether the actor holds an approver role. Edges that
// do not require approval pass for any actor.
func (g *RoleGate) IsAuthorized(ctx context.Context, actor string, edge lifecycle.TransitionEdge) (bool, error) {
	if !edge.RequiresApproval {
		return true, nil
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return false, nil
	}

	roles, err := g.directory.RolesOf(ctx, actor)
	if err != nil {
		return false, fmt.Errorf("failed to resolve roles for %s: %w", actor, err)
	}
	for _, role := range roles {
		if _, ok := g.approvers[strings.ToLower(role)]; ok {
			return true, nil
		}
	}
	return false, nil
}

// AllowAllGate approves every transition. It backs local development where
// no identity source is wired.
type AllowAllGate struct{}

// NewAllowAllGate creates an AllowAllGate.
func NewAllowAllGate() *AllowAllGate {
	return &AllowAllGate{}
}

// IsAuthorized always reports true.
func (AllowAllGate) IsAuthorized(_ context.Context, _ string, _ lifecycle.TransitionEdge) (bool, error) {
	return true, nil
}
