// Package approvals decides which actors may take approval-gated
// transitions. The rule table marks the edges; this package answers for
// the actors.
package approvals

import (
	"context"
	"strings"
)

// RoleDirectory resolves the roles assigned to an actor.
type RoleDirectory interface {
	RolesOf(ctx context.Context, actor string) ([]string, error)
}

// StaticDirectory is a fixed actor-to-roles table loaded from
// configuration.
type StaticDirectory struct {
	roles map[string][]string
}

// NewStaticDirectory normalizes the given assignments. Role names are
// lower-cased; actor names are kept as-is.
func NewStaticDirectory(assignments map[string][]string) *StaticDirectory {
	roles := make(map[string][]string, len(assignments))
	for actor, assigned := range assignments {
		actor = strings.TrimSpace(actor)
		if actor == "" {
			continue
		}
		cleaned := make([]string, 0, len(assigned))
		for _, role := range assigned {
			role = strings.ToLower(strings.TrimSpace(role))
			if role != "" {
				cleaned = append(cleaned, role)
			}
		}
		roles[actor] = cleaned
	}
	return &StaticDirectory{roles: roles}
}

// RolesOf returns the actor's roles, or nil for an unknown actor.
func (d *StaticDirectory) RolesOf(_ context.Context, actor string) ([]string, error) {
	return d.roles[actor], nil
}

// ParseAssignments reads "actor=role1|role2,other=role" from
// configuration. Malformed entries are skipped.
func ParseAssignments(s string) map[string][]string {
	assignments := make(map[string][]string)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		actor, roleList, ok := strings.Cut(entry, "=")
		actor = strings.TrimSpace(actor)
		if !ok || actor == "" {
			continue
		}
		var roles []string
		for _, role := range strings.Split(roleList, "|") {
			role = strings.ToLower(strings.TrimSpace(role))
			if role != "" {
				roles = append(roles, role)
			}
		}
		if len(roles) > 0 {
			assignments[actor] = roles
		}
	}
	return assignments
}
