package lifecycle

// TransitionEdge is one permitted status-to-status move. Edges are immutable
// and declared once per kind at process start; the set of edges is the
// single source of truth for both validation and projection.
type TransitionEdge struct {
	Kind  Kind   `json:"kind"`
	From  Status `json:"from"`
	To    Status `json:"to"`
	Label string `json:"label"`

	// RequiresComment gates the edge on a non-blank comment: transitions
	// that discard work or record a decision must carry a rationale.
	RequiresComment bool `json:"requires_comment"`

	// RequiresApproval defers the edge to the approval gate collaborator.
	RequiresApproval bool `json:"requires_approval"`
}

// Edges returns every transition edge of a kind in declaration order, or
// nil for an unknown kind.
func Edges(kind Kind) []TransitionEdge {
	g, ok := graphs[kind]
	if !ok {
		return nil
	}
	out := make([]TransitionEdge, len(g.edges))
	copy(out, g.edges)
	return out
}
