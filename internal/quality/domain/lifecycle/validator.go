package lifecycle

// Validate resolves a requested transition to its rule-table edge. The
// lookup is a direct (kind, from, to) match: no implicit multi-hop moves,
// no special cases. A failed lookup is a recoverable rejection carrying the
// reason; nothing is ever mutated here.
func Validate(kind Kind, from, to Status) (TransitionEdge, error) {
	g, ok := graphs[kind]
	if !ok {
		return TransitionEdge{}, &InvalidTransitionError{
			Kind: kind, From: from, To: to,
			Reason: "unknown record kind",
		}
	}
	if !g.contains(from) {
		return TransitionEdge{}, &InvalidTransitionError{
			Kind: kind, From: from, To: to,
			Reason: "current status is not in the vocabulary",
		}
	}
	if !g.contains(to) {
		return TransitionEdge{}, &InvalidTransitionError{
			Kind: kind, From: from, To: to,
			Reason: "requested status is not in the vocabulary",
		}
	}
	for _, e := range g.out[from] {
		if e.To == to {
			return e, nil
		}
	}
	reason := "no such transition"
	if len(g.out[from]) == 0 {
		reason = "current status is terminal"
	}
	return TransitionEdge{}, &InvalidTransitionError{Kind: kind, From: from, To: to, Reason: reason}
}

// AvailableTransitions enumerates the legal next edges from a status in
// declaration order, so presentation layers can offer exactly the legal
// actions without attempting each one. Unknown kinds or statuses yield an
// empty slice.
func AvailableTransitions(kind Kind, from Status) []TransitionEdge {
	g, ok := graphs[kind]
	if !ok {
		return nil
	}
	edges := g.out[from]
	out := make([]TransitionEdge, len(edges))
	copy(out, edges)
	return out
}
