package lifecycle

import "fmt"

// graph is the compiled transition rule table of one kind: the closed
// vocabulary, the canonical stage list, the edge set, and the reachability
// relation derived from the edges. Graphs are built once at package init
// and never mutated; a malformed definition is a programming error and
// panics at startup rather than surfacing at request time.
type graph struct {
	kind       Kind
	initial    Status
	vocabulary []Status
	stages     []Stage
	edges      []TransitionEdge
	out        map[Status][]TransitionEdge
	reach      map[Status]map[Status]bool
	entryDates map[Status]DateField
}

type graphDef struct {
	kind       Kind
	initial    Status
	vocabulary []Status
	stages     []Stage
	edges      []TransitionEdge
	entryDates map[Status]DateField
}

var graphs = map[Kind]*graph{
	KindNCR:  mustGraph(ncrDef()),
	KindCAPA: mustGraph(capaDef()),
	KindSCAR: mustGraph(scarDef()),
	KindMRB:  mustGraph(mrbDef()),
}

func ncrDef() graphDef {
	return graphDef{
		kind:    KindNCR,
		initial: StatusDraft,
		vocabulary: []Status{
			StatusDraft, StatusOpen, StatusUnderReview, StatusPendingDisposition, StatusClosed,
		},
		stages: []Stage{
			{Status: StatusDraft, Label: "Draft"},
			{Status: StatusOpen, Label: "Open", DateField: DateOpened},
			{Status: StatusUnderReview, Label: "Under Review", DateField: DateReviewStarted},
			{Status: StatusPendingDisposition, Label: "Pending Disposition", DateField: DateDispositionRequested},
			{Status: StatusClosed, Label: "Closed", DateField: DateClosed},
		},
		edges: []TransitionEdge{
			{Kind: KindNCR, From: StatusDraft, To: StatusOpen, Label: "Submit"},
			{Kind: KindNCR, From: StatusDraft, To: StatusClosed, Label: "Withdraw", RequiresComment: true},
			{Kind: KindNCR, From: StatusOpen, To: StatusUnderReview, Label: "Start Review"},
			{Kind: KindNCR, From: StatusUnderReview, To: StatusPendingDisposition, Label: "Request Disposition"},
			{Kind: KindNCR, From: StatusPendingDisposition, To: StatusClosed, Label: "Close", RequiresComment: true, RequiresApproval: true},
		},
		entryDates: map[Status]DateField{
			StatusOpen:               DateOpened,
			StatusUnderReview:        DateReviewStarted,
			StatusPendingDisposition: DateDispositionRequested,
			StatusClosed:             DateClosed,
		},
	}
}

func capaDef() graphDef {
	return graphDef{
		kind:    KindCAPA,
		initial: StatusDraft,
		vocabulary: []Status{
			StatusDraft, StatusOpen, StatusInProgress, StatusPendingVerification,
			StatusVerified, StatusCancelled, StatusClosed,
		},
		stages: []Stage{
			{Status: StatusDraft, Label: "Draft"},
			{Status: StatusOpen, Label: "Open", DateField: DateOpened},
			{Status: StatusInProgress, Label: "In Progress", DateField: DateWorkStarted},
			{Status: StatusPendingVerification, Label: "Verification", DateField: DateVerificationRequested},
			{Status: StatusClosed, Label: "Closed", DateField: DateClosed},
		},
		edges: []TransitionEdge{
			{Kind: KindCAPA, From: StatusDraft, To: StatusOpen, Label: "Submit"},
			{Kind: KindCAPA, From: StatusOpen, To: StatusInProgress, Label: "Start Work"},
			{Kind: KindCAPA, From: StatusOpen, To: StatusCancelled, Label: "Cancel", RequiresComment: true, RequiresApproval: true},
			{Kind: KindCAPA, From: StatusInProgress, To: StatusPendingVerification, Label: "Request Verification", RequiresComment: true},
			{Kind: KindCAPA, From: StatusInProgress, To: StatusCancelled, Label: "Cancel", RequiresComment: true, RequiresApproval: true},
			{Kind: KindCAPA, From: StatusPendingVerification, To: StatusVerified, Label: "Mark Verified", RequiresComment: true, RequiresApproval: true},
			{Kind: KindCAPA, From: StatusPendingVerification, To: StatusClosed, Label: "Close", RequiresComment: true},
			{Kind: KindCAPA, From: StatusVerified, To: StatusClosed, Label: "Close"},
			{Kind: KindCAPA, From: StatusCancelled, To: StatusClosed, Label: "Close"},
		},
		entryDates: map[Status]DateField{
			StatusOpen:                DateOpened,
			StatusInProgress:          DateWorkStarted,
			StatusPendingVerification: DateVerificationRequested,
			StatusVerified:            DateVerified,
			StatusCancelled:           DateCancelled,
			StatusClosed:              DateClosed,
		},
	}
}

func scarDef() graphDef {
	return graphDef{
		kind:    KindSCAR,
		initial: StatusDraft,
		vocabulary: []Status{
			StatusDraft, StatusIssued, StatusSupplierResponse, StatusReview, StatusClosed,
		},
		stages: []Stage{
			{Status: StatusDraft, Label: "Draft"},
			{Status: StatusIssued, Label: "Issued", DateField: DateIssued},
			{Status: StatusSupplierResponse, Label: "Response", DateField: DateResponded},
			{Status: StatusReview, Label: "Review", DateField: DateReviewStarted},
			{Status: StatusClosed, Label: "Closed", DateField: DateClosed},
		},
		edges: []TransitionEdge{
			{Kind: KindSCAR, From: StatusDraft, To: StatusIssued, Label: "Issue to Supplier"},
			{Kind: KindSCAR, From: StatusDraft, To: StatusClosed, Label: "Withdraw", RequiresComment: true},
			{Kind: KindSCAR, From: StatusIssued, To: StatusSupplierResponse, Label: "Record Response"},
			{Kind: KindSCAR, From: StatusIssued, To: StatusClosed, Label: "Close Without Response", RequiresComment: true, RequiresApproval: true},
			{Kind: KindSCAR, From: StatusSupplierResponse, To: StatusReview, Label: "Send to Review"},
			{Kind: KindSCAR, From: StatusReview, To: StatusClosed, Label: "Close", RequiresComment: true, RequiresApproval: true},
		},
		entryDates: map[Status]DateField{
			StatusIssued:           DateIssued,
			StatusSupplierResponse: DateResponded,
			StatusReview:           DateReviewStarted,
			StatusClosed:           DateClosed,
		},
	}
}

func mrbDef() graphDef {
	return graphDef{
		kind:    KindMRB,
		initial: StatusPendingReview,
		vocabulary: []Status{
			StatusPendingReview, StatusInReview, StatusDispositionPending,
			StatusApproved, StatusRejected, StatusClosed,
		},
		stages: []Stage{
			{Status: StatusPendingReview, Label: "Pending Review"},
			{Status: StatusInReview, Label: "In Review", DateField: DateReviewStarted},
			{Status: StatusDispositionPending, Label: "Disposition", DateField: DateDispositionRequested},
			{Status: StatusApproved, Label: "Approved", DateField: DateDecided},
			{Status: StatusClosed, Label: "Closed", DateField: DateClosed},
		},
		edges: []TransitionEdge{
			{Kind: KindMRB, From: StatusPendingReview, To: StatusInReview, Label: "Begin Review"},
			{Kind: KindMRB, From: StatusInReview, To: StatusDispositionPending, Label: "Request Disposition"},
			{Kind: KindMRB, From: StatusDispositionPending, To: StatusApproved, Label: "Approve", RequiresComment: true, RequiresApproval: true},
			{Kind: KindMRB, From: StatusDispositionPending, To: StatusRejected, Label: "Reject", RequiresComment: true, RequiresApproval: true},
			{Kind: KindMRB, From: StatusApproved, To: StatusClosed, Label: "Close"},
			{Kind: KindMRB, From: StatusRejected, To: StatusClosed, Label: "Close"},
		},
		entryDates: map[Status]DateField{
			StatusInReview:           DateReviewStarted,
			StatusDispositionPending: DateDispositionRequested,
			StatusApproved:           DateDecided,
			StatusRejected:           DateDecided,
			StatusClosed:             DateClosed,
		},
	}
}

func mustGraph(def graphDef) *graph {
	g, err := newGraph(def)
	if err != nil {
		panic(fmt.Sprintf("lifecycle: %s rule table: %v", def.kind, err))
	}
	return g
}

// newGraph compiles and verifies a rule table definition. The static
// properties checked here are the load-bearing invariants of the whole
// subsystem: every projection and validation decision reduces to lookups
// against the structures built here.
func newGraph(def graphDef) (*graph, error) {
	if !def.kind.Valid() {
		return nil, fmt.Errorf("invalid kind %q", def.kind)
	}
	if len(def.vocabulary) == 0 {
		return nil, fmt.Errorf("empty vocabulary")
	}

	vocab := make(map[Status]bool, len(def.vocabulary))
	for _, s := range def.vocabulary {
		if s == "" {
			return nil, fmt.Errorf("empty status in vocabulary")
		}
		if vocab[s] {
			return nil, fmt.Errorf("duplicate status %q in vocabulary", s)
		}
		vocab[s] = true
	}
	if !vocab[def.initial] {
		return nil, fmt.Errorf("initial status %q not in vocabulary", def.initial)
	}

	if len(def.stages) == 0 {
		return nil, fmt.Errorf("no canonical stages")
	}
	seenStage := make(map[Status]bool, len(def.stages))
	for _, st := range def.stages {
		if !vocab[st.Status] {
			return nil, fmt.Errorf("stage %q not in vocabulary", st.Status)
		}
		if seenStage[st.Status] {
			return nil, fmt.Errorf("status %q appears in two canonical stages", st.Status)
		}
		seenStage[st.Status] = true
	}
	if def.stages[0].Status != def.initial {
		return nil, fmt.Errorf("first canonical stage %q is not the initial status", def.stages[0].Status)
	}

	out := make(map[Status][]TransitionEdge, len(def.vocabulary))
	seenEdge := make(map[[2]Status]bool, len(def.edges))
	for _, e := range def.edges {
		if e.Kind != def.kind {
			return nil, fmt.Errorf("edge %s -> %s tagged with kind %q", e.From, e.To, e.Kind)
		}
		if !vocab[e.From] || !vocab[e.To] {
			return nil, fmt.Errorf("edge %s -> %s leaves the vocabulary", e.From, e.To)
		}
		if e.From == e.To {
			return nil, fmt.Errorf("self-loop on %q", e.From)
		}
		key := [2]Status{e.From, e.To}
		if seenEdge[key] {
			return nil, fmt.Errorf("duplicate edge %s -> %s", e.From, e.To)
		}
		seenEdge[key] = true
		out[e.From] = append(out[e.From], e)
	}

	// Transitive closure; a status reaching itself means the edge set has a
	// cycle, which would make "reached-or-passed" projection ambiguous.
	reach := make(map[Status]map[Status]bool, len(def.vocabulary))
	for _, s := range def.vocabulary {
		seen := make(map[Status]bool)
		stack := []Status{s}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, e := range out[cur] {
				if !seen[e.To] {
					seen[e.To] = true
					stack = append(stack, e.To)
				}
			}
		}
		if seen[s] {
			return nil, fmt.Errorf("cycle through %q", s)
		}
		reach[s] = seen
	}

	for _, s := range def.vocabulary {
		if s != def.initial && !reach[def.initial][s] {
			return nil, fmt.Errorf("status %q unreachable from initial %q", s, def.initial)
		}
		if len(out[s]) == 0 {
			continue // terminal
		}
		reachesTerminal := false
		for t := range reach[s] {
			if len(out[t]) == 0 {
				reachesTerminal = true
				break
			}
		}
		if !reachesTerminal {
			return nil, fmt.Errorf("status %q cannot reach a terminal status", s)
		}
	}
	last := def.stages[len(def.stages)-1].Status
	if len(out[last]) != 0 {
		return nil, fmt.Errorf("final canonical stage %q is not terminal", last)
	}

	for s := range def.entryDates {
		if !vocab[s] {
			return nil, fmt.Errorf("entry date for %q outside the vocabulary", s)
		}
	}

	return &graph{
		kind:       def.kind,
		initial:    def.initial,
		vocabulary: def.vocabulary,
		stages:     def.stages,
		edges:      def.edges,
		out:        out,
		reach:      reach,
		entryDates: def.entryDates,
	}, nil
}

func (g *graph) contains(s Status) bool {
	for _, v := range g.vocabulary {
		if v == s {
			return true
		}
	}
	return false
}

// reachable reports whether to can be reached from from by following one or
// more edges.
func (g *graph) reachable(from, to Status) bool {
	return g.reach[from][to]
}
