// Package lifecycle defines the status graphs of the four quality record
// kinds and the projections derived from them. Everything in this package is
// pure: the graphs are fixed at process start and all functions only read
// them.
package lifecycle

import "fmt"

// Kind identifies one of the four quality record types. It never changes
// after a record is created and selects which status vocabulary and
// transition graph apply.
type Kind string

const (
	KindNCR  Kind = "NCR"
	KindCAPA Kind = "CAPA"
	KindSCAR Kind = "SCAR"
	KindMRB  Kind = "MRB"
)

// Kinds returns all record kinds in canonical order.
func Kinds() []Kind {
	return []Kind{KindNCR, KindCAPA, KindSCAR, KindMRB}
}

// ParseKind converts external input into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindNCR, KindCAPA, KindSCAR, KindMRB:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Valid reports whether k is one of the four record kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindNCR, KindCAPA, KindSCAR, KindMRB:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }

// DisplayName returns the long form of the kind for presentation.
func (k Kind) DisplayName() string {
	switch k {
	case KindNCR:
		return "Non-Conformance Report"
	case KindCAPA:
		return "Corrective/Preventive Action"
	case KindSCAR:
		return "Supplier Corrective Action Request"
	case KindMRB:
		return "Material Review Board Disposition"
	default:
		return string(k)
	}
}
