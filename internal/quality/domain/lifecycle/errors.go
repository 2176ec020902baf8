package lifecycle

import (
	"errors"
	"fmt"
)

// ErrUnknownKind is returned when a value is not one of the four record kinds.
var ErrUnknownKind = errors.New("unknown record kind")

// InvalidStatusError reports a status outside its kind's vocabulary.
type InvalidStatusError struct {
	Kind   Kind
	Status Status
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("status %q is not in the %s vocabulary", e.Status, e.Kind)
}

// InvalidTransitionError reports a requested transition with no matching
// edge in the rule table. It is a client-visible, recoverable rejection:
// nothing has been mutated when it is returned.
type InvalidTransitionError struct {
	Kind   Kind
	From   Status
	To     Status
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition %s -> %s: %s", e.Kind, e.From, e.To, e.Reason)
}

// MissingCommentError reports an edge whose mandatory comment was empty or
// whitespace-only.
type MissingCommentError struct {
	Kind Kind
	From Status
	To   Status
}

func (e *MissingCommentError) Error() string {
	return fmt.Sprintf("%s transition %s -> %s requires a comment", e.Kind, e.From, e.To)
}

// UnauthorizedError reports an approval gate refusing the acting identity
// for an approval-requiring edge.
type UnauthorizedError struct {
	Actor string
	Kind  Kind
	From  Status
	To    Status
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("actor %q is not authorized for %s transition %s -> %s", e.Actor, e.Kind, e.From, e.To)
}
