package entity

import (
	"fmt"
	"strings"
)

// SelfReferenceError is returned by Build when an entity lists its own id
// among its parameter names.
type SelfReferenceError struct {
	ID string
}

func (e *SelfReferenceError) Error() string {
	return fmt.Sprintf("entity %q cannot reference itself as a parameter", e.ID)
}

// CircularReferenceError is returned by Build when an entity id reappears in
// its own ancestor chain. Chain holds the full path including the repeated
// id, e.g. ["a", "b", "a"].
type CircularReferenceError struct {
	Chain []string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("circular reference detected: %s", strings.Join(e.Chain, " -> "))
}

// MissingParamsError is returned by Evaluate when template placeholders have
// no corresponding literal parameter or child result. Missing lists every
// unresolved placeholder name, deduplicated, in encounter order.
type MissingParamsError struct {
	NodeID  string
	Missing []string
}

func (e *MissingParamsError) Error() string {
	if len(e.Missing) == 1 {
		return fmt.Sprintf("entity %q is missing parameter %q", e.NodeID, e.Missing[0])
	}
	quoted := make([]string, len(e.Missing))
	for i, name := range e.Missing {
		quoted[i] = fmt.Sprintf("%q", name)
	}
	return fmt.Sprintf("entity %q is missing parameters %s", e.NodeID, strings.Join(quoted, ", "))
}
