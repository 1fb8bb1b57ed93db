package workflow

import "fmt"

// #region errors

// MissingContextError reports an event that requires a context field the
// conversation has not established. The machine never substitutes a default.
type MissingContextError struct {
	Field string
}

func (e *MissingContextError) Error() string {
	return fmt.Sprintf("workflow: required context field %q is not set", e.Field)
}

// InvalidTransitionError reports an event that is not valid for the current
// state. State is left unchanged.
type InvalidTransitionError struct {
	State State
	Event EventKind
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("workflow: event %q is not valid in state %q", e.Event, e.State)
}

// InvalidQuoteError reports a submitted quote whose fields cannot feed the
// comparison. A zero unit price would win every ranking.
type InvalidQuoteError struct {
	Supplier string
	Field    string
}

func (e *InvalidQuoteError) Error() string {
	return fmt.Sprintf("workflow: quote from %q has invalid %s", e.Supplier, e.Field)
}

// #endregion errors
