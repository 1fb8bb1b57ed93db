package collab

import (
	"fmt"
	"time"
)

// CollaboratorTimeoutError reports a collaborator call that did not answer
// within its budget. Callers fall back to deterministic behavior instead of
// blocking the conversation.
type CollaboratorTimeoutError struct {
	Service string
	Budget  time.Duration
	Err     error
}

func (e *CollaboratorTimeoutError) Error() string {
	return fmt.Sprintf("collab: %s did not respond within %s: %v", e.Service, e.Budget, e.Err)
}

func (e *CollaboratorTimeoutError) Unwrap() error {
	return e.Err
}

// StatusError reports a non-2xx collaborator response.
type StatusError struct {
	Service string
	Code    int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("collab: %s returned status %d", e.Service, e.Code)
}
