package session

import "fmt"

// RepositoryCorruptionError reports a stored conversation row whose context
// payload can no longer be decoded. The row is left in place for inspection.
type RepositoryCorruptionError struct {
	ConversationID string
	Err            error
}

func (e *RepositoryCorruptionError) Error() string {
	return fmt.Sprintf("session: conversation %s has a corrupt context payload: %v", e.ConversationID, e.Err)
}

func (e *RepositoryCorruptionError) Unwrap() error {
	return e.Err
}
