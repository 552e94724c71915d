package engine

import "fmt"

// NotFoundError reports a play request for an unregistered asset. This is
// a caller bug and fails loudly: silently dropping a cue would
// desynchronize a timed sequence.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("sound %q is not loaded", e.Name)
}
