package library

import "fmt"

// LoadError reports a failed fetch or decode. Loads are not retried; the
// calling game decides whether a failed load is fatal to its setup.
type LoadError struct {
	Name   string
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load sound %q from %s: %v", e.Name, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LookupError reports that the content-search provider returned nothing
// or the network call failed.
type LookupError struct {
	Name  string
	Query string
	Err   error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("failed to look up sound %q (query %q): %v", e.Name, e.Query, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }
