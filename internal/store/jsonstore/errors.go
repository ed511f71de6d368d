package jsonstore

import "fmt"

// HydrationError means a stored value exists but is not a valid list.
type HydrationError struct {
	Key string
	Err error
}

func (e *HydrationError) Error() string {
	return fmt.Sprintf("hydrate %q: %v", e.Key, e.Err)
}

func (e *HydrationError) Unwrap() error { return e.Err }

// PersistenceError means the backend refused a read or write. In-memory
// state stays authoritative when it is returned.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
