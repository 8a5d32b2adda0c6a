package store

import "fmt"

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = fmt.Errorf("object not found")

// ErrConflict is returned when a unique constraint is violated.
var ErrConflict = fmt.Errorf("conflict")
