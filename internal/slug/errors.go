package slug

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateKey is returned by a PersistFunc when the storage layer
	// rejects the write because the slug is already taken in its scope.
	ErrDuplicateKey  = errors.New("slug: duplicate key")
	ErrUnknownEntity = errors.New("slug: unknown entity type")
	ErrMissingScope  = errors.New("slug: missing scope reference")
)

// ValidationError reports a name that already exists within the entity's scope.
type ValidationError struct {
	Entity string
	Field  string
	Value  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Entity, e.Field, e.Value)
}

// StorageError wraps a failure of the storage collaborator during an
// existence check or the final write. A failed check is never assumed to
// have returned false.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("slug: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ExhaustedProbeError is returned when every suffixed variant up to the
// configured cap is already taken.
type ExhaustedProbeError struct {
	Base     string
	Attempts int
}

func (e *ExhaustedProbeError) Error() string {
	return fmt.Sprintf("slug: no free variant of %q after %d attempts", e.Base, e.Attempts)
}
