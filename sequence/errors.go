package sequence

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey is returned when a counter key has no type.
	ErrInvalidKey = errors.New("sequence: counter key requires a type")
	// ErrUnknownType is returned when no numbering policy exists for a type.
	ErrUnknownType = errors.New("sequence: unknown sequence type")
	// ErrInvalidPolicy is returned by policy validation.
	ErrInvalidPolicy = errors.New("sequence: invalid numbering policy")
	// ErrNumberSpaceExhausted is returned when the random strategy keeps colliding.
	ErrNumberSpaceExhausted = errors.New("sequence: no free number found")
)

// StorageError reports a failure of the backing counter store.
type StorageError struct {
	Op  string
	Key Key
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("sequence: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageError(op string, key Key, err error) error {
	return &StorageError{Op: op, Key: key, Err: err}
}

// IsStorageError reports whether err was caused by the counter store.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// FormatError is raised (by panic) when the formatter receives values no
// caller should ever produce.
type FormatError struct {
	Prefix   string
	Sequence int64
	Padding  int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("sequence: cannot format prefix=%q sequence=%d padding=%d", e.Prefix, e.Sequence, e.Padding)
}
