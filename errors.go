package ashcache

import (
	"fmt"
	"github.com/jmgilman/go/errors"
)

var (
	// ErrInvalidConfiguration marks a setter argument or option combination that can never build.
	ErrInvalidConfiguration = errors.New(errors.CodeInvalidConfig, "invalid cache configuration")
	// ErrInvalidState marks an operation issued at the wrong point of a lifecycle.
	ErrInvalidState = errors.New(errors.CodeConflict, "invalid state")
	// ErrDuplicateName is returned when a name is already taken inside a manager.
	// It also matches ErrInvalidState.
	ErrDuplicateName = errors.Wrap(ErrInvalidState, errors.CodeAlreadyExists, "duplicate cache name")
	// ErrNullReference marks a required argument that was nil or empty.
	ErrNullReference = errors.New(errors.CodeInvalidInput, "required argument is missing")
	// ErrListenerFailure is recorded when a close listener returns an error or panics.
	ErrListenerFailure = errors.New(errors.CodeInternal, "close listener failed")
	// ErrClosed is returned by data operations on a closed cache.
	ErrClosed = errors.New(errors.CodeConflict, "cache is closed")
	// ErrNotFound is returned by Get when the key is absent and no loader is configured.
	ErrNotFound = errors.New(errors.CodeNotFound, "entry not found")
)

func invalidConfigf(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidConfiguration, errors.CodeInvalidConfig, format, args...)
}

func invalidStatef(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidState, errors.CodeConflict, format, args...)
}

func duplicateNamef(format string, args ...any) error {
	return errors.Wrapf(ErrDuplicateName, errors.CodeAlreadyExists, format, args...)
}

func nullReferencef(format string, args ...any) error {
	return errors.Wrapf(ErrNullReference, errors.CodeInvalidInput, format, args...)
}

// LoadError is what the default exception propagator returns for a failed load.
type LoadError struct {
	Key any
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load of key %v failed: %v", e.Key, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func propagateAsLoadError[K comparable](key K, err error) error {
	return &LoadError{Key: key, Err: err}
}
