package commerce

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals malformed input: non-positive quantity,
	// over-returning, a cross-store reference.
	ErrValidation = errors.New("commerce: invalid input")
	// ErrInvalidTransition indicates a status change not permitted by the
	// state graph.
	ErrInvalidTransition = errors.New("commerce: invalid status transition")
	// ErrNotFound indicates the referenced entity does not exist in the
	// caller's store.
	ErrNotFound = errors.New("commerce: not found")
	// ErrConflict indicates a uniqueness or concurrent-update conflict.
	ErrConflict = errors.New("commerce: conflict")
)

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
}

func InvalidTransitionf(from, to string) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
