package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("receipt not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemporary        = errors.New("temporary failure")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrMutationInFlight = errors.New("mutation already in flight")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// errNote is a bare cause for WrapError call sites that have no underlying
// error to wrap.
type errNote string

func (e errNote) Error() string { return string(e) }
