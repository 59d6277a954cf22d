package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflicting request")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrLimitExceeded     = errors.New("inspection limit for the year reached")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

// storeErr wraps a repository failure as retryable. Record-not-found is
// handled separately at each call site.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
