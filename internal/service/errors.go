package service

import (
	"errors"
	"fmt"

	"globaltext/internal/repository"
)

var (
	ErrAuthentication      = errors.New("authentication required")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUpstream            = errors.New("upstream provider failed")
	ErrStaleState          = errors.New("record changed state")
	ErrConflict            = errors.New("conflict")
	ErrUnsupportedMedia    = errors.New("unsupported media type")
)

// fromRepo translates storage sentinels into the service taxonomy.
func fromRepo(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, repository.ErrConditionFailed):
		return fmt.Errorf("%w: %s", ErrStaleState, what)
	case errors.Is(err, repository.ErrInsufficientFunds):
		return fmt.Errorf("%w: %s", ErrInsufficientBalance, what)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %s", ErrConflict, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
