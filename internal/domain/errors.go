package domain

import (
	"errors"
	"fmt"
)

var (
	ErrFlightNotFound  = errors.New("flight not found")
	ErrBookingNotFound = errors.New("booking not found")

	ErrInsufficientSeats = errors.New("insufficient seats")
	ErrSeatTaken         = errors.New("seat already taken")
	ErrInvalidTransition = errors.New("action not allowed in the current state")

	ErrNotAuthenticated = errors.New("not authenticated")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidStatus    = fmt.Errorf("%w: invalid booking status", ErrInvalidInput)

	ErrUnknownSeatClass   = fmt.Errorf("%w: unknown seat class", ErrInvalidInput)
	ErrDuplicateSeatClass = fmt.Errorf("%w: seat class allocated more than once", ErrInvalidInput)
	ErrInvalidSeatCounts  = fmt.Errorf("%w: available seats must be between 0 and total seats", ErrInvalidInput)
	ErrInvalidPassengers  = fmt.Errorf("%w: passengers must be between 1 and %d", ErrInvalidInput, MaxPassengers)

	// ErrUnavailable marks transient backend failures that are safe to retry.
	ErrUnavailable = errors.New("backend unavailable")
)

// IsTransient reports whether err is worth retrying as-is.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
