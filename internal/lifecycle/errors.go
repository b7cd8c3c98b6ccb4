package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrPreconditionViolation is returned when a transition is not allowed
	// from the book's current location.
	ErrPreconditionViolation = errors.New("lifecycle precondition violated")

	// ErrPageOutOfRange is returned when a page lies outside [0, pageCount].
	ErrPageOutOfRange = fmt.Errorf("%w: page out of range", ErrPreconditionViolation)
)
