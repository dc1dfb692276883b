package itinerary

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDirection = errors.New("invalid direction")
	ErrUnknownMeal      = errors.New("meal not found")
	ErrInvalidPatch     = errors.New("invalid itinerary update")
)

const (
	OpOptimizeRoute = "optimize route"
	OpOptimizeDay   = "optimize day"
)

// OperationError names the user operation that failed
type OperationError struct {
	Op  string
	Day int
	Err error
}

func (e *OperationError) Error() string {
	if e.Day > 0 {
		return fmt.Sprintf("%s failed (day %d): %v", e.Op, e.Day, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
