package gridsearch

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField  = errors.New("missing field")
	ErrInvalidValue  = errors.New("invalid value")
	ErrUnknownMetric = errors.New("unknown metric")
)

// MissingFieldError reports an absent column, or an absent metric value for
// one ID when ID is set.
type MissingFieldError struct {
	Field string
	ID    string
}

func (e *MissingFieldError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("column %q not found", e.Field)
	}
	return fmt.Sprintf("field %q missing for ID %s", e.Field, e.ID)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// InvalidValueError reports a metric value that is not a usable number.
type InvalidValueError struct {
	ID    string
	Field string
	Value string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid %s value %q for ID %s", e.Field, e.Value, e.ID)
}

func (e *InvalidValueError) Is(target error) bool {
	return target == ErrInvalidValue
}
