package pricing

import (
	"fmt"

	"github.com/tripflow/tripflow/internal/shared"
)

// ValidationError reports invalid input to a pure calculation. The caller
// can always recover by correcting the input; nothing is clamped silently
// except the documented margin floor in ApplyPriceTarget.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is treat every ValidationError as shared.ErrValidation.
func (e *ValidationError) Unwrap() error {
	return shared.ErrValidation
}

func validationErrorf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
