package lookup

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrorCode identifies a class of lookup failure.
type ErrorCode int

const (
	// ErrCodeInvalidOption is returned when an invalid option is provided.
	ErrCodeInvalidOption ErrorCode = iota + 1000

	// ErrCodeInvalidExpression is returned when a filter cannot be evaluated or translated.
	ErrCodeInvalidExpression

	// ErrCodeTimeout is returned when a search operation times out.
	ErrCodeTimeout

	// ErrCodeCanceled is returned when a search operation is canceled.
	ErrCodeCanceled

	// ErrCodeBackendUnavailable is returned when the search backend is unavailable.
	ErrCodeBackendUnavailable
)

// String implements fmt.Stringer.
func (e ErrorCode) String() string {
	switch e {
	case ErrCodeInvalidOption:
		return "invalid option"
	case ErrCodeInvalidExpression:
		return "invalid expression"
	case ErrCodeTimeout:
		return "operation timed out"
	case ErrCodeCanceled:
		return "operation canceled"
	case ErrCodeBackendUnavailable:
		return "backend unavailable"
	default:
		return "unknown error"
	}
}

func newErrorWithCode(code ErrorCode, msg string) error {
	err := errors.New(msg)
	return errors.WithSecondaryError(err, errors.Newf("code: %d", int(code)))
}

var (
	ErrInvalidOption      = newErrorWithCode(ErrCodeInvalidOption, "lookup: invalid option")
	ErrInvalidExpression  = newErrorWithCode(ErrCodeInvalidExpression, "lookup: invalid expression")
	ErrTimeout            = newErrorWithCode(ErrCodeTimeout, "lookup: operation timed out")
	ErrCanceled           = newErrorWithCode(ErrCodeCanceled, "lookup: operation canceled")
	ErrBackendUnavailable = newErrorWithCode(ErrCodeBackendUnavailable, "lookup: backend unavailable")
)

// FromContext maps a context error to ErrTimeout or ErrCanceled. Other
// errors are returned unchanged.
func FromContext(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return errors.Mark(errors.WithStack(err), ErrTimeout)
	case errors.Is(err, context.Canceled):
		return errors.Mark(errors.WithStack(err), ErrCanceled)
	default:
		return err
	}
}
