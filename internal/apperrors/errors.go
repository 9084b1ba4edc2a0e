package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for malformed queries before any external call is made.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is returned when a referenced recipe, log or price does not exist.
	ErrNotFound = errors.New("not found")
)

// Kind classifies an error for logging, failure records and HTTP mapping.
type Kind string

const (
	KindInvalidArgument Kind = "invalid_argument"
	KindNotFound        Kind = "not_found"
	KindProvider        Kind = "provider"
	KindValidation      Kind = "validation"
	KindInternal        Kind = "internal"
)

// ProviderError wraps a failed LLM call: transport failure, non-2xx status,
// or a response with no usable choice/data.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err as a ProviderError for operation op.
func NewProviderError(op string, err error) error {
	return &ProviderError{Op: op, Err: err}
}

// ValidationError reports generated content that failed a quality gate.
type ValidationError struct {
	Rule   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed: %s", e.Rule, e.Reason)
}

// InvalidArgument returns an error wrapping ErrInvalidArgument with a message.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// NotFound returns an error wrapping ErrNotFound with a message.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// KindOf classifies err. A nil error has an empty kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	var perr *ProviderError
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.As(err, &verr):
		return KindValidation
	case errors.As(err, &perr):
		return KindProvider
	default:
		return KindInternal
	}
}
