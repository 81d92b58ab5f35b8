package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrConnection = errors.New("connection failed")
	ErrValidation = errors.New("Validation Error")
	ErrStorage    = errors.New("storage failure")
)

type AppError struct {
	Err     error  // sentinel kind (ErrConnection, ErrValidation, ...)
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying driver error
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the cause so errors.Is matches either.
func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// ConnectionFailed wraps a failure to reach or authenticate against the
// storage backend. Message is the driver's own reason, shown to the visitor.
func ConnectionFailed(cause error) *AppError {
	msg := "database connection failed"
	if cause != nil {
		msg = cause.Error()
	}
	return &AppError{
		Err:     ErrConnection,
		Message: msg,
		Cause:   cause,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// StorageFailed marks a schema, insert or query failure. HTTP handlers map
// this to 500.
func StorageFailed(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrStorage,
		Message: fmt.Sprintf("%s: %v", op, cause),
		Cause:   cause,
	}
}
