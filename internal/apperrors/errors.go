package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates the caller may not perform the action.
var ErrForbidden = errors.New("forbidden")

// Budget engine errors. The *NotFound variants wrap ErrNotFound so callers
// can match either the specific or the generic error.
var (
	ErrInvalidPeriod         = fmt.Errorf("%w: period end is before period start", ErrValidation)
	ErrBudgetNotFound        = fmt.Errorf("budget %w", ErrNotFound)
	ErrBudgetLineNotFound    = fmt.Errorf("budget line %w", ErrNotFound)
	ErrRuleNotFound          = fmt.Errorf("assignment rule %w", ErrNotFound)
	ErrAlertNotFound         = fmt.Errorf("budget alert %w", ErrNotFound)
	ErrSuggestionNotFound    = fmt.Errorf("assignment suggestion %w", ErrNotFound)
	ErrInvalidTransition     = errors.New("invalid budget status transition")
	ErrAlreadyAcknowledged   = errors.New("alert already acknowledged")
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	ErrConcurrentUpdate      = errors.New("concurrent update conflict")
)

// AppError carries an HTTP-ish status code alongside an underlying error.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
