package errors

import "fmt"

// ErrorCode represents a Sift error code.
type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"        // 400
	ErrInvalidSearch       ErrorCode = "INVALID_SEARCH"         // 400
	ErrNotFound            ErrorCode = "NOT_FOUND"              // 404
	ErrConflict            ErrorCode = "CONFLICT"               // 409
	ErrNothingSelected     ErrorCode = "NOTHING_SELECTED"       // 412
	ErrContainsNonNewCards ErrorCode = "CONTAINS_NON_NEW_CARDS" // 422
	ErrInternal            ErrorCode = "INTERNAL"               // 500
)

// SiftError represents a structured error with code, status, and details.
type SiftError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *SiftError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *SiftError {
	return &SiftError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidSearch creates a 400 error for a malformed search expression.
// The message is surfaced to the user verbatim; previous results stay visible.
func NewInvalidSearch(msg string) *SiftError {
	return &SiftError{
		Code:    ErrInvalidSearch,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing card, note, or deck.
func NewNotFound(kind string, id any) *SiftError {
	return &SiftError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %v", kind, id),
		Details: map[string]any{"kind": kind, "id": id},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *SiftError {
	return &SiftError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewNothingSelected creates a 412 error for a bulk operation invoked on an
// empty selection. Callers treat this as a lightweight no-op notification.
func NewNothingSelected() *SiftError {
	return &SiftError{
		Code:    ErrNothingSelected,
		Status:  412,
		Message: "no rows are selected",
	}
}

// NewContainsNonNewCards creates a 422 rejection for repositioning a selection
// that includes cards outside the new queue. No backend write is attempted.
func NewContainsNonNewCards(count int) *SiftError {
	return &SiftError{
		Code:    ErrContainsNonNewCards,
		Status:  422,
		Message: fmt.Sprintf("selection contains %d cards that are not in the new queue", count),
		Details: map[string]any{"non_new_count": count},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *SiftError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &SiftError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a SiftError with the given code.
func Is(err error, code ErrorCode) bool {
	if sErr, ok := err.(*SiftError); ok {
		return sErr.Code == code
	}
	return false
}
