package errors

import (
	stderrors "errors"
	"testing"
)

func TestSiftError_Error(t *testing.T) {
	err := NewInvalidSearch("unmatched quote")
	want := "INVALID_SEARCH: unmatched quote"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestConstructors_CodesAndStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    *SiftError
		code   ErrorCode
		status int
	}{
		{"invalid request", NewInvalidRequest("bad"), ErrInvalidRequest, 400},
		{"invalid search", NewInvalidSearch("bad"), ErrInvalidSearch, 400},
		{"not found", NewNotFound("card", 42), ErrNotFound, 404},
		{"conflict", NewConflict("busy"), ErrConflict, 409},
		{"nothing selected", NewNothingSelected(), ErrNothingSelected, 412},
		{"non-new cards", NewContainsNonNewCards(3), ErrContainsNonNewCards, 422},
		{"internal", NewInternal(stderrors.New("boom")), ErrInternal, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Status != tt.status {
				t.Errorf("Status = %d, want %d", tt.err.Status, tt.status)
			}
			if tt.err.Message == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}

func TestNewContainsNonNewCards_Details(t *testing.T) {
	err := NewContainsNonNewCards(2)
	if err.Details["non_new_count"] != 2 {
		t.Errorf("Details[non_new_count] = %v, want 2", err.Details["non_new_count"])
	}
}

func TestNewInternal_NilError(t *testing.T) {
	err := NewInternal(nil)
	if err.Message != "internal error" {
		t.Errorf("Message = %q, want 'internal error'", err.Message)
	}
}

func TestIs(t *testing.T) {
	err := NewNothingSelected()
	if !Is(err, ErrNothingSelected) {
		t.Error("Is should match the error's own code")
	}
	if Is(err, ErrNotFound) {
		t.Error("Is should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrInternal) {
		t.Error("Is should not match a non-SiftError")
	}
	if Is(nil, ErrInternal) {
		t.Error("Is should not match nil")
	}
}
