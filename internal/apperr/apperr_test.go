package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := InvalidQuery("Invalid SQL syntax")
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected errors.Is(ErrInvalidQuery) to match %v", err)
	}
	if errors.Is(err, ErrStorage) {
		t.Fatalf("invalid query must not match storage sentinel")
	}

	wrapped := fmt.Errorf("gate: %w", err)
	if !errors.Is(wrapped, ErrInvalidQuery) {
		t.Fatalf("expected wrapped error to keep its code")
	}
}

func TestAsClassifiesUnknownErrorsAsStorage(t *testing.T) {
	cause := errors.New("disk I/O error")
	ae := As(cause)
	if ae.Code != CodeStorage {
		t.Fatalf("expected storage_error, got %s", ae.Code)
	}
	if !errors.Is(ae, cause) {
		t.Fatalf("expected cause to be preserved")
	}
	if CodeOf(nil) != "" {
		t.Fatalf("expected empty code for nil")
	}
}

func TestToFailure(t *testing.T) {
	f := ToFailure(New(CodeDuplicateEmail, "customer with email %q already exists", "a@b.c"))
	if f.Code != CodeDuplicateEmail {
		t.Fatalf("unexpected code %s", f.Code)
	}
	if f.Message != `customer with email "a@b.c" already exists` {
		t.Fatalf("unexpected message %q", f.Message)
	}
	if ToFailure(nil) != nil {
		t.Fatalf("expected nil failure for nil error")
	}
}

func TestErrorString(t *testing.T) {
	if got := InvalidArgument("bad threshold").Error(); got != "invalid_argument: bad threshold" {
		t.Fatalf("unexpected error string %q", got)
	}
	if got := (&Error{Code: CodeNotFound}).Error(); got != "not_found" {
		t.Fatalf("unexpected error string %q", got)
	}
}
