package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapMsgKeepsCode(t *testing.T) {
	err := ErrNotAuthenticated.WrapMsg("join room", "room", "chat_42")
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("wrapped error lost its code: %v", err)
	}
	if errors.Is(err, ErrUnknownConnection) {
		t.Fatalf("error matched the wrong sentinel: %v", err)
	}

	var ce *CodeError
	if !errors.As(err, &ce) {
		t.Fatal("not a CodeError")
	}
	if ce.Code != ErrNotAuthenticated.Code {
		t.Fatalf("code = %d", ce.Code)
	}
	if ce.Detail == "" {
		t.Fatal("detail dropped")
	}
}

func TestWrapMsgThroughFmtErrorf(t *testing.T) {
	err := fmt.Errorf("handling event: %w", ErrInvalidCredential.WrapMsg("expired"))
	if !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("nested wrap lost the code: %v", err)
	}
}

func TestWithDetailAccumulates(t *testing.T) {
	e := NewCodeError(9000, "boom").WithDetail("first").WithDetail("second")
	if e.Detail != "first, second" {
		t.Fatalf("detail = %q", e.Detail)
	}
	if e.Error() == "" {
		t.Fatal("empty Error()")
	}
}
