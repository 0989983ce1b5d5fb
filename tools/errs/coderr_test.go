package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCodeErrorIs(t *testing.T) {
	if !errors.Is(ErrTokenInvalid, ErrTokenInvalid) {
		t.Fatal("sentinel should match itself")
	}
	if errors.Is(ErrTokenInvalid, ErrUserNotFound) {
		t.Fatal("different codes must not match")
	}
}

func TestWithDetailKeepsIdentity(t *testing.T) {
	detailed := ErrTokenInvalid.WithDetail("missing sub")
	if !errors.Is(detailed, ErrTokenInvalid) {
		t.Fatal("detailed copy should still match the sentinel")
	}
	if !strings.Contains(detailed.Error(), "missing sub") {
		t.Fatalf("detail lost: %q", detailed.Error())
	}
}

func TestWrapKeepsIdentityAndCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	wrapped := ErrPersistence.Wrap(cause)

	if !errors.Is(wrapped, ErrPersistence) {
		t.Fatal("wrapped error should match the sentinel")
	}
	if !strings.Contains(wrapped.Error(), "connection refused") {
		t.Fatalf("cause text lost: %q", wrapped.Error())
	}
}

func TestWrapNilCause(t *testing.T) {
	if err := ErrPersistence.Wrap(nil); !errors.Is(err, ErrPersistence) {
		t.Fatal("nil cause should return the sentinel itself")
	}
}

func TestWrapMsg(t *testing.T) {
	if WrapMsg(nil, "ctx") != nil {
		t.Fatal("nil in, nil out")
	}
	err := WrapMsg(ErrUserNotFound, "resolving subject")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatal("identity lost through WrapMsg")
	}
	if !strings.Contains(err.Error(), "resolving subject") {
		t.Fatalf("message lost: %q", err.Error())
	}
}
