package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestSyncErrorMessage(t *testing.T) {
	cause := stderrors.New("disk full")
	err := NewStorageError(OpStore, cause)

	want := "store operation failed in store component [STORAGE]: disk full"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := NewWithComponent(OpPush, "remote", cause)

	if !stderrors.Is(err, cause) {
		t.Fatalf("expected errors.Is to reach the cause")
	}
}

func TestKindOfTraversesChain(t *testing.T) {
	cause := NewSchemaNotProvisioned(OpPull, stderrors.New("record type missing"))
	wrapped := fmt.Errorf("pull phase: %w", cause)

	if KindOf(wrapped) != KindSchemaNotProvisioned {
		t.Fatalf("expected kind to survive wrapping, got %q", KindOf(wrapped))
	}
	if !IsSchemaNotProvisioned(wrapped) {
		t.Fatalf("expected IsSchemaNotProvisioned")
	}
}

func TestRetryable(t *testing.T) {
	if !IsRetryable(NewRetryable(OpPush, stderrors.New("timeout"))) {
		t.Fatalf("expected retryable")
	}
	if IsRetryable(NewStorageError(OpStore, stderrors.New("validation"))) {
		t.Fatalf("storage errors are not retryable within a pass")
	}
	if IsRetryable(stderrors.New("plain")) {
		t.Fatalf("plain errors are not retryable")
	}
}

func TestWrapOpComponentNil(t *testing.T) {
	if WrapOpComponent(nil, OpLoad, "store") != nil {
		t.Fatalf("nil in, nil out")
	}
	if WrapOpComponentKind(nil, OpLoad, "store", KindStorage) != nil {
		t.Fatalf("nil in, nil out")
	}
}

func TestWrapOpComponentKindTransientIsRetryable(t *testing.T) {
	err := WrapOpComponentKind(stderrors.New("rate limited"), OpPush, "remote", KindTransient)
	if !IsRetryable(err) {
		t.Fatalf("transient wraps should be retryable")
	}
}
