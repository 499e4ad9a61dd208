package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeForbidden, http.StatusForbidden},
		{CodeStateConflict, http.StatusUnprocessableEntity},
		{CodeInvariant, http.StatusUnprocessableEntity},
		{CodeConflict, http.StatusConflict},
		{CodeInsufficientStock, http.StatusConflict},
		{CodeIdempotency, http.StatusConflict},
		{CodeRateLimit, http.StatusTooManyRequests},
		{CodeDependency, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Errorf("%s: expected status %d got %d", tc.code, tc.status, got)
		}
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback got %d", meta.HTTPStatus)
	}
}

func TestDependencyIsRetryable(t *testing.T) {
	if !MetadataFor(CodeDependency).Retryable {
		t.Fatal("dependency errors must be retryable")
	}
	if MetadataFor(CodeStateConflict).Retryable {
		t.Fatal("state conflicts must not be retryable")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeDependency, cause, "carrier call failed")
	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be discoverable via errors.Is")
	}
	if err.Error() != "DEPENDENCY_ERROR: carrier call failed" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	inner := New(CodeInsufficientStock, "item out of stock")
	wrapped := Wrap(CodeInternal, inner, "confirm payment")
	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeInternal {
		t.Fatalf("expected outermost code got %s", typed.Code())
	}
	if !IsCode(inner, CodeInsufficientStock) {
		t.Fatal("IsCode should match the inner error")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeConflict, stdErrors.New("version mismatch"), "persist order")
	dump := Dump(err)
	if dump.Code != CodeConflict {
		t.Fatalf("unexpected code %s", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected 2 chain entries got %d", len(dump.Chain))
	}
}
