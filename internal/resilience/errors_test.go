package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
)

func TestIsTransientTaggedProviderError(t *testing.T) {
	err := NewTransientError(errors.New("openai: unexpected status 503"), 503)
	if !IsTransient(err) {
		t.Error("tagged provider overload must be transient")
	}
}

func TestIsTransientWrappedProviderError(t *testing.T) {
	inner := NewTransientError(errors.New("anthropic: rate limited"), 429)
	wrapped := fmt.Errorf("extract brand mentions: %w", inner)
	if !IsTransient(wrapped) {
		t.Error("wrapping must not hide the transient tag")
	}
}

func TestIsTransientNil(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil is not transient")
	}
}

func TestIsTransientPermanentProviderError(t *testing.T) {
	err := errors.New("openai: invalid api key")
	if IsTransient(err) {
		t.Error("auth failures must not be retried")
	}
}

func TestIsTransientConnectionErrors(t *testing.T) {
	cases := []error{
		fmt.Errorf("write tcp: %w", syscall.ECONNRESET),
		fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED),
		&net.DNSError{IsTimeout: true, Err: "timeout"},
	}
	for _, err := range cases {
		if !IsTransient(err) {
			t.Errorf("expected %v to be transient", err)
		}
	}
}

func TestIsTransientStringPatterns(t *testing.T) {
	patterns := []string{
		"connection reset by peer",
		"broken pipe",
		"TLS handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	}
	for _, p := range patterns {
		if !IsTransient(errors.New(p)) {
			t.Errorf("expected %q to be transient", p)
		}
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	// The provider client tags these as retryable; everything else is a
	// permanent per-provider failure recorded on the response row.
	transient := []int{408, 429, 500, 502, 503, 504}
	for _, code := range transient {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("HTTP %d should be transient", code)
		}
	}

	permanent := []int{200, 201, 400, 401, 403, 404, 405, 409, 422}
	for _, code := range permanent {
		if IsTransientHTTPStatus(code) {
			t.Errorf("HTTP %d should not be transient", code)
		}
	}
}

func TestTransientErrorUnwrap(t *testing.T) {
	inner := errors.New("openai: unexpected status 502")
	te := NewTransientError(inner, 502)

	if !errors.Is(te, inner) {
		t.Error("Unwrap must expose the provider error")
	}
	if te.StatusCode != 502 {
		t.Errorf("StatusCode = %d, want 502", te.StatusCode)
	}
}

func TestTransientErrorMessage(t *testing.T) {
	inner := errors.New("anthropic: overloaded")
	te := NewTransientError(inner, 529)

	if te.Error() != "anthropic: overloaded" {
		t.Errorf("Error() = %q, want the inner message", te.Error())
	}
}
