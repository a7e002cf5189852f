package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "explicit_transient", err: NewTransientError(errors.New("overloaded"), 503), want: true},
		{name: "wrapped_transient", err: fmt.Errorf("api call: %w", NewTransientError(errors.New("rate limited"), 429)), want: true},
		{name: "explicit_permanent", err: NewPermanentError(errors.New("not found"), 404), want: false},
		{name: "regular_error", err: errors.New("invalid input: missing field"), want: false},
		{name: "conn_reset", err: fmt.Errorf("write tcp: %w", syscall.ECONNRESET), want: true},
		{name: "conn_refused", err: fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED), want: true},
		{name: "dns_timeout", err: &net.DNSError{IsTimeout: true, Err: "timeout"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsTransient_StringPatterns(t *testing.T) {
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

func TestPermanentBeatsTransientHeuristics(t *testing.T) {
	// A permanent marker anywhere in the chain must win, even when the
	// message matches a transient pattern.
	err := NewPermanentError(errors.New("i/o timeout while parsing body"), 0)
	if IsTransient(err) {
		t.Error("permanent error must never be transient")
	}
	if !IsPermanent(fmt.Errorf("wrapped: %w", err)) {
		t.Error("expected wrapped PermanentError to be permanent")
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("expected HTTP %d to be transient", code)
		}
	}
	for _, code := range []int{200, 201, 301, 400, 401, 403, 404, 422} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("expected HTTP %d to be non-transient", code)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("root cause")

	te := NewTransientError(inner, 503)
	if !errors.Is(te, inner) {
		t.Error("TransientError should unwrap to its cause")
	}
	pe := NewPermanentError(inner, 404)
	if !errors.Is(pe, inner) {
		t.Error("PermanentError should unwrap to its cause")
	}
}
