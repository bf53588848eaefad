// Package provider holds the upstream error taxonomy shared by the maps and
// language-model adapters.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrUpstreamTimeout indicates an upstream call exceeded its deadline.
	ErrUpstreamTimeout = errors.New("upstream timeout")
	// ErrUpstreamUnavailable covers transport failures, an open circuit
	// (resilience.ErrCircuitOpen) and non-OK upstream statuses.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Classify wraps a raw upstream error with ErrUpstreamTimeout or
// ErrUpstreamUnavailable. The operation name is kept in the message.
// Errors that already carry one of the two sentinels are returned unchanged.
func Classify(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUpstreamTimeout) || errors.Is(err, ErrUpstreamUnavailable) {
		return err
	}
	if IsTimeout(err) {
		return fmt.Errorf("%s: %w: %w", operation, ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", operation, ErrUpstreamUnavailable, err)
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
