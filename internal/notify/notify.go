// Package notify delivers outbound notifications: a one-shot reminder sent
// from the command line and a recurring urgent-stock reminder.
package notify

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrDestinationUnresolved means the target chat does not exist.
	ErrDestinationUnresolved = errors.New("destination could not be resolved")
	// ErrInvalidAck means the transport accepted a send without returning a
	// message id sent by this account.
	ErrInvalidAck = errors.New("send was not acknowledged")
	// ErrNotConnected means a recurring tick found no logged-in session.
	ErrNotConnected = errors.New("chat session not connected")
)

// Failure kinds reported by ClassifySend.
const (
	FailureUnresolved = "unresolved"
	FailureInvalidAck = "invalid_ack"
	FailureRejected   = "send_rejected"
	FailureTimeout    = "timeout"
	FailureTransport  = "transport"
	FailureCanceled   = "canceled"
	FailureOther      = "other"
)

var (
	timeoutMarkers   = []string{"timed out", "timeout", "deadline exceeded"}
	transportMarkers = []string{"websocket", "not connected", "not logged in", "connection", "socket"}
	rejectedMarkers  = []string{"rejected", "server returned error", "not-acceptable", "forbidden", "not-authorized"}
)

// ClassifySend names the kind of a failed send for diagnostics.
func ClassifySend(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDestinationUnresolved):
		return FailureUnresolved
	case errors.Is(err, ErrInvalidAck):
		return FailureInvalidAck
	case errors.Is(err, context.Canceled):
		return FailureCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, rejectedMarkers):
		return FailureRejected
	case containsAny(msg, timeoutMarkers):
		return FailureTimeout
	case containsAny(msg, transportMarkers):
		return FailureTransport
	default:
		return FailureOther
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
