// Package intent talks to the Dialogflow ES agent that turns normalized user
// text into a reply.
package intent

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Reply is the useful part of a detect-intent result. Either field may be
// empty: Text is empty when fulfillment produced nothing, IntentName is empty
// when the agent fell back without matching.
type Reply struct {
	Text       string
	IntentName string
}

// Failure classifies a failed backend call for the user-facing reply.
type Failure int

const (
	// FailureGeneric is any failure not covered below.
	FailureGeneric Failure = iota
	// FailureUnreachable means the service rejected our credentials or could
	// not be reached at all.
	FailureUnreachable
)

func (f Failure) String() string {
	switch f {
	case FailureUnreachable:
		return "unreachable"
	default:
		return "generic"
	}
}

// ErrNotConfigured is returned by New when project id or credentials are
// missing.
var ErrNotConfigured = errors.New("intent backend not configured")

// Classify maps a backend error to a Failure using its gRPC status code.
// PermissionDenied (7) counts as an auth failure alongside Unauthenticated.
func Classify(err error) Failure {
	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied, codes.Unavailable:
		return FailureUnreachable
	default:
		return FailureGeneric
	}
}
