package reporter

import "errors"

// Sentinel errors for the reporter package.
var (
	// ErrUnknownIdentity is returned when a finish event arrives for an
	// identity that was never started. This is a host protocol
	// violation; the report is truncated rather than fabricated.
	ErrUnknownIdentity = errors.New("reporter: finish for unknown identity")

	// ErrIdentityFinalized is returned when a finish event arrives for
	// an identity already in a terminal state.
	ErrIdentityFinalized = errors.New("reporter: identity already finalized")

	// ErrSessionSealed is returned when events arrive after the session
	// finished.
	ErrSessionSealed = errors.New("reporter: session already sealed")

	// ErrMaxFailures is returned by StopOnFailHandler when the failure
	// limit is reached.
	ErrMaxFailures = errors.New("reporter: max failures reached")
)
