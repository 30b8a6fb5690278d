package pwreport

import "errors"

// Sentinel errors.
var (
	// ErrConfigNotFound is returned when no .pwreport.yaml is found.
	ErrConfigNotFound = errors.New("pwreport: no .pwreport.yaml found")

	// ErrBadIdentity is returned when an identity string cannot be parsed.
	ErrBadIdentity = errors.New("pwreport: malformed test identity")
)
