// Package pwreport provides the core data model for the pwreport
// test-outcome reporting engine: test identities, outcome tags, error
// descriptors, and artifacts. The reporting engine itself lives in the
// reporter subpackage.
package pwreport

import (
	"fmt"
	"strings"
)

// Outcome is the canonical tag for a classified test result.
type Outcome string

// Outcome constants, in summary order.
const (
	OutcomePassed         Outcome = "passed"
	OutcomeFailed         Outcome = "failed"
	OutcomeSkipped        Outcome = "skipped"
	OutcomeExpectedFail   Outcome = "expected-failure"
	OutcomeUnexpectedPass Outcome = "unexpected-pass"
	OutcomeFlakyPass      Outcome = "flaky-pass"
)

// Outcomes lists every tag in the order summary counts are reported.
var Outcomes = []Outcome{
	OutcomePassed,
	OutcomeFailed,
	OutcomeSkipped,
	OutcomeExpectedFail,
	OutcomeUnexpectedPass,
	OutcomeFlakyPass,
}

// Retries returns true if a test with this outcome may be rerun.
// Only plain failures are ever retried.
func (o Outcome) Retries() bool {
	return o == OutcomeFailed
}

// ErrorKind categorizes a raised failure. The set is closed; anything
// the builder cannot map lands on KindOther.
type ErrorKind string

// Error kind constants.
const (
	KindAssertion  ErrorKind = "assertion-failure"
	KindIndex      ErrorKind = "index-out-of-range"
	KindKey        ErrorKind = "key-not-found"
	KindType       ErrorKind = "type-mismatch"
	KindArithmetic ErrorKind = "arithmetic-error"
	KindTimeout    ErrorKind = "timeout"
	KindOther      ErrorKind = "other"
)

// ErrorDescriptor is the structured, serializable description of one
// raised failure. Kind derives from the failure's runtime category,
// never from message matching.
type ErrorDescriptor struct {
	Kind     ErrorKind `json:"kind"`
	Message  string    `json:"message"`
	Location string    `json:"location,omitempty"`
}

// Identity is the stable key for one logical test case: suite path,
// function name, and the parametrization id when the case is one
// variant of a parametrized definition. Two identities are equal iff
// all three fields match.
type Identity struct {
	Suite string
	Name  string
	Param string
}

// String renders the identity as "suite::name[param]"; the bracketed
// param is omitted for non-parametrized tests.
func (id Identity) String() string {
	if id.Param == "" {
		return id.Suite + "::" + id.Name
	}

	return fmt.Sprintf("%s::%s[%s]", id.Suite, id.Name, id.Param)
}

// ParseIdentity parses the "suite::name[param]" form produced by
// Identity.String. The suite portion may itself contain "::" path
// separators; the name is the last component.
func ParseIdentity(s string) (Identity, error) {
	i := strings.LastIndex(s, "::")
	if i < 0 {
		return Identity{}, fmt.Errorf("%w: %q", ErrBadIdentity, s)
	}

	id := Identity{Suite: s[:i], Name: s[i+2:]}
	if id.Suite == "" || id.Name == "" {
		return Identity{}, fmt.Errorf("%w: %q", ErrBadIdentity, s)
	}

	if j := strings.IndexByte(id.Name, '['); j >= 0 {
		if !strings.HasSuffix(id.Name, "]") {
			return Identity{}, fmt.Errorf("%w: %q", ErrBadIdentity, s)
		}

		id.Param = id.Name[j+1 : len(id.Name)-1]
		id.Name = id.Name[:j]
	}

	return id, nil
}

// Artifact is an out-of-band byte payload (typically a screenshot)
// attached to one attempt of a test. Either Path or Payload identifies
// the content; Payload is already materialized, never fetched.
type Artifact struct {
	Name      string
	MediaType string
	Path      string
	Payload   []byte
}
