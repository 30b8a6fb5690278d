// Package reporter implements the pwreport run aggregation engine: it
// consumes per-test lifecycle events from a host runner, classifies
// outcomes, tracks retries and artifacts, and seals one deterministic
// report per run.
package reporter

import (
	"time"

	"github.com/pwreport/pwreport"
)

// Action represents the type of progress event fanned out to handlers.
type Action string

// Action constants for progress events.
const (
	ActionRun   Action = "run"
	ActionRetry Action = "retry"
	ActionPass  Action = "passed"
	ActionFail  Action = "failed"
	ActionSkip  Action = "skipped"
	ActionXfail Action = "expected-failure"
	ActionXpass Action = "unexpected-pass"
	ActionFlaky Action = "flaky-pass"
)

// IsTerminal returns true if this action ends a test.
func (a Action) IsTerminal() bool {
	return a != ActionRun && a != ActionRetry
}

// actionFor maps a final outcome to its progress action.
func actionFor(o pwreport.Outcome) Action {
	switch o {
	case pwreport.OutcomePassed:
		return ActionPass
	case pwreport.OutcomeFailed:
		return ActionFail
	case pwreport.OutcomeSkipped:
		return ActionSkip
	case pwreport.OutcomeExpectedFail:
		return ActionXfail
	case pwreport.OutcomeUnexpectedPass:
		return ActionXpass
	case pwreport.OutcomeFlakyPass:
		return ActionFlaky
	default:
		return ActionFail
	}
}

// Event is a single progress event emitted by the aggregator while a
// run is in flight. Terminal events carry the identity's final outcome.
type Event struct {
	Time     time.Time         // When the event occurred
	Action   Action            // What happened
	Identity pwreport.Identity // Which test
	Attempt  int               // 0-based attempt sequence number
	Outcome  pwreport.Outcome  // Final outcome (terminal events)
	Elapsed  time.Duration     // Attempt duration (terminal and retry events)

	// Error details for failed, expected-failure, and retried attempts.
	Err *pwreport.ErrorDescriptor
}

// ID returns the identity string, e.g. "TestLogin::test_ok[valid]".
func (e Event) ID() string {
	return e.Identity.String()
}

// RaisedError is a failure as first observed at the collaborator
// boundary: its runtime category, message, and optional source
// location. Downstream logic only ever sees the ErrorDescriptor built
// from it.
type RaisedError struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

// Directive is a skip or expected-failure marker resolved at
// collection time. Conditional skips reach the engine as the resolved
// boolean; Reason is carried into the report message.
type Directive struct {
	Reason string `json:"reason,omitempty"`
}

// FinishEvent describes one finished attempt of a test, as delivered
// by the host runner.
type FinishEvent struct {
	Attempt   int
	Error     *RaisedError
	Skip      *Directive
	Xfail     *Directive
	Duration  time.Duration
	Artifacts []pwreport.Artifact
}
