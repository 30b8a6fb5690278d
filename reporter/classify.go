package reporter

import "github.com/pwreport/pwreport"

// ClassifyInput is everything the outcome classifier sees for one
// finished attempt. Conditional skips are resolved to a plain
// directive before this point; the classifier never evaluates
// conditions.
type ClassifyInput struct {
	Raised        bool // an error was raised during the attempt
	Skipped       bool // a skip directive applies
	Xfail         bool // an expected-failure directive applies
	Attempt       int  // 0-based attempt sequence number
	PriorFailures int  // failed attempts before this one
}

// Classify maps one attempt's raw execution result to exactly one
// outcome tag. Priority: skip beats everything; expected-failure beats
// plain pass/fail; a pass that follows failed attempts is flaky-pass.
func Classify(in ClassifyInput) pwreport.Outcome {
	switch {
	case in.Skipped:
		return pwreport.OutcomeSkipped
	case in.Xfail && in.Raised:
		return pwreport.OutcomeExpectedFail
	case in.Xfail:
		// Passing a known-broken test is an anomaly, not a pass.
		return pwreport.OutcomeUnexpectedPass
	case in.Raised:
		return pwreport.OutcomeFailed
	case in.Attempt > 0 && in.PriorFailures > 0:
		return pwreport.OutcomeFlakyPass
	default:
		return pwreport.OutcomePassed
	}
}
