package reporter

import "github.com/pwreport/pwreport"

// recordAttempt appends a sealed attempt to the record and decides
// whether the identity is terminal. Non-failed outcomes never retry; a
// failed attempt is terminal once the rerun budget is spent. The
// returned flag tells the host whether to schedule another attempt.
//
// When the terminal attempt follows earlier failures, the record's
// final outcome is the last attempt's outcome (already relabeled
// flaky-pass by the classifier when it is a pass); intermediate failed
// attempts stay in the history for diagnostics but only the final
// outcome counts toward summary totals.
func recordAttempt(rec *TestRecord, a Attempt) (terminal bool) {
	rec.Attempts = append(rec.Attempts, a)

	if a.Outcome == pwreport.OutcomeFailed {
		rec.failures++
	}

	if a.Outcome.Retries() && a.Seq < rec.MaxReruns {
		return false
	}

	rec.Final = a.Outcome
	rec.state = stateTerminal

	return true
}
