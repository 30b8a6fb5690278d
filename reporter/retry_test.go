package reporter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pwreport/pwreport"
)

func id(suite, name string) pwreport.Identity {
	return pwreport.Identity{Suite: suite, Name: name}
}

func TestRecordAttempt_PassIsTerminal(t *testing.T) {
	t.Parallel()

	rec := newTestRecord(id("TestLogin", "test_ok"), 2)

	terminal := recordAttempt(rec, Attempt{Seq: 0, Outcome: pwreport.OutcomePassed})

	assert.True(t, terminal)
	assert.True(t, rec.Terminal())
	assert.Equal(t, pwreport.OutcomePassed, rec.Final)
}

func TestRecordAttempt_NonRetryingOutcomes(t *testing.T) {
	t.Parallel()

	outcomes := []pwreport.Outcome{
		pwreport.OutcomePassed,
		pwreport.OutcomeSkipped,
		pwreport.OutcomeExpectedFail,
		pwreport.OutcomeUnexpectedPass,
		pwreport.OutcomeFlakyPass,
	}

	for _, outcome := range outcomes {
		rec := newTestRecord(id("TestSuite", "test_x"), 5)

		terminal := recordAttempt(rec, Attempt{Seq: 0, Outcome: outcome})

		assert.True(t, terminal, "%s must never retry", outcome)
	}
}

func TestRecordAttempt_FailureRetriesUntilBudgetSpent(t *testing.T) {
	t.Parallel()

	rec := newTestRecord(id("TestFlaky", "test_retry"), 2)

	assert.False(t, recordAttempt(rec, Attempt{Seq: 0, Outcome: pwreport.OutcomeFailed}))
	assert.False(t, recordAttempt(rec, Attempt{Seq: 1, Outcome: pwreport.OutcomeFailed}))
	assert.True(t, recordAttempt(rec, Attempt{Seq: 2, Outcome: pwreport.OutcomeFailed}))

	assert.Equal(t, pwreport.OutcomeFailed, rec.Final)
	assert.Len(t, rec.Attempts, 3)
	assert.Equal(t, 3, rec.failures)
}

func TestRecordAttempt_NoPolicyFailsImmediately(t *testing.T) {
	t.Parallel()

	rec := newTestRecord(id("TestFailing", "test_wrong_title"), 0)

	terminal := recordAttempt(rec, Attempt{Seq: 0, Outcome: pwreport.OutcomeFailed})

	assert.True(t, terminal)
	assert.Equal(t, pwreport.OutcomeFailed, rec.Final)
}

func TestRecordAttempt_FinalIsLastAttemptOutcome(t *testing.T) {
	t.Parallel()

	rec := newTestRecord(id("TestFlaky", "test_passes_on_retry"), 2)

	assert.False(t, recordAttempt(rec, Attempt{Seq: 0, Outcome: pwreport.OutcomeFailed}))
	assert.True(t, recordAttempt(rec, Attempt{Seq: 1, Outcome: pwreport.OutcomeFlakyPass}))

	assert.Equal(t, pwreport.OutcomeFlakyPass, rec.Final)
	assert.Len(t, rec.Attempts, 2, "intermediate failure kept for diagnostics")
}
