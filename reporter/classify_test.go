package reporter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pwreport/pwreport"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   ClassifyInput
		want pwreport.Outcome
	}{
		{
			name: "clean pass",
			in:   ClassifyInput{},
			want: pwreport.OutcomePassed,
		},
		{
			name: "raised error fails",
			in:   ClassifyInput{Raised: true},
			want: pwreport.OutcomeFailed,
		},
		{
			name: "skip wins over everything",
			in:   ClassifyInput{Skipped: true, Raised: true, Xfail: true},
			want: pwreport.OutcomeSkipped,
		},
		{
			name: "xfail with error is expected failure",
			in:   ClassifyInput{Xfail: true, Raised: true},
			want: pwreport.OutcomeExpectedFail,
		},
		{
			name: "xfail without error is an anomaly",
			in:   ClassifyInput{Xfail: true},
			want: pwreport.OutcomeUnexpectedPass,
		},
		{
			name: "pass after prior failures is flaky",
			in:   ClassifyInput{Attempt: 1, PriorFailures: 1},
			want: pwreport.OutcomeFlakyPass,
		},
		{
			name: "first attempt pass is never flaky",
			in:   ClassifyInput{Attempt: 0, PriorFailures: 0},
			want: pwreport.OutcomePassed,
		},
		{
			name: "retried failure stays failed",
			in:   ClassifyInput{Raised: true, Attempt: 2, PriorFailures: 2},
			want: pwreport.OutcomeFailed,
		},
		{
			name: "xfail on retry still expected failure",
			in:   ClassifyInput{Xfail: true, Raised: true, Attempt: 1, PriorFailures: 1},
			want: pwreport.OutcomeExpectedFail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, Classify(tt.in))
		})
	}
}
