package reporter

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pwreport/pwreport"
)

// Formatter renders progress events and the final document.
type Formatter interface {
	Format(event Event) error
	Summary(doc *Document) error
}

// FormatHandler is a Handler that delegates to a Formatter.
type FormatHandler struct {
	formatter Formatter
	stderr    io.Writer
}

// NewFormatHandler creates a handler that formats events.
func NewFormatHandler(f Formatter, stderr io.Writer) *FormatHandler {
	return &FormatHandler{formatter: f, stderr: stderr}
}

// Event formats the event.
func (h *FormatHandler) Event(_ context.Context, event Event) error {
	return h.formatter.Format(event)
}

// Err writes to stderr.
func (h *FormatHandler) Err(text string) error {
	_, err := h.stderr.Write([]byte(text + "\n"))

	return err
}

// Summary renders the final summary.
func (h *FormatHandler) Summary(doc *Document) error {
	return h.formatter.Summary(doc)
}

// -----------------------------------------------------------------------------
// Dots Formatter
// -----------------------------------------------------------------------------

// DotsFormatter is a minimal formatter that prints one character per
// final outcome.
type DotsFormatter struct {
	w     io.Writer
	count int
}

// NewDotsFormatter creates a dots formatter.
func NewDotsFormatter(w io.Writer) *DotsFormatter {
	return &DotsFormatter{w: w}
}

const lineWidth = 80

// glyphFor maps final outcomes to their progress characters.
func glyphFor(o pwreport.Outcome) string {
	switch o {
	case pwreport.OutcomePassed:
		return "."
	case pwreport.OutcomeFailed:
		return "F"
	case pwreport.OutcomeSkipped:
		return "s"
	case pwreport.OutcomeExpectedFail:
		return "x"
	case pwreport.OutcomeUnexpectedPass:
		return "X"
	case pwreport.OutcomeFlakyPass:
		return "R"
	default:
		return "?"
	}
}

// Format prints a single character per terminal event.
func (d *DotsFormatter) Format(event Event) error {
	if !event.Action.IsTerminal() {
		return nil
	}

	_, err := fmt.Fprint(d.w, glyphFor(event.Outcome))
	d.count++

	if d.count%lineWidth == 0 {
		_, _ = fmt.Fprintln(d.w)
	}

	return err
}

// Summary prints failing tests and the final counts.
func (d *DotsFormatter) Summary(doc *Document) error {
	if d.count > 0 && d.count%lineWidth != 0 {
		_, _ = fmt.Fprintln(d.w)
	}

	_, _ = fmt.Fprintln(d.w)

	for _, test := range doc.Tests {
		switch pwreport.Outcome(test.Outcome) {
		case pwreport.OutcomeFailed:
			_, _ = fmt.Fprintf(d.w, "FAIL %s\n", test.ID)

			if last := lastError(test); last != nil {
				_, _ = fmt.Fprintf(d.w, "  %s: %s\n", last.Kind, last.Message)
			}
			_, _ = fmt.Fprintln(d.w)
		case pwreport.OutcomeUnexpectedPass:
			_, _ = fmt.Fprintf(d.w, "XPASS %s (expected to fail)\n", test.ID)
			_, _ = fmt.Fprintln(d.w)
		}
	}

	status := "PASS"
	if ExitCode(doc) != 0 {
		status = "FAIL"
	}

	s := doc.Summary
	_, _ = fmt.Fprintf(d.w, "%s %d tests, %d passed, %d failed, %d skipped, %d xfail, %d xpass, %d flaky\n",
		status, s.Total(), s.Passed, s.Failed, s.Skipped, s.ExpectedFail, s.UnexpectedPass, s.FlakyPass)

	if doc.Error != "" {
		_, _ = fmt.Fprintf(d.w, "ERROR %s\n", doc.Error)
	}

	return nil
}

// lastError returns the last attempt's error, if any.
func lastError(test TestDoc) *ErrorDoc {
	for i := len(test.Attempts) - 1; i >= 0; i-- {
		if test.Attempts[i].Error != nil {
			return test.Attempts[i].Error
		}
	}

	return nil
}

// -----------------------------------------------------------------------------
// Verbose Formatter
// -----------------------------------------------------------------------------

// VerboseFormatter prints full test identities and error details.
type VerboseFormatter struct {
	w io.Writer
}

// NewVerboseFormatter creates a verbose formatter.
func NewVerboseFormatter(w io.Writer) *VerboseFormatter {
	return &VerboseFormatter{w: w}
}

// Format prints each event as it occurs.
func (v *VerboseFormatter) Format(event Event) error {
	switch event.Action {
	case ActionRun:
		_, _ = fmt.Fprintf(v.w, "=== RUN   %s\n", event.ID())
	case ActionRetry:
		_, _ = fmt.Fprintf(v.w, "=== RETRY %s (attempt %d failed, %s)\n",
			event.ID(), event.Attempt, event.Elapsed)

		if event.Err != nil {
			_, _ = fmt.Fprintf(v.w, "    %s: %s\n", event.Err.Kind, event.Err.Message)
		}
	case ActionPass:
		_, _ = fmt.Fprintf(v.w, "--- PASS: %s (%s)\n", event.ID(), event.Elapsed)
	case ActionFail:
		_, _ = fmt.Fprintf(v.w, "--- FAIL: %s (%s)\n", event.ID(), event.Elapsed)

		if event.Err != nil {
			_, _ = fmt.Fprintf(v.w, "    %s: %s\n", event.Err.Kind, event.Err.Message)

			if event.Err.Location != "" {
				_, _ = fmt.Fprintf(v.w, "    at %s\n", event.Err.Location)
			}
		}
	case ActionSkip:
		_, _ = fmt.Fprintf(v.w, "--- SKIP: %s\n", event.ID())
	case ActionXfail:
		_, _ = fmt.Fprintf(v.w, "--- XFAIL: %s (%s)\n", event.ID(), event.Elapsed)
	case ActionXpass:
		_, _ = fmt.Fprintf(v.w, "--- XPASS: %s (%s)\n", event.ID(), event.Elapsed)
	case ActionFlaky:
		_, _ = fmt.Fprintf(v.w, "--- FLAKY: %s (passed on attempt %d, %s)\n",
			event.ID(), event.Attempt, event.Elapsed)
	}

	return nil
}

// Summary prints the final results.
func (v *VerboseFormatter) Summary(doc *Document) error {
	_, _ = fmt.Fprintln(v.w)

	status := "PASS"
	if ExitCode(doc) != 0 {
		status = "FAIL"
	}

	s := doc.Summary
	_, _ = fmt.Fprintf(v.w, "%s\n", status)
	_, _ = fmt.Fprintf(v.w, "  %d total, %d passed, %d failed, %d skipped, %d expected-failure, %d unexpected-pass, %d flaky-pass\n",
		s.Total(), s.Passed, s.Failed, s.Skipped, s.ExpectedFail, s.UnexpectedPass, s.FlakyPass)

	if doc.Error != "" {
		_, _ = fmt.Fprintf(v.w, "  protocol violation: %s\n", doc.Error)
	}

	return nil
}

// -----------------------------------------------------------------------------

// Format names accepted by NewFormatter and the --format flag.
const (
	FormatDots    = "dots"
	FormatVerbose = "verbose"
)

// NewFormatter creates a formatter by name, defaulting to dots.
func NewFormatter(name string, w io.Writer) Formatter {
	switch name {
	case FormatVerbose:
		return NewVerboseFormatter(w)
	default:
		return NewDotsFormatter(w)
	}
}

// formatDuration renders a duration for progress output.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return "<1ms"
	}

	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
