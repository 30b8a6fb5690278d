package reporter

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pwreport/pwreport"
)

// Summary holds the run-level counts per final outcome tag. Field
// order is the serialization order and is fixed.
type Summary struct {
	Passed         int `json:"passed"`
	Failed         int `json:"failed"`
	Skipped        int `json:"skipped"`
	ExpectedFail   int `json:"expected-failure"`
	UnexpectedPass int `json:"unexpected-pass"`
	FlakyPass      int `json:"flaky-pass"`
}

func (s *Summary) add(o pwreport.Outcome) {
	switch o {
	case pwreport.OutcomePassed:
		s.Passed++
	case pwreport.OutcomeFailed:
		s.Failed++
	case pwreport.OutcomeSkipped:
		s.Skipped++
	case pwreport.OutcomeExpectedFail:
		s.ExpectedFail++
	case pwreport.OutcomeUnexpectedPass:
		s.UnexpectedPass++
	case pwreport.OutcomeFlakyPass:
		s.FlakyPass++
	}
}

// Total returns the number of finalized tests.
func (s Summary) Total() int {
	return s.Passed + s.Failed + s.Skipped + s.ExpectedFail + s.UnexpectedPass + s.FlakyPass
}

// Ok reports whether the run succeeded: no failures and no
// unexpected passes.
func (s Summary) Ok() bool {
	return s.Failed == 0 && s.UnexpectedPass == 0
}

// Document is the externally consumed JSON report. Serialization is
// deterministic: identical state always yields byte-identical output.
type Document struct {
	Summary Summary   `json:"summary"`
	Tests   []TestDoc `json:"tests"`

	// Error names the offending identity after a host protocol
	// violation; the tests list is then truncated to the records that
	// were valid when the violation occurred.
	Error string `json:"error,omitempty"`
}

// TestDoc is one finalized test record.
type TestDoc struct {
	ID       string       `json:"id"`
	Outcome  string       `json:"outcome"`
	Attempts []AttemptDoc `json:"attempts"`
}

// AttemptDoc is one sealed attempt.
type AttemptDoc struct {
	Attempt    int           `json:"attempt"`
	Outcome    string        `json:"outcome"`
	DurationMs float64       `json:"duration_ms"`
	Error      *ErrorDoc     `json:"error"`
	Artifacts  []ArtifactDoc `json:"artifacts"`
}

// ErrorDoc is the serialized ErrorDescriptor.
type ErrorDoc struct {
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

// ArtifactDoc is one serialized artifact reference.
type ArtifactDoc struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Ref       string `json:"ref"`
}

// artifactPlaceholder replaces a reference that cannot be serialized.
// One bad attachment degrades to this; it never aborts the report.
const artifactPlaceholder = "unavailable"

// buildDocument freezes the aggregator state. Caller holds the lock.
func (a *Aggregator) buildDocument() *Document {
	doc := &Document{
		Summary: a.counts,
		Tests:   make([]TestDoc, 0, len(a.order)),
	}

	if a.violation != "" {
		doc.Error = "test_finished for unknown identity " + a.violation
	}

	for _, id := range a.order {
		doc.Tests = append(doc.Tests, buildTestDoc(a.records[id]))
	}

	return doc
}

func buildTestDoc(rec *TestRecord) TestDoc {
	td := TestDoc{
		ID:       rec.Identity.String(),
		Outcome:  string(rec.Final),
		Attempts: make([]AttemptDoc, 0, len(rec.Attempts)),
	}

	// Artifact names are namespaced by attempt once retries happened,
	// so a later attempt's screenshot cannot shadow an earlier failing
	// attempt's diagnostic one.
	namespaced := len(rec.Attempts) > 1

	for _, at := range rec.Attempts {
		ad := AttemptDoc{
			Attempt:    at.Seq,
			Outcome:    string(at.Outcome),
			DurationMs: float64(at.Duration.Milliseconds()),
			Artifacts:  []ArtifactDoc{},
		}

		if at.Err != nil {
			ad.Error = &ErrorDoc{
				Kind:     string(at.Err.Kind),
				Message:  at.Err.Message,
				Location: at.Err.Location,
			}
		}

		for _, art := range rec.ArtifactsFor(at.Seq) {
			name := art.Name
			if namespaced {
				name = fmt.Sprintf("attempt-%d/%s", at.Seq, art.Name)
			}

			ad.Artifacts = append(ad.Artifacts, ArtifactDoc{
				Name:      name,
				MediaType: art.MediaType,
				Ref:       artifactRef(art),
			})
		}

		td.Attempts = append(td.Attempts, ad)
	}

	return td
}

// artifactRef renders the document reference for an artifact: the path
// when one exists, an inline data URI for byte payloads, and a
// placeholder when neither survives.
func artifactRef(a pwreport.Artifact) string {
	switch {
	case a.Path != "":
		return a.Path
	case len(a.Payload) > 0:
		return "data:" + a.MediaType + ";base64," + base64.StdEncoding.EncodeToString(a.Payload)
	default:
		return artifactPlaceholder
	}
}

// WriteJSON writes the document with stable two-space indentation.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(doc)
}

// ExitCode implements the run exit-code rule: zero iff there are no
// failures, no unexpected passes, and no protocol violation.
func ExitCode(doc *Document) int {
	if !doc.Summary.Ok() || doc.Error != "" {
		return 1
	}

	return 0
}
