package reporter

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/pwreport/pwreport"
)

// Minimal JUnit schema: testsuite -> testcase (+failure/skipped).
type junitTestsuite struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Skipped  int             `xml:"skipped,attr"`
	Testcase []junitTestcase `xml:"testcase"`
}

type junitTestcase struct {
	Classname string        `xml:"classname,attr"`
	Name      string        `xml:"name,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	Skipped   *junitSkipped `xml:"skipped,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
}

type junitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// WriteJUnit renders the document as JUnit XML for CI systems that
// only speak that schema. Failed and unexpected-pass become failures;
// skipped and expected-failure become skipped cases; flaky-pass is a
// plain pass.
func WriteJUnit(w io.Writer, suiteName string, doc *Document) error {
	ts := junitTestsuite{Name: suiteName}

	for _, test := range doc.Tests {
		ts.Tests++

		last := test.Attempts[len(test.Attempts)-1]

		tc := junitTestcase{
			Classname: classname(test.ID),
			Name:      casename(test.ID),
			Time:      formatSeconds(last.DurationMs),
		}

		switch pwreport.Outcome(test.Outcome) {
		case pwreport.OutcomeFailed:
			ts.Failures++
			tc.Failure = failureFor(test)
		case pwreport.OutcomeUnexpectedPass:
			ts.Failures++
			tc.Failure = &junitFailure{
				Message: "test marked expected-failure passed",
				Type:    "UnexpectedPass",
			}
		case pwreport.OutcomeSkipped:
			ts.Skipped++
			tc.Skipped = &junitSkipped{}
		case pwreport.OutcomeExpectedFail:
			ts.Skipped++
			tc.Skipped = &junitSkipped{Message: "expected failure"}
		}

		ts.Testcase = append(ts.Testcase, tc)
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	return enc.Encode(ts)
}

func failureFor(test TestDoc) *junitFailure {
	f := &junitFailure{Message: "test failed", Type: "Failure"}

	if last := lastError(test); last != nil {
		f.Message = last.Message
		f.Type = last.Kind
	}

	return f
}

// classname is the suite portion of "suite::name[param]".
func classname(id string) string {
	parsed, err := pwreport.ParseIdentity(id)
	if err != nil {
		return id
	}

	return parsed.Suite
}

// casename is the test name, keeping the param id.
func casename(id string) string {
	parsed, err := pwreport.ParseIdentity(id)
	if err != nil {
		return id
	}

	if parsed.Param != "" {
		return parsed.Name + "[" + parsed.Param + "]"
	}

	return parsed.Name
}

func formatSeconds(ms float64) string {
	return fmt.Sprintf("%.3f", ms/1000.0)
}
