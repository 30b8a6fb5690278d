package reporter

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"
)

func junitSampleDocument() *Document {
	return &Document{
		Summary: Summary{Passed: 1, Failed: 1, Skipped: 1, ExpectedFail: 1, UnexpectedPass: 1, FlakyPass: 1},
		Tests: []TestDoc{
			{
				ID:       "TestLogin::test_ok",
				Outcome:  "passed",
				Attempts: []AttemptDoc{{Outcome: "passed", DurationMs: 120}},
			},
			{
				ID:      "TestLogin::test_wrong_title",
				Outcome: "failed",
				Attempts: []AttemptDoc{{
					Outcome:    "failed",
					DurationMs: 80,
					Error:      &ErrorDoc{Kind: "assertion-failure", Message: "title mismatch"},
				}},
			},
			{
				ID:       "TestSkip::test_disabled",
				Outcome:  "skipped",
				Attempts: []AttemptDoc{{Outcome: "skipped"}},
			},
			{
				ID:       "TestXfail::test_known_bug",
				Outcome:  "expected-failure",
				Attempts: []AttemptDoc{{Outcome: "expected-failure", DurationMs: 30}},
			},
			{
				ID:       "TestXfail::test_xfail_passes",
				Outcome:  "unexpected-pass",
				Attempts: []AttemptDoc{{Outcome: "unexpected-pass", DurationMs: 40}},
			},
			{
				ID:      "TestFlaky::test_passes_on_retry[slow]",
				Outcome: "flaky-pass",
				Attempts: []AttemptDoc{
					{Outcome: "failed", DurationMs: 60, Error: &ErrorDoc{Kind: "timeout", Message: "too slow"}},
					{Outcome: "flaky-pass", DurationMs: 55},
				},
			},
		},
	}
}

func TestWriteJUnit(t *testing.T) {
	var buf bytes.Buffer

	if err := WriteJUnit(&buf, "pwreport", junitSampleDocument()); err != nil {
		t.Fatal(err)
	}

	var ts junitTestsuite
	if err := xml.Unmarshal(buf.Bytes(), &ts); err != nil {
		t.Fatalf("output is not valid XML: %v\n%s", err, buf.String())
	}

	if ts.Name != "pwreport" {
		t.Errorf("suite name = %q, want %q", ts.Name, "pwreport")
	}

	if ts.Tests != 6 {
		t.Errorf("tests = %d, want 6", ts.Tests)
	}

	if ts.Failures != 2 {
		t.Errorf("failures = %d, want 2 (failed + unexpected-pass)", ts.Failures)
	}

	if ts.Skipped != 2 {
		t.Errorf("skipped = %d, want 2 (skipped + expected-failure)", ts.Skipped)
	}
}

func TestWriteJUnit_CaseMapping(t *testing.T) {
	var buf bytes.Buffer

	if err := WriteJUnit(&buf, "pwreport", junitSampleDocument()); err != nil {
		t.Fatal(err)
	}

	var ts junitTestsuite
	if err := xml.Unmarshal(buf.Bytes(), &ts); err != nil {
		t.Fatal(err)
	}

	byName := make(map[string]junitTestcase, len(ts.Testcase))
	for _, tc := range ts.Testcase {
		byName[tc.Name] = tc
	}

	failed := byName["test_wrong_title"]
	if failed.Classname != "TestLogin" {
		t.Errorf("classname = %q, want %q", failed.Classname, "TestLogin")
	}

	if failed.Failure == nil {
		t.Fatal("failed case has no failure element")
	}

	if failed.Failure.Message != "title mismatch" || failed.Failure.Type != "assertion-failure" {
		t.Errorf("failure = %+v", failed.Failure)
	}

	xpass := byName["test_xfail_passes"]
	if xpass.Failure == nil || xpass.Failure.Type != "UnexpectedPass" {
		t.Errorf("unexpected-pass should map to a failure, got %+v", xpass.Failure)
	}

	flaky := byName["test_passes_on_retry[slow]"]
	if flaky.Failure != nil || flaky.Skipped != nil {
		t.Error("flaky-pass should be a plain pass")
	}

	if flaky.Time != "0.055" {
		t.Errorf("time = %q, want duration of the last attempt", flaky.Time)
	}

	if skipped := byName["test_disabled"]; skipped.Skipped == nil {
		t.Error("skipped case has no skipped element")
	}
}

func TestWriteJUnit_Indented(t *testing.T) {
	var buf bytes.Buffer

	if err := WriteJUnit(&buf, "pwreport", junitSampleDocument()); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), "\n  <testcase") {
		t.Errorf("output is not indented:\n%s", buf.String())
	}
}
