package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwreport/pwreport"
)

func buildSampleDocument(t *testing.T) *Document {
	t.Helper()

	ctx := context.Background()
	agg := New()

	ok := id("TestLogin", "test_successful_login")
	require.NoError(t, agg.StartTest(ctx, ok, 0))
	_, err := agg.FinishTest(ctx, ok, FinishEvent{
		Attempt:  0,
		Duration: 100 * time.Millisecond,
		Artifacts: []pwreport.Artifact{
			{Name: "trace.zip", MediaType: "application/zip", Path: "artifacts/trace.zip"},
		},
	})
	require.NoError(t, err)

	flaky := id("TestFlaky", "test_passes_on_retry")
	require.NoError(t, agg.StartTest(ctx, flaky, 2))
	_, err = agg.FinishTest(ctx, flaky, FinishEvent{
		Attempt: 0,
		Error:   &RaisedError{Category: "AssertionError", Message: "first try", Location: "flaky_test.py:12"},
		Artifacts: []pwreport.Artifact{
			{Name: "screenshot.png", MediaType: "image/png", Payload: []byte{0x89, 0x50}},
		},
	})
	require.NoError(t, err)
	require.NoError(t, agg.StartTest(ctx, flaky, 2))
	_, err = agg.FinishTest(ctx, flaky, FinishEvent{
		Attempt: 1,
		Artifacts: []pwreport.Artifact{
			{Name: "screenshot.png", MediaType: "image/png"},
		},
	})
	require.NoError(t, err)

	doc, err := agg.FinishSession(ctx)
	require.NoError(t, err)

	return doc
}

func TestWriteJSON_Deterministic(t *testing.T) {
	t.Parallel()

	doc := buildSampleDocument(t)

	var first, second bytes.Buffer
	require.NoError(t, WriteJSON(&first, doc))
	require.NoError(t, WriteJSON(&second, doc))

	assert.Equal(t, first.Bytes(), second.Bytes(),
		"serializing the same state twice must be byte-identical")
}

func TestWriteJSON_SummaryKeyOrder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, buildSampleDocument(t)))

	out := buf.String()

	keys := []string{
		`"passed"`, `"failed"`, `"skipped"`,
		`"expected-failure"`, `"unexpected-pass"`, `"flaky-pass"`,
	}

	last := -1
	for _, key := range keys {
		idx := strings.Index(out, key)
		require.Greater(t, idx, last, "summary key %s out of order", key)
		last = idx
	}
}

func TestWriteJSON_RoundTrip(t *testing.T) {
	t.Parallel()

	doc := buildSampleDocument(t)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, doc))

	var parsed Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))

	if diff := cmp.Diff(*doc, parsed); diff != "" {
		t.Errorf("document changed across serialization (-want +got):\n%s", diff)
	}
}

func TestBuildTestDoc_ArtifactNamespacing(t *testing.T) {
	t.Parallel()

	doc := buildSampleDocument(t)
	require.Len(t, doc.Tests, 2)

	single := doc.Tests[0]
	require.Len(t, single.Attempts, 1)
	require.Len(t, single.Attempts[0].Artifacts, 1)
	assert.Equal(t, "trace.zip", single.Attempts[0].Artifacts[0].Name,
		"single-attempt records keep plain names")

	retried := doc.Tests[1]
	require.Len(t, retried.Attempts, 2)
	require.Len(t, retried.Attempts[0].Artifacts, 1)
	require.Len(t, retried.Attempts[1].Artifacts, 1)
	assert.Equal(t, "attempt-0/screenshot.png", retried.Attempts[0].Artifacts[0].Name)
	assert.Equal(t, "attempt-1/screenshot.png", retried.Attempts[1].Artifacts[0].Name)
}

func TestArtifactRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		artifact pwreport.Artifact
		want     string
	}{
		{
			name:     "path wins",
			artifact: pwreport.Artifact{Name: "trace.zip", Path: "out/trace.zip", Payload: []byte("x")},
			want:     "out/trace.zip",
		},
		{
			name:     "payload becomes data uri",
			artifact: pwreport.Artifact{Name: "log.txt", MediaType: "text/plain", Payload: []byte("hi")},
			want:     "data:text/plain;base64,aGk=",
		},
		{
			name:     "neither yields placeholder",
			artifact: pwreport.Artifact{Name: "gone.png", MediaType: "image/png"},
			want:     "unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, artifactRef(tt.artifact))
		})
	}
}

func TestWriteJSON_NullErrorForPassingAttempt(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, buildSampleDocument(t)))

	assert.Contains(t, buf.String(), `"error": null`,
		"passing attempts carry an explicit null error")
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  Document
		want int
	}{
		{name: "all green", doc: Document{Summary: Summary{Passed: 3}}, want: 0},
		{name: "skips and xfails are green", doc: Document{Summary: Summary{Skipped: 1, ExpectedFail: 2}}, want: 0},
		{name: "flaky pass is green", doc: Document{Summary: Summary{FlakyPass: 1}}, want: 0},
		{name: "failure", doc: Document{Summary: Summary{Passed: 3, Failed: 1}}, want: 1},
		{name: "unexpected pass", doc: Document{Summary: Summary{UnexpectedPass: 1}}, want: 1},
		{name: "protocol violation", doc: Document{Error: "test_finished for unknown identity X::y"}, want: 1},
		{name: "empty run", doc: Document{}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, ExitCode(&tt.doc))
		})
	}
}
