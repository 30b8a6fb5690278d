package reporter

import (
	"time"

	"github.com/pwreport/pwreport"
)

// recordState tracks where an identity is in its lifecycle.
type recordState int

const (
	stateRunning recordState = iota
	stateTerminal
)

// Attempt is one sealed execution of a test identity. Never mutated
// after the attempt finishes.
type Attempt struct {
	Seq      int
	Outcome  pwreport.Outcome
	Err      *pwreport.ErrorDescriptor
	Duration time.Duration
}

// TestRecord aggregates every attempt for one identity plus its final
// outcome. Created on first start, finalized when the retry tracker
// declares the identity terminal.
type TestRecord struct {
	Identity  pwreport.Identity
	MaxReruns int
	Attempts  []Attempt
	Final     pwreport.Outcome

	state     recordState
	failures  int // failed attempts so far
	artifacts *artifactRegistry
}

func newTestRecord(id pwreport.Identity, maxReruns int) *TestRecord {
	return &TestRecord{
		Identity:  id,
		MaxReruns: maxReruns,
		state:     stateRunning,
		artifacts: newArtifactRegistry(),
	}
}

// Terminal reports whether the record is finalized.
func (r *TestRecord) Terminal() bool {
	return r.state == stateTerminal
}

// ArtifactsFor returns the artifacts registered during one attempt.
func (r *TestRecord) ArtifactsFor(attempt int) []pwreport.Artifact {
	return r.artifacts.ForAttempt(attempt)
}
