package reporter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pwreport/pwreport"
)

// abortMessage is the synthetic error message for identities that
// started but never finished.
const abortMessage = "run aborted before completion"

// Aggregator is the event sink for one run. It owns one TestRecord per
// logical test identity, drives classification, retry tracking and
// artifact registration, and seals into a report document when the
// session finishes.
//
// Events may arrive from concurrently executing workers. The shared
// first-seen order and summary counters are guarded by a mutex held
// only for the in-memory update; progress handlers are invoked outside
// the critical section. Attempts of a single identity are expected to
// arrive serially, which the host guarantees by never running retries
// of one test concurrently.
type Aggregator struct {
	mu        sync.Mutex
	records   map[pwreport.Identity]*TestRecord
	order     []pwreport.Identity
	counts    Summary
	sealed    bool
	violation string // offending identity of a protocol violation
	startTime time.Time

	handler Handler
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithHandler sets the progress event handler.
func WithHandler(h Handler) Option {
	return func(a *Aggregator) {
		a.handler = h
	}
}

// New creates an Aggregator for a single run.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		records:   make(map[pwreport.Identity]*TestRecord),
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// StartTest records that an attempt of the identity began. The first
// start creates the record and fixes the identity's position in the
// report; later starts are retry attempts of the same record.
// maxReruns is the identity's rerun budget (0 when no retry policy is
// attached).
func (a *Aggregator) StartTest(ctx context.Context, id pwreport.Identity, maxReruns int) error {
	a.mu.Lock()

	if a.sealed {
		a.mu.Unlock()

		return ErrSessionSealed
	}

	rec, seen := a.records[id]

	switch {
	case !seen:
		rec = newTestRecord(id, maxReruns)
		a.records[id] = rec
		a.order = append(a.order, id)
	case rec.Terminal():
		a.mu.Unlock()

		return fmt.Errorf("%w: %s", ErrIdentityFinalized, id)
	}

	attempt := len(rec.Attempts)
	a.mu.Unlock()

	return a.emit(ctx, Event{
		Time:     time.Now(),
		Action:   ActionRun,
		Identity: id,
		Attempt:  attempt,
	})
}

// FinishTest records one finished attempt. The returned flag tells the
// host whether to schedule another attempt of the same identity.
//
// A finish for an identity never started is a protocol violation: no
// record is fabricated, the violation is remembered for the final
// document, and ErrUnknownIdentity is returned.
func (a *Aggregator) FinishTest(ctx context.Context, id pwreport.Identity, fin FinishEvent) (retry bool, err error) {
	a.mu.Lock()

	if a.sealed {
		a.mu.Unlock()

		return false, ErrSessionSealed
	}

	rec, seen := a.records[id]
	if !seen {
		if a.violation == "" {
			a.violation = id.String()
		}
		a.mu.Unlock()

		return false, fmt.Errorf("%w: %s", ErrUnknownIdentity, id)
	}

	if rec.Terminal() {
		a.mu.Unlock()

		return false, fmt.Errorf("%w: %s", ErrIdentityFinalized, id)
	}

	var desc *pwreport.ErrorDescriptor

	if fin.Error != nil {
		d := Describe(*fin.Error)
		desc = &d
	}

	outcome := Classify(ClassifyInput{
		Raised:        fin.Error != nil,
		Skipped:       fin.Skip != nil,
		Xfail:         fin.Xfail != nil,
		Attempt:       fin.Attempt,
		PriorFailures: rec.failures,
	})

	for _, art := range fin.Artifacts {
		rec.artifacts.Register(fin.Attempt, art)
	}

	attempt := Attempt{
		Seq:      fin.Attempt,
		Outcome:  outcome,
		Err:      desc,
		Duration: fin.Duration,
	}

	terminal := recordAttempt(rec, attempt)
	if terminal {
		a.counts.add(rec.Final)
	}

	a.mu.Unlock()

	event := Event{
		Time:     time.Now(),
		Identity: id,
		Attempt:  fin.Attempt,
		Elapsed:  fin.Duration,
		Err:      desc,
	}

	if terminal {
		event.Action = actionFor(outcome)
		event.Outcome = outcome
	} else {
		event.Action = ActionRetry
	}

	return !terminal, a.emit(ctx, event)
}

// FinishSession seals the run and returns the final document. Callers
// must have stopped all workers first: any identity still running at
// this point was aborted mid-execution and is finalized with a
// synthetic failed outcome so the report never silently omits a
// started test.
//
// A prior protocol violation yields a truncated document whose
// top-level error field names the offending identity.
func (a *Aggregator) FinishSession(ctx context.Context) (*Document, error) {
	a.mu.Lock()

	if a.sealed {
		a.mu.Unlock()

		return nil, ErrSessionSealed
	}

	a.sealed = true

	var aborted []Event

	for _, id := range a.order {
		rec := a.records[id]
		if rec.Terminal() {
			continue
		}

		desc := &pwreport.ErrorDescriptor{
			Kind:    pwreport.KindOther,
			Message: abortMessage,
		}

		attempt := Attempt{
			Seq:     len(rec.Attempts),
			Outcome: pwreport.OutcomeFailed,
			Err:     desc,
		}

		rec.Attempts = append(rec.Attempts, attempt)
		rec.failures++
		rec.Final = pwreport.OutcomeFailed
		rec.state = stateTerminal
		a.counts.add(rec.Final)

		aborted = append(aborted, Event{
			Time:     time.Now(),
			Action:   ActionFail,
			Identity: id,
			Attempt:  attempt.Seq,
			Outcome:  pwreport.OutcomeFailed,
			Err:      desc,
		})
	}

	doc := a.buildDocument()
	a.mu.Unlock()

	for _, event := range aborted {
		if err := a.emit(ctx, event); err != nil {
			return doc, err
		}
	}

	return doc, nil
}

// Record returns the record for an identity, or nil. Intended for
// handlers and tests; the returned record must not be mutated.
func (a *Aggregator) Record(id pwreport.Identity) *TestRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.records[id]
}

// Summary returns a snapshot of the summary counters.
func (a *Aggregator) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.counts
}

func (a *Aggregator) emit(ctx context.Context, event Event) error {
	if a.handler == nil {
		return nil
	}

	return a.handler.Event(ctx, event)
}
