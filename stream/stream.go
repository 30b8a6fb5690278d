// Package stream adapts recorded host-runner lifecycle events into the
// reporting engine. Events are newline-delimited JSON envelopes, one
// per line, as written by the browser-automation host:
//
//	{"event":"test_started","id":"TestLogin::test_ok","max_reruns":2}
//	{"event":"test_finished","id":"TestLogin::test_ok","attempt":0,"duration_ms":120,...}
//	{"event":"session_finished"}
package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pwreport/pwreport"
	"github.com/pwreport/pwreport/reporter"
	"github.com/pwreport/pwreport/skipcond"
)

// Event names accepted in envelopes.
const (
	EventTestStarted     = "test_started"
	EventTestFinished    = "test_finished"
	EventSessionFinished = "session_finished"
)

// Decode errors.
var (
	// ErrUnknownEvent is returned for an envelope with an unrecognized
	// event name.
	ErrUnknownEvent = errors.New("stream: unknown event")
)

// envelope is the wire form of one lifecycle event.
type envelope struct {
	Event      string                `json:"event"`
	ID         string                `json:"id,omitempty"`
	MaxReruns  int                   `json:"max_reruns,omitempty"`
	Attempt    int                   `json:"attempt,omitempty"`
	Error      *reporter.RaisedError `json:"error,omitempty"`
	Skip       *skipEnvelope         `json:"skip,omitempty"`
	Xfail      *reporter.Directive   `json:"xfail,omitempty"`
	DurationMs float64               `json:"duration_ms,omitempty"`
	Artifacts  []artifactEnvelope    `json:"artifacts,omitempty"`
}

// skipEnvelope carries either an unconditional skip or a condition to
// resolve at collection time.
type skipEnvelope struct {
	Reason    string `json:"reason,omitempty"`
	Condition string `json:"condition,omitempty"`
}

type artifactEnvelope struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Path      string `json:"path,omitempty"`
	Payload   []byte `json:"payload,omitempty"`
}

// Replayer feeds recorded event streams into one Aggregator.
type Replayer struct {
	agg    *reporter.Aggregator
	conds  *skipcond.Evaluator
	reruns func(pwreport.Identity) int
}

// ReplayerOption configures a Replayer.
type ReplayerOption func(*Replayer)

// WithConditions sets the evaluator for conditional skip directives.
// Without one, conditional skips are treated as unconditional.
func WithConditions(ev *skipcond.Evaluator) ReplayerOption {
	return func(r *Replayer) {
		r.conds = ev
	}
}

// WithRerunPolicy sets the fallback rerun budget for test_started
// envelopes that carry none.
func WithRerunPolicy(fn func(pwreport.Identity) int) ReplayerOption {
	return func(r *Replayer) {
		r.reruns = fn
	}
}

// NewReplayer creates a Replayer targeting agg.
func NewReplayer(agg *reporter.Aggregator, opts ...ReplayerOption) *Replayer {
	r := &Replayer{agg: agg}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Replay consumes one event stream. It stops at a session_finished
// envelope or EOF without sealing the aggregator, so several streams
// (one per host worker) can feed the same run before the caller calls
// FinishSession.
func (r *Replayer) Replay(ctx context.Context, rd io.Reader) error {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0

	for sc.Scan() {
		line++

		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}

		var env envelope

		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		stop, err := r.dispatch(ctx, env)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		if stop {
			return nil
		}
	}

	return sc.Err()
}

func (r *Replayer) dispatch(ctx context.Context, env envelope) (stop bool, err error) {
	switch env.Event {
	case EventTestStarted:
		id, err := pwreport.ParseIdentity(env.ID)
		if err != nil {
			return false, err
		}

		maxReruns := env.MaxReruns
		if maxReruns == 0 && r.reruns != nil {
			maxReruns = r.reruns(id)
		}

		return false, r.agg.StartTest(ctx, id, maxReruns)

	case EventTestFinished:
		id, err := pwreport.ParseIdentity(env.ID)
		if err != nil {
			return false, err
		}

		fin, err := r.finishEvent(env)
		if err != nil {
			return false, err
		}

		_, err = r.agg.FinishTest(ctx, id, fin)

		return false, err

	case EventSessionFinished:
		return true, nil

	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

// finishEvent translates the wire envelope into the engine's finish
// event, resolving conditional skips to plain directives.
func (r *Replayer) finishEvent(env envelope) (reporter.FinishEvent, error) {
	fin := reporter.FinishEvent{
		Attempt:  env.Attempt,
		Error:    env.Error,
		Xfail:    env.Xfail,
		Duration: time.Duration(env.DurationMs * float64(time.Millisecond)),
	}

	if env.Skip != nil {
		applies := true

		if env.Skip.Condition != "" && r.conds != nil {
			v, err := r.conds.Eval(env.Skip.Condition)
			if err != nil {
				return reporter.FinishEvent{}, err
			}

			applies = v
		}

		if applies {
			fin.Skip = &reporter.Directive{Reason: env.Skip.Reason}
		}
	}

	for _, art := range env.Artifacts {
		fin.Artifacts = append(fin.Artifacts, pwreport.Artifact{
			Name:      art.Name,
			MediaType: art.MediaType,
			Path:      art.Path,
			Payload:   art.Payload,
		})
	}

	return fin, nil
}
