package reporter

import (
	"context"
	"sync"
)

// Handler receives progress events while a run is in flight.
type Handler interface {
	// Event is called for each progress event as it occurs.
	Event(ctx context.Context, event Event) error

	// Err is called for non-test errors (stderr, infrastructure issues).
	Err(text string) error
}

// Summarizer is implemented by handlers that can render the final
// document once the session is sealed.
type Summarizer interface {
	Summary(doc *Document) error
}

// MultiHandler fans out events to multiple handlers.
type MultiHandler struct {
	handlers []Handler
}

// NewMultiHandler creates a handler that dispatches to multiple handlers.
func NewMultiHandler(handlers ...Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

// Event dispatches to all handlers, stopping on first error.
func (m *MultiHandler) Event(ctx context.Context, event Event) error {
	for _, h := range m.handlers {
		err := h.Event(ctx, event)
		if err != nil {
			return err
		}
	}

	return nil
}

// Err dispatches to all handlers.
func (m *MultiHandler) Err(text string) error {
	for _, h := range m.handlers {
		err := h.Err(text)
		if err != nil {
			return err
		}
	}

	return nil
}

// StopOnFailHandler stops the host's replay loop when the failure
// limit is reached. Only final outcomes count: an attempt that will be
// retried is not yet a failure.
type StopOnFailHandler struct {
	mu       sync.Mutex
	maxFails int
	fails    int
}

// NewStopOnFailHandler creates a handler that stops after n final
// failures. Unexpected passes count as failures, matching the exit
// code rule.
func NewStopOnFailHandler(maxFails int) *StopOnFailHandler {
	return &StopOnFailHandler{maxFails: maxFails}
}

// Event checks if we've hit max failures.
func (h *StopOnFailHandler) Event(_ context.Context, event Event) error {
	if h.maxFails <= 0 {
		return nil
	}

	if event.Action == ActionFail || event.Action == ActionXpass {
		h.mu.Lock()
		h.fails++
		hit := h.fails >= h.maxFails
		h.mu.Unlock()

		if hit {
			return ErrMaxFailures
		}
	}

	return nil
}

// Err is a no-op.
func (h *StopOnFailHandler) Err(_ string) error {
	return nil
}
