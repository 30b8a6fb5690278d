package reporter

import "github.com/pwreport/pwreport"

type artifactKey struct {
	attempt int
	name    string
}

// artifactRegistry records artifacts for one test identity, keyed by
// (attempt, logical name). Re-registering a key overwrites in place;
// artifacts from different attempts are both retained and are
// namespaced by attempt number at serialization time once the record
// has more than one attempt.
type artifactRegistry struct {
	entries map[artifactKey]pwreport.Artifact
	order   []artifactKey
}

func newArtifactRegistry() *artifactRegistry {
	return &artifactRegistry{entries: make(map[artifactKey]pwreport.Artifact)}
}

// Register records an artifact for one attempt. Idempotent per key:
// the latest payload wins, the original ordering position is kept.
func (r *artifactRegistry) Register(attempt int, a pwreport.Artifact) {
	key := artifactKey{attempt: attempt, name: a.Name}

	if _, seen := r.entries[key]; !seen {
		r.order = append(r.order, key)
	}

	r.entries[key] = a
}

// ForAttempt returns the attempt's artifacts in first-registered order.
func (r *artifactRegistry) ForAttempt(attempt int) []pwreport.Artifact {
	var out []pwreport.Artifact

	for _, key := range r.order {
		if key.attempt == attempt {
			out = append(out, r.entries[key])
		}
	}

	return out
}

// Len returns the number of distinct artifact keys.
func (r *artifactRegistry) Len() int {
	return len(r.order)
}
