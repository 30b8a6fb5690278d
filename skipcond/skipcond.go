// Package skipcond evaluates conditional skip expressions at
// collection time. Expressions are compiled once per condition and
// resolved against a fixed value environment; only the resulting
// boolean ever reaches the outcome classifier.
package skipcond

import (
	"errors"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ErrNotBool is returned when a condition does not evaluate to a
// boolean.
var ErrNotBool = errors.New("skipcond: condition is not a boolean")

// Evaluator resolves skip conditions such as `browser == "webkit"` or
// `env.CI == "true"` against a fixed environment. Compilation results
// are cached so a condition shared by many parametrized variants is
// compiled once per collection.
type Evaluator struct {
	env map[string]any

	mu      sync.Mutex
	cache   map[string]*vm.Program
	results map[string]bool
}

// New creates an Evaluator. values are the top-level identifiers
// available to conditions; osEnv, when non-nil, is exposed under the
// "env" key.
func New(values map[string]string, osEnv map[string]string) *Evaluator {
	env := make(map[string]any, len(values)+1)
	for k, v := range values {
		env[k] = v
	}

	if osEnv != nil {
		env["env"] = osEnv
	}

	return &Evaluator{
		env:     env,
		cache:   make(map[string]*vm.Program),
		results: make(map[string]bool),
	}
}

// Eval resolves one condition to its boolean. The result is cached per
// condition string: the environment is fixed for the collection, so a
// condition is evaluated once, not once per attempt.
func (e *Evaluator) Eval(condition string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if v, ok := e.results[condition]; ok {
		return v, nil
	}

	program, ok := e.cache[condition]
	if !ok {
		var err error

		program, err = expr.Compile(condition, expr.Env(e.env), expr.AsBool())
		if err != nil {
			return false, fmt.Errorf("compiling %q: %w", condition, err)
		}

		e.cache[condition] = program
	}

	out, err := expr.Run(program, e.env)
	if err != nil {
		return false, fmt.Errorf("evaluating %q: %w", condition, err)
	}

	v, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrNotBool, condition)
	}

	e.results[condition] = v

	return v, nil
}
