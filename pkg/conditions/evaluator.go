// Package conditions evaluates step guards and condition-step branches
// against an execution environment using expr expressions.
package conditions

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/cadencehq/cadence/pkg/models"
)

// Evaluator evaluates boolean guard expressions.
type Evaluator interface {
	Evaluate(expression string, env map[string]any) (bool, error)
}

// ExprEvaluator is an Evaluator backed by expr-lang with a compiled-program
// cache keyed by expression text.
type ExprEvaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewExprEvaluator creates an evaluator with an initialized cache.
func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{
		cache: make(map[string]*vm.Program),
	}
}

// Evaluate runs the expression against env. An empty expression is vacuously
// true, matching the semantics of a step without a guard. The expression must
// produce a boolean; any other result type is an error.
func (e *ExprEvaluator) Evaluate(expression string, env map[string]any) (bool, error) {
	if expression == "" {
		return true, nil
	}

	if env == nil {
		env = map[string]any{}
	}

	e.mu.RLock()
	program, ok := e.cache[expression]
	e.mu.RUnlock()

	if !ok {
		var err error

		program, err = expr.Compile(expression, expr.Env(env), expr.AllowUndefinedVariables())
		if err != nil {
			return false, fmt.Errorf("failed to compile condition %q: %w", expression, err)
		}

		e.mu.Lock()
		e.cache[expression] = program
		e.mu.Unlock()
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate condition %q: %w", expression, err)
	}

	value, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q did not evaluate to a boolean (got %T)", expression, result)
	}

	return value, nil
}

// SelectBranch picks the successor of a condition step: branches are tried in
// order and the first whose When expression evaluates true wins (a branch
// without a When always matches). When no branch matches, the default target
// is returned; an empty result means the step is terminal.
func SelectBranch(evaluator Evaluator, config models.ConditionConfig, env map[string]any) (string, error) {
	for _, branch := range config.Branches {
		matched, err := evaluator.Evaluate(branch.When, env)
		if err != nil {
			return "", fmt.Errorf("branch %q: %w", branch.Label, err)
		}

		if matched {
			return branch.Target, nil
		}
	}

	if config.Default != nil {
		return *config.Default, nil
	}

	return "", nil
}
