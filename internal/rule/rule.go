// =============================================================================
// Plant Tag Generator - Rule Evaluation
// =============================================================================
//
// A rule gates one template line per row. Placeholders are substituted
// first, so the evaluator only ever sees literal text such as:
//
//   3 > 1
//   true && 'DI' == 'DI'
//   12 in [7, 12, 13] or not false
//
// Expressions use the expr-lang syntax. A blank rule is always true.
//
// =============================================================================

package rule

import (
	"fmt"
	"strings"
	"sync"

	expro "github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Evaluator decides whether a substituted rule passes.
type Evaluator interface {
	Evaluate(expression string) (bool, error)
}

// ExprEvaluator evaluates rules with expr-lang. Compiled programs are cached
// by expression text, since most rules repeat with identical values across
// many rows. It is safe for concurrent use.
type ExprEvaluator struct {
	programs sync.Map // string -> *vm.Program
}

// NewExprEvaluator creates an evaluator with an empty program cache.
func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{}
}

// env holds the helper functions available to every rule.
var env = map[string]interface{}{
	"blank": func(s string) bool { return strings.TrimSpace(s) == "" },
}

// Evaluate compiles (or reuses) and runs expression.
//
// RETURNS:
//   - true for a blank expression.
//   - An error if the expression does not compile, fails at run time or
//     does not produce a boolean.
func (e *ExprEvaluator) Evaluate(expression string) (bool, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return true, nil
	}

	program, err := e.program(expression)
	if err != nil {
		return false, err
	}

	out, err := expro.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("rule %q: %w", expression, err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("rule %q: result %v is not a boolean", expression, out)
	}
	return b, nil
}

func (e *ExprEvaluator) program(expression string) (*vm.Program, error) {
	if p, ok := e.programs.Load(expression); ok {
		return p.(*vm.Program), nil
	}
	p, err := expro.Compile(expression, expro.Env(env), expro.AsBool())
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", expression, err)
	}
	e.programs.Store(expression, p)
	return p, nil
}

// Func adapts a plain function to the Evaluator interface.
type Func func(expression string) (bool, error)

// Evaluate calls f.
func (f Func) Evaluate(expression string) (bool, error) {
	return f(expression)
}
