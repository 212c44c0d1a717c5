// =============================================================================
// Plant Tag Generator - Generation Driver
// =============================================================================
//
// The driver pairs data rows with template lines and assembles the output.
//
// PROCESSING STEPS (per output type):
//   1. Walk the rows in source order, stopping after the sample limit
//   2. Skip rows the target does not accept
//   3. Derive the row's subtype and select the matching template groups
//   4. For every line of every matching group, in declaration order:
//      a. Substitute placeholders into the rule and evaluate it
//      b. On false, skip this line only
//      c. Otherwise substitute the line text and append it
//
// The output order is a pure function of row order and template declaration
// order, so identical inputs always yield identical output.
//
// ERROR HANDLING:
//   - Lookup misses are recoverable (blank value, warning)
//   - A rule that fails to evaluate aborts the run with a RuleError
//
// =============================================================================

package generator

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ginjaninja78/plant-tag-generator/internal/keyword"
	"github.com/ginjaninja78/plant-tag-generator/internal/rule"
	"github.com/ginjaninja78/plant-tag-generator/internal/sheet"
	"github.com/ginjaninja78/plant-tag-generator/internal/template"
)

// =============================================================================
// ERRORS
// =============================================================================

// RuleError reports a rule that could not be evaluated.
type RuleError struct {
	Type       string
	Sheet      string
	Row        int
	Rule       string
	Expression string
	Err        error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s: rule %q (evaluated as %q) on %s row %d: %v",
		e.Type, e.Rule, e.Expression, e.Sheet, e.Row, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }

// =============================================================================
// OBSERVER
// =============================================================================

// Observer receives generation events, e.g. for metrics.
type Observer interface {
	RowProcessed(outputType string)
	LineEmitted(outputType string)
	RuleRejected(outputType string)
	LookupMiss(outputType, token string)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) RowProcessed(string)       {}
func (NopObserver) LineEmitted(string)        {}
func (NopObserver) RuleRejected(string)       {}
func (NopObserver) LookupMiss(string, string) {}

// =============================================================================
// DRIVER
// =============================================================================

// Driver runs generation for any number of targets. It is safe for
// concurrent use.
type Driver struct {
	eval     rule.Evaluator
	logger   *zap.Logger
	observer Observer

	// unresolved remembers reported (type, token) pairs so each unknown
	// token is logged once.
	unresolved sync.Map
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithLogger sets the driver logger.
func WithLogger(l *zap.Logger) DriverOption {
	return func(d *Driver) { d.logger = l }
}

// WithObserver sets the event observer.
func WithObserver(o Observer) DriverOption {
	return func(d *Driver) { d.observer = o }
}

// NewDriver creates a driver evaluating rules with eval.
func NewDriver(eval rule.Evaluator, opts ...DriverOption) *Driver {
	d := &Driver{eval: eval, logger: zap.NewNop(), observer: NopObserver{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WriteGroups generates the lines of one output type.
//
// PARAMETERS:
//   - ctx: Cancels generation between rows.
//   - target: The output type.
//   - rows: The row source, in order.
//   - model: The template model.
//   - sep: Joins the columns of per-column template lines.
//   - sampleLimit: When > 0, only the first sampleLimit rows are visited.
//
// RETURNS:
//   - The generated lines, in row then declaration order.
//   - A RuleError if a rule cannot be evaluated, or the context error.
func (d *Driver) WriteGroups(ctx context.Context, target Target, rows []*sheet.Row, model *template.Model, sep string, sampleLimit int) ([]string, error) {
	var out []string

	for i, row := range rows {
		if sampleLimit > 0 && i >= sampleLimit {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !target.Accept(row) {
			continue
		}
		d.observer.RowProcessed(target.Type())

		groups := model.Matching(target.Type(), target.Subtype(row))
		if len(groups) == 0 {
			continue
		}

		table := target.Table(row)
		for _, g := range groups {
			for _, line := range g.Lines {
				ok, err := d.passes(target, table, row, line.Rule)
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
				out = append(out, d.emit(target, table, line.Text(sep)))
			}
		}
	}

	return out, nil
}

// WriteRaw generates one raw line per qualifying row, or only for the first
// qualifying row when singleInstance is set. Used for preambles and trailers
// that are not part of the template model.
func (d *Driver) WriteRaw(ctx context.Context, target Target, rows []*sheet.Row, raw, ruleText string, singleInstance bool, sampleLimit int) ([]string, error) {
	var out []string

	for i, row := range rows {
		if sampleLimit > 0 && i >= sampleLimit {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !target.Accept(row) {
			continue
		}

		table := target.Table(row)
		ok, err := d.passes(target, table, row, ruleText)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, d.emit(target, table, raw))
		if singleInstance {
			break
		}
	}

	return out, nil
}

// passes substitutes and evaluates a rule. Blank rules always pass.
func (d *Driver) passes(target Target, table Substituter, row *sheet.Row, ruleText string) (bool, error) {
	if !(template.Line{Rule: ruleText}).HasRule() {
		return true, nil
	}

	expression := table.Replace(ruleText)
	ok, err := d.eval.Evaluate(expression)
	if err != nil {
		return false, &RuleError{
			Type:       target.Type(),
			Sheet:      row.Sheet,
			Row:        row.Index + 1,
			Rule:       ruleText,
			Expression: expression,
			Err:        err,
		}
	}
	if !ok {
		d.observer.RuleRejected(target.Type())
	}
	return ok, nil
}

func (d *Driver) emit(target Target, table Substituter, text string) string {
	line := table.Replace(text)
	d.observer.LineEmitted(target.Type())

	for _, token := range keyword.Unresolved(line) {
		key := target.Type() + "\x00" + token
		if _, seen := d.unresolved.LoadOrStore(key, true); !seen {
			d.logger.Debug("placeholder left unresolved",
				zap.String("type", target.Type()),
				zap.String("token", token),
			)
		}
	}
	return line
}
