// =============================================================================
// Plant Tag Generator - Converter Module
// =============================================================================
//
// A Converter is one target format (PLC tag list, HMI alarm import, historian
// point list, ...). It binds the shared workbook, one template model and the
// keyword tables of its output types; the generation engine does the rest.
//
// CONVERSION PIPELINE:
//   1. Load the template (fatal if missing)
//   2. Register the output types in declaration order
//   3. For each output type: preamble, template lines, trailer
//   4. Arrange the lines into one file or one file per type
//   5. Encode and write the files, plus timestamped copies
//
// CONCURRENCY:
//   A Converter keeps no state between runs. Several converters may run in
//   parallel over the same workbook, which is read-only after loading.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/plant-tag-generator/internal/config"
	"github.com/ginjaninja78/plant-tag-generator/internal/generator"
	"github.com/ginjaninja78/plant-tag-generator/internal/keyword"
	"github.com/ginjaninja78/plant-tag-generator/internal/lookup"
	"github.com/ginjaninja78/plant-tag-generator/internal/rule"
	"github.com/ginjaninja78/plant-tag-generator/internal/sheet"
	"github.com/ginjaninja78/plant-tag-generator/internal/template"
	"github.com/ginjaninja78/plant-tag-generator/internal/textwriter"
	"github.com/ginjaninja78/plant-tag-generator/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of one converter run.
type Result struct {
	// Converter is the converter name.
	Converter string

	// Sections holds the generated lines per output type, in declaration order.
	Sections []textwriter.Section

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about a run.
type ProcessingStats struct {
	// Lines is the total number of generated lines.
	Lines int

	// LookupMisses counts cross-sheet lookups that found no row.
	LookupMisses int

	// ProcessingTime is the time taken to generate.
	ProcessingTime time.Duration
}

// Lines returns all generated lines in output order.
func (r *Result) Lines() []string {
	var out []string
	for _, s := range r.Sections {
		out = append(out, s.Lines...)
	}
	return out
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// output is one registered output type.
type output struct {
	cfg  config.OutputConfig
	rows []*sheet.Row
}

// Converter generates the files of one target format.
type Converter struct {
	cfg      *config.ConverterConfig
	workbook *sheet.Workbook
	model    *template.Model
	outputs  []output

	eval     rule.Evaluator
	observer generator.Observer
	logger   *zap.Logger

	indexMu sync.Mutex
	indexes map[string]*lookup.Index
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the converter logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// WithObserver sets the generation event observer (metrics).
func WithObserver(o generator.Observer) Option {
	return func(c *Converter) { c.observer = o }
}

// WithEvaluator replaces the rule evaluator.
func WithEvaluator(e rule.Evaluator) Option {
	return func(c *Converter) { c.eval = e }
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a Converter.
//
// PARAMETERS:
//   - cfg: The converter definition.
//   - workbook: The loaded engineering data.
//   - templatesDir: The directory holding cfg.Template.
//   - opts: Optional settings.
//
// RETURNS:
//   - The converter.
//   - An error wrapping template.ErrTemplateNotFound when the template is
//     missing, sheet.ErrUnknownSheet for unknown sheets, or a keyword error.
func New(cfg *config.ConverterConfig, workbook *sheet.Workbook, templatesDir string, opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg:      cfg,
		workbook: workbook,
		eval:     rule.NewExprEvaluator(),
		observer: generator.NopObserver{},
		logger:   zap.NewNop(),
		indexes:  make(map[string]*lookup.Index),
	}
	for _, opt := range opts {
		opt(c)
	}

	model, err := template.Load(templatesDir, cfg.Template)
	if err != nil {
		return nil, fmt.Errorf("converter %s: failed to load template: %w", cfg.Name, err)
	}
	c.model = model

	for _, oc := range cfg.Outputs {
		s, err := workbook.Sheet(oc.Sheet)
		if err != nil {
			return nil, fmt.Errorf("converter %s output %s: %w", cfg.Name, oc.Type, err)
		}
		c.outputs = append(c.outputs, output{cfg: oc, rows: s.Rows})

		if len(model.Lines(recordType(oc))) == 0 {
			c.logger.Warn("template has no lines for output type",
				zap.String("type", oc.Type),
				zap.String("record_type", recordType(oc)),
				zap.String("template", model.Source),
			)
		}
	}

	// Build every target once so keyword errors surface at construction.
	for _, o := range c.outputs {
		if _, err := c.target(o, nil); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Name returns the converter name.
func (c *Converter) Name() string { return c.cfg.Name }

// Config returns the converter definition.
func (c *Converter) Config() *config.ConverterConfig { return c.cfg }

// Model returns the loaded template model.
func (c *Converter) Model() *template.Model { return c.model }

func recordType(oc config.OutputConfig) string {
	if oc.RecordType != "" {
		return oc.RecordType
	}
	return oc.Type
}

// target builds the generator target of one output type. onMiss is called
// for every lookup miss.
func (c *Converter) target(o output, onMiss keyword.MissHandler) (*generator.Output, error) {
	engineOpts := []keyword.Option{
		keyword.WithLogger(c.logger.With(zap.String("type", o.cfg.Type))),
		keyword.WithSubtypeFields(o.cfg.SubtypeFields),
	}
	if onMiss != nil {
		engineOpts = append(engineOpts, keyword.WithMissHandler(onMiss))
	}

	engine, err := keyword.NewEngine(o.cfg.Keywords, c.index, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("converter %s output %s: %w", c.cfg.Name, o.cfg.Type, err)
	}

	t := &generator.Output{
		Name:          o.cfg.Type,
		RecordType:    recordType(o.cfg),
		Engine:        engine,
		SubtypeFields: o.cfg.SubtypeFields,
	}
	if o.cfg.Filter != nil {
		t.Filter = generator.FieldEquals(o.cfg.Filter.Field, o.cfg.Filter.Equals)
	}
	return t, nil
}

// index returns (and caches) the lookup index for sheetName/key.
func (c *Converter) index(sheetName, key string) (*lookup.Index, error) {
	c.indexMu.Lock()
	defer c.indexMu.Unlock()

	cacheKey := sheetName + "\x00" + key
	if idx, ok := c.indexes[cacheKey]; ok {
		return idx, nil
	}
	s, err := c.workbook.Sheet(sheetName)
	if err != nil {
		return nil, err
	}
	idx, err := lookup.New(s, key)
	if err != nil {
		return nil, err
	}
	c.indexes[cacheKey] = idx
	return idx, nil
}

// =============================================================================
// GENERATION
// =============================================================================

// Generate runs the converter and returns the lines per output type.
//
// PARAMETERS:
//   - ctx: Cancels generation.
//   - sampleOverride: A positive value limits every output to that many
//     rows regardless of the converter's own sample settings.
//
// RETURNS:
//   - The result.
//   - A *generator.RuleError for broken rules, or the context error.
func (c *Converter) Generate(ctx context.Context, sampleOverride int) (*Result, error) {
	start := time.Now()
	limit := c.cfg.SampleLimitFor(sampleOverride)

	var misses atomic.Int64
	driver := generator.NewDriver(c.eval,
		generator.WithLogger(c.logger),
		generator.WithObserver(c.observer),
	)

	result := &Result{Converter: c.cfg.Name}
	for _, o := range c.outputs {
		outputType := o.cfg.Type
		t, err := c.target(o, func(token string, _ *sheet.Row) {
			misses.Add(1)
			c.observer.LookupMiss(outputType, token)
		})
		if err != nil {
			return nil, err
		}

		var lines []string

		for _, raw := range o.cfg.Preamble {
			out, err := driver.WriteRaw(ctx, t, o.rows, raw.Text, raw.Rule, raw.Once, limit)
			if err != nil {
				return nil, fmt.Errorf("converter %s output %s preamble: %w", c.cfg.Name, outputType, err)
			}
			lines = append(lines, out...)
		}

		body, err := driver.WriteGroups(ctx, t, o.rows, c.model, c.cfg.Separator, limit)
		if err != nil {
			return nil, fmt.Errorf("converter %s output %s: %w", c.cfg.Name, outputType, err)
		}
		lines = append(lines, body...)

		for _, raw := range o.cfg.Trailer {
			out, err := driver.WriteRaw(ctx, t, o.rows, raw.Text, raw.Rule, raw.Once, limit)
			if err != nil {
				return nil, fmt.Errorf("converter %s output %s trailer: %w", c.cfg.Name, outputType, err)
			}
			lines = append(lines, out...)
		}

		c.logger.Debug("output generated",
			zap.String("type", outputType),
			zap.Int("lines", len(lines)),
		)
		result.Sections = append(result.Sections, textwriter.Section{Type: outputType, Lines: lines})
		result.Stats.Lines += len(lines)
	}

	result.Stats.LookupMisses = int(misses.Load())
	result.Stats.ProcessingTime = time.Since(start)
	return result, nil
}

// =============================================================================
// OUTPUT
// =============================================================================

// Written lists the files produced by Write.
type Written struct {
	Files    []string
	Archived []string
}

// Write encodes the result into files.
//
// PARAMETERS:
//   - result: The output of Generate.
//   - fm: Provides output paths, names and archive copies.
//   - fileNameFormat: The file name format of the main configuration.
//
// RETURNS:
//   - The written and archived paths.
//   - An error if encoding or writing fails.
func (c *Converter) Write(result *Result, fm *utils.FileManager, fileNameFormat string) (Written, error) {
	var written Written

	w, err := textwriter.New(textwriter.Options{
		Encoding:      c.cfg.Encoding,
		LineSeparator: c.cfg.LineSeparator(),
	})
	if err != nil {
		return written, fmt.Errorf("converter %s: %w", c.cfg.Name, err)
	}

	for _, doc := range textwriter.Arrange(result.Sections, c.cfg.SplitByType) {
		name := fm.GenerateOutputFileName(fileNameFormat, map[string]string{
			"converter": c.cfg.Name,
			"type":      doc.Type,
		}, c.cfg.Extension)
		path := fm.OutputPath(name)

		n, err := w.WriteFile(path, doc.Lines)
		if err != nil {
			return written, fmt.Errorf("converter %s: %w", c.cfg.Name, err)
		}
		written.Files = append(written.Files, path)
		c.logger.Info("output file written",
			zap.String("file", path),
			zap.Int("lines", len(doc.Lines)),
			zap.Int("bytes", n),
		)

		if c.cfg.TimestampedCopy {
			archived, err := fm.ArchiveOutputFile(path)
			if err != nil {
				return written, fmt.Errorf("converter %s: %w", c.cfg.Name, err)
			}
			written.Archived = append(written.Archived, archived)
		}
	}

	return written, nil
}
