// =============================================================================
// Plant Tag Generator - Generate Command
// =============================================================================
//
// This file defines the 'generate' command, the main command of the tool. It
// orchestrates the whole pipeline.
//
// COMMAND USAGE:
//   tagconverter generate [flags]
//
// FLAGS:
//   --converter : Run only the named converter
//   --sample    : Limit every output to the first N rows
//   --dry-run   : Generate and print, but do not write any files
//
// PROCESSING PIPELINE:
//   1. Load the main configuration and the converter definitions
//   2. Load the workbook once (all sources, relations linked)
//   3. Run the converters concurrently, max_concurrency at a time:
//      a. Load the template
//      b. Generate the lines of every output type
//      c. Write the files (and timestamped copies)
//   4. Write the summary and the metrics textfile
//   5. Remove expired archive copies
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/plant-tag-generator/internal/config"
	"github.com/ginjaninja78/plant-tag-generator/internal/converter"
	"github.com/ginjaninja78/plant-tag-generator/internal/logging"
	"github.com/ginjaninja78/plant-tag-generator/internal/metrics"
	"github.com/ginjaninja78/plant-tag-generator/internal/sheet"
	"github.com/ginjaninja78/plant-tag-generator/internal/textwriter"
	"github.com/ginjaninja78/plant-tag-generator/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// converterName restricts the run to one converter.
var converterName string

// sampleRows overrides the sample settings of every converter when positive.
var sampleRows int

// dryRun generates without writing output files.
var dryRun bool

// =============================================================================
// GENERATE COMMAND DEFINITION
// =============================================================================

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the tag files of every converter",
	Long: `The generate command loads the engineering workbook once and runs every
converter found in the converters directory against it.

Converters run concurrently. Each one writes its files to the output directory,
one file per converter or one per output type. A failing converter does not
stop the others unless continue_on_error is false; the command exits non-zero
when any converter failed.

With --dry-run nothing is written; the generated lines are printed instead.
Combine it with --sample to preview the first rows of every output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd.Context(), cmd.OutOrStdout())
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(
		&converterName,
		"converter",
		"",
		"Run only the named converter",
	)
	generateCmd.Flags().IntVar(
		&sampleRows,
		"sample",
		0,
		"Limit every output to the first N source rows",
	)
	generateCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Generate without writing output files",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runGenerate orchestrates the generation pipeline.
func runGenerate(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if sampleRows < 0 {
		return fmt.Errorf("--sample must not be negative")
	}

	mainConfig, logger, err := loadMainConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION AND DATA
	// =========================================================================

	configs, err := config.LoadConverterConfigs(mainConfig.ConvertersDir)
	if err != nil {
		return fmt.Errorf("failed to load converter configs: %w", err)
	}
	configs, err = selectConverters(configs, converterName)
	if err != nil {
		return err
	}

	workbook, err := converter.LoadWorkbook(mainConfig, logging.Named(logger, "workbook", ""))
	if err != nil {
		return err
	}

	fm := utils.NewFileManager(mainConfig.OutputDir, mainConfig.ArchiveDir)
	if !dryRun {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
	}

	logger.Info("generation started",
		zap.Int("converters", len(configs)),
		zap.Int("sample", sampleRows),
		zap.Bool("dry_run", dryRun),
	)

	// =========================================================================
	// STEP 2: RUN CONVERTERS CONCURRENTLY
	// =========================================================================

	registry := metrics.NewRegistry()
	summary := utils.ProcessingSummary{
		RunID:           runID,
		StartTime:       time.Now(),
		DryRun:          dryRun,
		TotalConverters: len(configs),
	}

	var (
		mu      sync.Mutex
		outputs = make(map[string]*converter.Result)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mainConfig.MaxConcurrency)

	for _, cc := range configs {
		cc := cc // per-iteration copy (go directive < 1.22)
		g.Go(func() error {
			convLogger := logging.Named(logger, "converter", cc.Name)
			info, result, err := runConverter(gctx, cc, workbook, mainConfig, fm, registry, convLogger)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				convLogger.Error("converter failed", zap.Error(err))
				summary.Failed++
				summary.FailedList = append(summary.FailedList, utils.FailedConverterInfo{
					Name:         cc.Name,
					ErrorMessage: err.Error(),
				})
				if !mainConfig.ContinueOnError {
					return fmt.Errorf("converter %s: %w", cc.Name, err)
				}
				return nil
			}

			summary.Successful++
			summary.TotalLines += result.Stats.Lines
			summary.LookupMisses += result.Stats.LookupMisses
			summary.Converters = append(summary.Converters, info)
			outputs[cc.Name] = result
			return nil
		})
	}

	runErr := g.Wait()
	summary.EndTime = time.Now()

	sort.Slice(summary.Converters, func(i, j int) bool {
		return summary.Converters[i].Name < summary.Converters[j].Name
	})
	sort.Slice(summary.FailedList, func(i, j int) bool {
		return summary.FailedList[i].Name < summary.FailedList[j].Name
	})

	// =========================================================================
	// STEP 3: REPORT
	// =========================================================================

	if dryRun {
		if err := printPreview(out, configs, outputs); err != nil {
			return err
		}
	}

	if err := utils.WriteSummary(out, summary); err != nil {
		return err
	}
	if mainConfig.WriteSummary && !dryRun {
		path, err := utils.WriteSummaryLog(summary, mainConfig.OutputDir)
		if err != nil {
			logger.Warn("failed to write summary file", zap.Error(err))
		} else {
			logger.Info("summary written", zap.String("file", path))
		}
	}

	if mainConfig.MetricsFile != "" {
		if err := registry.WriteTextfile(mainConfig.MetricsFile); err != nil {
			logger.Warn("failed to write metrics file", zap.Error(err))
		}
	}

	if mainConfig.ArchiveRetentionDays > 0 && !dryRun {
		maxAge := time.Duration(mainConfig.ArchiveRetentionDays) * 24 * time.Hour
		removed, err := utils.CleanOldArchives(mainConfig.ArchiveDir, maxAge)
		if err != nil {
			logger.Warn("failed to clean archives", zap.Error(err))
		} else if removed > 0 {
			logger.Info("expired archive copies removed", zap.Int("files", removed))
		}
	}

	logger.Info("generation finished",
		zap.Int("successful", summary.Successful),
		zap.Int("failed", summary.Failed),
		zap.Int("lines", summary.TotalLines),
		zap.Duration("elapsed", summary.EndTime.Sub(summary.StartTime)),
	)

	if runErr != nil {
		return runErr
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d converter(s) failed", summary.Failed, summary.TotalConverters)
	}
	return nil
}

// runConverter generates and writes one converter.
//
// RETURNS:
//   - The summary entry of the converter.
//   - The generated result.
//   - An error if the converter cannot be built, generated or written.
func runConverter(
	ctx context.Context,
	cc *config.ConverterConfig,
	workbook *sheet.Workbook,
	mainConfig *config.MainConfig,
	fm *utils.FileManager,
	registry *metrics.Registry,
	logger *zap.Logger,
) (utils.ConverterInfo, *converter.Result, error) {
	start := time.Now()
	observer := registry.Converter(cc.Name)
	info := utils.ConverterInfo{Name: cc.Name}

	fail := func(err error) (utils.ConverterInfo, *converter.Result, error) {
		observer.RunFinished(time.Since(start), false)
		return info, nil, err
	}

	conv, err := converter.New(cc, workbook, mainConfig.TemplatesDir,
		converter.WithLogger(logger),
		converter.WithObserver(observer),
	)
	if err != nil {
		return fail(err)
	}

	result, err := conv.Generate(ctx, sampleRows)
	if err != nil {
		return fail(err)
	}
	info.Lines = result.Stats.Lines

	if !dryRun {
		written, err := conv.Write(result, fm, mainConfig.FileNameFormat)
		if err != nil {
			return fail(err)
		}
		for range written.Files {
			observer.FileWritten()
		}
		info.OutputFiles = written.Files
		info.ArchivePaths = written.Archived
	}

	info.ProcessTime = time.Since(start)
	observer.RunFinished(info.ProcessTime, true)
	logger.Info("converter finished",
		zap.Int("lines", result.Stats.Lines),
		zap.Int("lookup_misses", result.Stats.LookupMisses),
		zap.Duration("elapsed", info.ProcessTime),
	)
	return info, result, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// selectConverters returns configs, or only the converter called name.
func selectConverters(configs []*config.ConverterConfig, name string) ([]*config.ConverterConfig, error) {
	if name == "" {
		if len(configs) == 0 {
			return nil, errors.New("no converter definitions found")
		}
		return configs, nil
	}

	var names []string
	for _, c := range configs {
		if c.Name == name {
			return []*config.ConverterConfig{c}, nil
		}
		names = append(names, c.Name)
	}
	return nil, fmt.Errorf("converter %q not found (available: %s)", name, strings.Join(names, ", "))
}

// printPreview writes the generated documents of a dry run to w, in
// converter order.
func printPreview(w io.Writer, configs []*config.ConverterConfig, outputs map[string]*converter.Result) error {
	for _, cc := range configs {
		result, ok := outputs[cc.Name]
		if !ok {
			continue
		}
		for _, doc := range textwriter.Arrange(result.Sections, cc.SplitByType) {
			if _, err := fmt.Fprintf(w, "--- %s/%s (%d lines) ---\n", cc.Name, doc.Type, len(doc.Lines)); err != nil {
				return err
			}
			for _, line := range doc.Lines {
				if _, err := fmt.Fprintln(w, line); err != nil {
					return err
				}
			}
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
