// =============================================================================
// Plant Tag Generator - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It loads the configuration and
// the workbook, then checks every converter definition against them without
// generating anything.
//
// COMMAND USAGE:
//   tagconverter validate [--converter NAME]
//
// OUTPUT:
//   One line per finding, then the error and warning counts. The command
//   exits non-zero when any error was found.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/plant-tag-generator/internal/config"
	"github.com/ginjaninja78/plant-tag-generator/internal/converter"
	"github.com/ginjaninja78/plant-tag-generator/internal/logging"
	"github.com/ginjaninja78/plant-tag-generator/internal/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the converter definitions against the workbook",
	Long: `The validate command loads the main configuration, the workbook and every
converter definition, and reports references that cannot work: unknown sheets
and columns, missing templates, empty separators and unknown encodings.

Warnings (undeclared template tokens, output types without template lines) do
not fail the command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(
		&converterName,
		"converter",
		"",
		"Validate only the named converter",
	)
}

func runValidate(out io.Writer) error {
	mainConfig, logger, err := loadMainConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

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

	result := validation.NewValidator(workbook, mainConfig.TemplatesDir).ValidateAll(configs)
	logger.Debug("validation finished",
		zap.Int("converters", len(configs)),
		zap.Int("errors", result.ErrorCount),
		zap.Int("warnings", result.WarningCount),
	)

	if err := validation.WriteReport(out, result); err != nil {
		return err
	}
	if !result.IsValid() {
		return fmt.Errorf("validation failed with %d error(s)", result.ErrorCount)
	}
	return nil
}
