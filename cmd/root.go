// =============================================================================
// Plant Tag Generator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (tagconverter)
//   ├── generateCmd (tagconverter generate)
//   ├── validateCmd (tagconverter validate)
//   └── versionCmd  (tagconverter version)
//
// The root command owns the global flags and builds the configuration and
// logger shared by the subcommands.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/plant-tag-generator/internal/config"
	"github.com/ginjaninja78/plant-tag-generator/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "tagconverter",
	Short: "Plant Tag Generator - Generate tag lists from engineering spreadsheets",
	Long: `Plant Tag Generator reads the engineering workbook of a plant (IO lists,
device lists, alarm lists) and generates the tag import files of each target
system from templates.

Key Features:
  - Templates in XLSX or YAML, one group of lines per record type
  - Keyword substitution with offsets, padding and cross-sheet lookups
  - Inclusion rules evaluated per generated line
  - Several converters run concurrently over one workbook
  - Sample mode to preview the first rows of every output

Example Usage:
  tagconverter generate                      # Run every converter
  tagconverter generate --converter plc      # Run one converter
  tagconverter generate --sample 5 --dry-run # Preview without writing
  tagconverter validate                      # Check converters against the data`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main(). An interrupt
// cancels the running converters.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// loadMainConfig loads the main configuration and builds the logger it
// describes. The caller must Sync the logger.
func loadMainConfig() (*config.MainConfig, *zap.Logger, error) {
	mainConfig, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load main config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:      mainConfig.LogLevel,
		Format:     mainConfig.LogFormat,
		OutputPath: mainConfig.LogFile,
		Verbose:    verbose,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return mainConfig, logger, nil
}
