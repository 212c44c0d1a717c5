// =============================================================================
// Plant Tag Generator - Configuration Module
// =============================================================================
//
// This module loads the main application configuration and the converter
// definitions.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): data sources, relations, directories,
//      logging and processing settings
//   2. Converter Configs (converters/*.yaml): one file per target format,
//      binding a template to output types and their keyword tables
//
// Relative paths in the main config are resolved against the directory of
// the config file, so a project folder can be moved as a whole.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/plant-tag-generator/internal/keyword"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// ENGINEERING DATA
	// =========================================================================

	// Sources lists the sheets of the engineering workbook.
	Sources []SourceConfig `yaml:"sources"`

	// Relations link a field of one sheet to a row of another.
	Relations []RelationConfig `yaml:"relations"`

	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// TemplatesDir holds the template files named by converters.
	// Default: "./templates"
	TemplatesDir string `yaml:"templates_dir"`

	// ConvertersDir holds one YAML file per converter.
	// Default: "./converters"
	ConvertersDir string `yaml:"converters_dir"`

	// OutputDir receives the generated files.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// ArchiveDir receives timestamped copies of generated files.
	// Default: "./output_archive"
	ArchiveDir string `yaml:"archive_dir"`

	// ArchiveRetentionDays removes older archive copies. 0 keeps all.
	ArchiveRetentionDays int `yaml:"archive_retention_days"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel: "debug", "info", "warn", "error". Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat: "console" or "json". Default: "console"
	LogFormat string `yaml:"log_format"`

	// LogFile is an optional log file path. Default: stderr.
	LogFile string `yaml:"log_file"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// FileNameFormat names output files.
	// Placeholders:
	//   {converter} - Converter name
	//   {type}      - Output type (or "all" when not split by type)
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {uuid}      - A random UUID
	// Default: "{converter}_{type}"
	FileNameFormat string `yaml:"file_name_format"`

	// MetricsFile, when set, receives a Prometheus textfile after each run.
	MetricsFile string `yaml:"metrics_file"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// WriteSummary writes a generation summary file into the output directory.
	WriteSummary bool `yaml:"write_summary"`

	// MaxConcurrency is the number of converters run in parallel.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError keeps running the other converters when one fails.
	// Default: true
	ContinueOnError bool `yaml:"continue_on_error"`
}

// SourceConfig describes one sheet of engineering data.
type SourceConfig struct {
	// Name is the logical sheet name used by converters.
	Name string `yaml:"name"`

	// File is the .xlsx or .csv file holding the sheet.
	File string `yaml:"file"`

	// Worksheet selects the worksheet of an XLSX file. Default: first.
	Worksheet string `yaml:"worksheet"`

	// HeaderRow is the 1-based row holding column names. Default: 1
	HeaderRow int `yaml:"header_row"`

	// Delimiter separates CSV fields. Default: tab for .tsv files, "," otherwise
	Delimiter string `yaml:"delimiter"`

	// Encoding of CSV files. Default: "utf-8"
	Encoding string `yaml:"encoding"`

	// Key is the column other sheets refer to (documentation and validation).
	Key string `yaml:"key"`

	// Columns declares column kinds: string, int, optional_int, bool.
	// Undeclared columns are strings.
	Columns map[string]string `yaml:"columns"`
}

// RelationConfig links Sheet.Field to the Target row whose Key matches.
type RelationConfig struct {
	Sheet  string `yaml:"sheet"`
	Field  string `yaml:"field"`
	Target string `yaml:"target"`
	Key    string `yaml:"key"`
}

// =============================================================================
// CONVERTER CONFIGURATION STRUCTURE
// =============================================================================

// ConverterConfig defines one target format.
type ConverterConfig struct {
	// Name identifies the converter. Default: file name without extension.
	Name string `yaml:"name"`

	// Description is shown by "validate" and in the summary.
	Description string `yaml:"description"`

	// Template is the template file name inside the templates directory.
	Template string `yaml:"template"`

	// Separator joins template columns. Default: ";"
	Separator string `yaml:"separator"`

	// Encoding of the output file. Default: "utf-8"
	Encoding string `yaml:"encoding"`

	// LineEnding: "crlf" or "lf". Default: "crlf"
	LineEnding string `yaml:"line_ending"`

	// Extension of output files. Default: ".txt"
	Extension string `yaml:"extension"`

	// Sample restricts generation to the first SampleLimit rows.
	Sample      bool `yaml:"sample"`
	SampleLimit int  `yaml:"sample_limit"`

	// SplitByType writes one file per output type.
	SplitByType bool `yaml:"split_by_type"`

	// TimestampedCopy also writes a copy into the archive directory.
	TimestampedCopy bool `yaml:"timestamped_copy"`

	// Outputs are generated in declaration order.
	Outputs []OutputConfig `yaml:"outputs"`

	// Path is the file the converter was loaded from.
	Path string `yaml:"-"`
}

// OutputConfig is one output type of a converter.
type OutputConfig struct {
	// Type names the output. It is also the template record type unless
	// RecordType is set.
	Type string `yaml:"type"`

	// RecordType selects template groups when several outputs share them,
	// e.g. vented and non-vented partitions of the same valve list.
	RecordType string `yaml:"record_type"`

	// Sheet is the row source.
	Sheet string `yaml:"sheet"`

	// SubtypeFields are joined into the row's subtype token.
	SubtypeFields []string `yaml:"subtype_fields"`

	// Filter selects the rows of this type. Nil accepts every row.
	Filter *FilterConfig `yaml:"filter"`

	// Keywords is the substitution table.
	Keywords []keyword.Keyword `yaml:"keywords"`

	// Preamble lines are written before the template lines.
	Preamble []RawLineConfig `yaml:"preamble"`

	// Trailer lines are written after the template lines.
	Trailer []RawLineConfig `yaml:"trailer"`
}

// FilterConfig accepts rows whose Field equals Equals (case-insensitive).
type FilterConfig struct {
	Field  string `yaml:"field"`
	Equals string `yaml:"equals"`
}

// RawLineConfig is a line emitted outside the template model.
type RawLineConfig struct {
	Text string `yaml:"text"`
	Rule string `yaml:"rule"`

	// Once emits the line for the first qualifying row only.
	Once bool `yaml:"once"`
}

// SampleLimitFor returns the effective sample limit. A positive override
// (the --sample flag) wins; otherwise the converter's own setting applies.
// Zero means "all rows".
func (c *ConverterConfig) SampleLimitFor(override int) int {
	if override > 0 {
		return override
	}
	if c.Sample {
		return c.SampleLimit
	}
	return 0
}

// LineSeparator returns the line terminator for LineEnding.
func (c *ConverterConfig) LineSeparator() string {
	if c.LineEnding == "lf" {
		return "\n"
	}
	return "\r\n"
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := MainConfig{ContinueOnError: true}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)
	resolvePaths(&config, filepath.Dir(configPath))

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.TemplatesDir == "" {
		config.TemplatesDir = "./templates"
	}
	if config.ConvertersDir == "" {
		config.ConvertersDir = "./converters"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.ArchiveDir == "" {
		config.ArchiveDir = "./output_archive"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "console"
	}
	if config.FileNameFormat == "" {
		config.FileNameFormat = "{converter}_{type}"
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}

	for i := range config.Sources {
		s := &config.Sources[i]
		if s.HeaderRow == 0 {
			s.HeaderRow = 1
		}
		if s.Encoding == "" {
			s.Encoding = "utf-8"
		}
	}
}

// resolvePaths makes relative paths relative to base.
func resolvePaths(config *MainConfig, base string) {
	resolve := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}

	resolve(&config.TemplatesDir)
	resolve(&config.ConvertersDir)
	resolve(&config.OutputDir)
	resolve(&config.ArchiveDir)
	resolve(&config.LogFile)
	resolve(&config.MetricsFile)
	for i := range config.Sources {
		resolve(&config.Sources[i].File)
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	if config.ArchiveRetentionDays < 0 {
		return fmt.Errorf("archive_retention_days must not be negative")
	}
	if len(config.Sources) == 0 {
		return fmt.Errorf("no sources defined")
	}

	names := make(map[string]bool, len(config.Sources))
	for i, s := range config.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i+1)
		}
		if names[s.Name] {
			return fmt.Errorf("source %s defined twice", s.Name)
		}
		names[s.Name] = true
		if s.File == "" {
			return fmt.Errorf("source %s: file is required", s.Name)
		}
		if s.HeaderRow < 1 {
			return fmt.Errorf("source %s: header_row must be 1 or greater", s.Name)
		}
	}

	for i, r := range config.Relations {
		if r.Sheet == "" || r.Field == "" || r.Target == "" || r.Key == "" {
			return fmt.Errorf("relation %d: sheet, field, target and key are required", i+1)
		}
		if !names[r.Sheet] {
			return fmt.Errorf("relation %d: unknown sheet %s", i+1, r.Sheet)
		}
		if !names[r.Target] {
			return fmt.Errorf("relation %d: unknown target %s", i+1, r.Target)
		}
	}

	switch config.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", config.LogFormat)
	}

	return nil
}

// LoadConverterConfigs loads all converter definitions from a directory.
//
// PARAMETERS:
//   - convertersDir: The directory containing converter YAML files.
//
// RETURNS:
//   - The converters sorted by name.
//   - An error if a file cannot be parsed or two converters share a name.
func LoadConverterConfigs(convertersDir string) ([]*ConverterConfig, error) {
	files, err := filepath.Glob(filepath.Join(convertersDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list converter files: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(convertersDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list converter files: %w", err)
	}
	files = append(files, ymlFiles...)

	seen := make(map[string]string, len(files))
	configs := make([]*ConverterConfig, 0, len(files))
	for _, file := range files {
		config, err := LoadConverterConfig(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
		if other, ok := seen[config.Name]; ok {
			return nil, fmt.Errorf("converter %s defined in both %s and %s", config.Name, other, file)
		}
		seen[config.Name] = file
		configs = append(configs, config)
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })
	return configs, nil
}

// LoadConverterConfig loads a single converter file.
func LoadConverterConfig(filePath string) (*ConverterConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config ConverterConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}
	config.Path = filePath

	if config.Name == "" {
		base := filepath.Base(filePath)
		config.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	applyConverterConfigDefaults(&config)

	if err := validateConverterConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// applyConverterConfigDefaults sets default values for converter configuration.
func applyConverterConfigDefaults(config *ConverterConfig) {
	if config.Separator == "" {
		config.Separator = ";"
	}
	if config.Encoding == "" {
		config.Encoding = "utf-8"
	}
	if config.LineEnding == "" {
		config.LineEnding = "crlf"
	}
	if config.Extension == "" {
		config.Extension = ".txt"
	}
	if !strings.HasPrefix(config.Extension, ".") {
		config.Extension = "." + config.Extension
	}
	if config.Sample && config.SampleLimit <= 0 {
		config.SampleLimit = 10
	}
	for i := range config.Outputs {
		if config.Outputs[i].RecordType == "" {
			config.Outputs[i].RecordType = config.Outputs[i].Type
		}
	}
}

// validateConverterConfig checks what can be checked without the workbook.
func validateConverterConfig(config *ConverterConfig) error {
	if config.Template == "" {
		return fmt.Errorf("converter %s: template is required", config.Name)
	}
	if config.LineEnding != "crlf" && config.LineEnding != "lf" {
		return fmt.Errorf("converter %s: line_ending must be crlf or lf, got %q", config.Name, config.LineEnding)
	}
	if len(config.Outputs) == 0 {
		return fmt.Errorf("converter %s: no outputs defined", config.Name)
	}

	types := make(map[string]bool, len(config.Outputs))
	for i, o := range config.Outputs {
		if o.Type == "" {
			return fmt.Errorf("converter %s output %d: type is required", config.Name, i+1)
		}
		if types[o.Type] {
			return fmt.Errorf("converter %s: output type %s defined twice", config.Name, o.Type)
		}
		types[o.Type] = true
		if o.Sheet == "" {
			return fmt.Errorf("converter %s output %s: sheet is required", config.Name, o.Type)
		}
		if o.Filter != nil && o.Filter.Field == "" {
			return fmt.Errorf("converter %s output %s: filter field is required", config.Name, o.Type)
		}
	}
	return nil
}
