// =============================================================================
// Plant Tag Generator - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the generator:
//   - Directory management
//   - Output file naming
//   - Timestamped archive copies of generated files
//   - Archive retention
//   - The processing summary written after each run
//
// ARCHIVAL STRATEGY:
//   - Generated files stay in the output directory, where the target
//     system's import picks them up (and may overwrite them next run)
//   - Converters with timestamped_copy also leave a copy with the run
//     timestamp in its name in the archive directory
//   - Archive files older than the retention period are removed
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is used for {timestamp} and archive copy names.
const TimestampLayout = "20060102_150405"

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the generator.
type FileManager struct {
	// OutputDir is the directory where output files are placed.
	OutputDir string

	// ArchiveDir is the directory for timestamped copies.
	ArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: output_archive/2024/01/15/plc_all_20240115_143022.txt
	UseTimestampSubdirs bool

	// Now returns the current time. Default: time.Now
	Now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(outputDir, archiveDir string) *FileManager {
	return &FileManager{
		OutputDir:  outputDir,
		ArchiveDir: archiveDir,
		Now:        time.Now,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
//
// RETURNS:
//   - An error if any directory cannot be created.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.ArchiveDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// OutputPath returns the output path for a file name.
func (fm *FileManager) OutputPath(fileName string) string {
	return filepath.Join(fm.OutputDir, fileName)
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveOutputFile copies an output file to the archive directory, adding
// the current timestamp to its name.
//
// PARAMETERS:
//   - filePath: The path to the file to archive.
//
// RETURNS:
//   - The path to the archived copy.
//   - An error if archival fails.
func (fm *FileManager) ArchiveOutputFile(filePath string) (string, error) {
	archivePath := fm.getArchivePath(filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}
	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}
	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(filePath string) string {
	now := fm.now()
	base := filepath.Base(filePath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext) + "_" + now.Format(TimestampLayout) + ext

	if fm.UseTimestampSubdirs {
		return filepath.Join(
			fm.ArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			name,
		)
	}
	return filepath.Join(fm.ArchiveDir, name)
}

func (fm *FileManager) now() time.Time {
	if fm.Now == nil {
		return time.Now()
	}
	return fm.Now()
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates an output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {converter} - Converter name
//               {type}      - Output type
//   - params: Values for custom placeholders such as converter and type.
//   - extension: Appended unless the name already ends with it.
//
// RETURNS:
//   - The generated file name.
//
// EXAMPLE:
//   format: "{converter}_{type}_{timestamp}"
//   params: {"converter": "plc", "type": "DI"}
//   output: "plc_DI_20240115_143022.txt"
func (fm *FileManager) GenerateOutputFileName(format string, params map[string]string, extension string) string {
	now := fm.now()

	pairs := []string{
		"{uuid}", uuid.New().String(),
		"{timestamp}", now.Format(TimestampLayout),
		"{date}", now.Format("20060102"),
	}
	for key, value := range params {
		pairs = append(pairs, "{"+key+"}", sanitizeFileName(value))
	}

	result := strings.NewReplacer(pairs...).Replace(format)
	if extension != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(extension)) {
		result += extension
	}
	return result
}

// sanitizeFileName replaces characters that are not allowed in file names.
func sanitizeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a run.
type ProcessingSummary struct {
	RunID           string
	StartTime       time.Time
	EndTime         time.Time
	DryRun          bool
	TotalConverters int
	Successful      int
	Failed          int
	TotalLines      int
	LookupMisses    int
	Converters      []ConverterInfo
	FailedList      []FailedConverterInfo
}

// ConverterInfo describes a successful converter run.
type ConverterInfo struct {
	Name         string
	OutputFiles  []string
	ArchivePaths []string
	Lines        int
	ProcessTime  time.Duration
}

// FailedConverterInfo describes a failed converter run.
type FailedConverterInfo struct {
	Name         string
	ErrorMessage string
}

// WriteSummaryLog writes a processing summary to a file in outputDir.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	summaryPath := filepath.Join(outputDir,
		fmt.Sprintf("generation_summary_%s.txt", summary.StartTime.Format(TimestampLayout)))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := WriteSummary(writer, summary); err != nil {
		return "", err
	}
	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// WriteSummary renders the summary as text.
func WriteSummary(w io.Writer, summary ProcessingSummary) error {
	var b strings.Builder

	duration := summary.EndTime.Sub(summary.StartTime)
	mode := "write"
	if summary.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(&b, "Plant Tag Generator - Generation Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Mode:           %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Converters:     %d\n"+
		"  Successful:     %d\n"+
		"  Failed:         %d\n"+
		"  Lines:          %d\n"+
		"  Lookup Misses:  %d\n\n",
		summary.RunID,
		mode,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		duration.String(),
		summary.TotalConverters,
		summary.Successful,
		summary.Failed,
		summary.TotalLines,
		summary.LookupMisses)

	if len(summary.Converters) > 0 {
		b.WriteString("Successful Converters:\n")
		b.WriteString("--------------------------------------------------------------------------------\n")
		for _, c := range summary.Converters {
			fmt.Fprintf(&b, "  Converter:    %s\n", c.Name)
			for _, f := range c.OutputFiles {
				fmt.Fprintf(&b, "  Output:       %s\n", f)
			}
			for _, f := range c.ArchivePaths {
				fmt.Fprintf(&b, "  Archived:     %s\n", f)
			}
			fmt.Fprintf(&b, "  Lines:        %d\n", c.Lines)
			fmt.Fprintf(&b, "  Process Time: %s\n\n", c.ProcessTime.String())
		}
	}

	if len(summary.FailedList) > 0 {
		b.WriteString("Failed Converters:\n")
		b.WriteString("--------------------------------------------------------------------------------\n")
		for _, f := range summary.FailedList {
			fmt.Fprintf(&b, "  Converter: %s\n", f.Name)
			fmt.Fprintf(&b, "  Error:     %s\n\n", f.ErrorMessage)
		}
	}

	b.WriteString("================================================================================\n" +
		"End of Summary\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// CleanOldArchives removes archive files older than maxAge.
//
// PARAMETERS:
//   - archiveDir: The archive directory to clean.
//   - maxAge: The maximum age of files to keep.
//
// RETURNS:
//   - The number of files removed.
//   - An error if cleaning fails.
func CleanOldArchives(archiveDir string, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	err := filepath.Walk(archiveDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("failed to clean archives: %w", err)
	}

	return removed, nil
}
