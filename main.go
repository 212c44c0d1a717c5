// =============================================================================
// Plant Tag Generator - Main Entry Point
// =============================================================================
//
// USAGE:
//   tagconverter generate  - Run the converters and write the tag files
//   tagconverter validate  - Check converter definitions against the workbook
//   tagconverter version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/        : CLI command definitions (Cobra)
//   - internal/   : Workbook loading, templates, keyword substitution,
//                   generation engine, converters, configuration
//   - pkg/        : Shared file management utilities
//   - converters/ : One YAML definition per target format
//   - templates/  : XLSX or YAML line templates
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/plant-tag-generator/cmd"
)

func main() {
	cmd.Execute()
}
