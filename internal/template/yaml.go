package template

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlDocument is the on-disk form of a YAML template:
//
//	groups:
//	  - type: DI
//	    subtype: DI_ALARM
//	    lines:
//	      - rule: "{Priority} > 1"
//	        columns: ["{Tag}_AL", "{Timer}"]
//	      - raw: "ALIAS {Tag} {Alias}"
type yamlDocument struct {
	Groups []yamlGroup `yaml:"groups"`
}

type yamlGroup struct {
	Type    string     `yaml:"type"`
	SubType string     `yaml:"subtype"`
	Lines   []yamlLine `yaml:"lines"`
}

type yamlLine struct {
	Rule    string   `yaml:"rule"`
	Columns []string `yaml:"columns"`
	Raw     string   `yaml:"raw"`
}

// ParseYAMLFile reads a YAML template from disk.
func ParseYAMLFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	return ParseYAML(path, data)
}

// ParseYAML parses a YAML template document.
func ParseYAML(source string, data []byte) (*Model, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	model := NewModel(source)
	for i, g := range doc.Groups {
		if g.Type == "" {
			return nil, fmt.Errorf("group %d has no type", i+1)
		}
		for j, l := range g.Lines {
			if l.Columns != nil && l.Raw != "" {
				return nil, fmt.Errorf("group %s line %d sets both columns and raw", g.Type, j+1)
			}
			model.Add(g.Type, g.SubType, Line{Columns: l.Columns, Raw: l.Raw, Rule: l.Rule})
		}
	}

	return model, nil
}
