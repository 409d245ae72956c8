// Package output serializes command results to stdout.
package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mj1618/dockwatch/internal/model"
	"gopkg.in/yaml.v3"
)

// Format represents the output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// OutputFormat is the current output format, set by the root command's --format flag.
var OutputFormat Format = FormatYAML

// PrettyOutput enables pretty-printing for JSON output.
var PrettyOutput bool

// WindowsResult is the top-level output of the `windows` command.
type WindowsResult struct {
	TS      int64          `yaml:"ts"      json:"ts"`
	Windows []model.Window `yaml:"windows" json:"windows"`
}

// ScreenEntry pairs a screen with the dock area computed for it.
type ScreenEntry struct {
	Screen   model.Screen `yaml:"screen"    json:"screen"`
	DockArea model.Rect   `yaml:"dock_area" json:"dock_area"`
}

// ScreensResult is the top-level output of the `screens` command.
type ScreensResult struct {
	TS      int64         `yaml:"ts"      json:"ts"`
	Screens []ScreenEntry `yaml:"screens" json:"screens"`
}

// BadgesResult is the top-level output of the `badges` command.
type BadgesResult struct {
	TS     int64          `yaml:"ts"              json:"ts"`
	Counts map[string]int `yaml:"counts"          json:"counts"`
	Total  int            `yaml:"total"           json:"total"`
	Source string         `yaml:"source,omitempty" json:"source,omitempty"`
}

// ArbitrateResult is the top-level output of the `arbitrate` command.
type ArbitrateResult struct {
	TS        int64 `yaml:"ts"        json:"ts"`
	Corrected int   `yaml:"corrected" json:"corrected"`
	Passes    int   `yaml:"passes"    json:"passes"`
	Converged bool  `yaml:"converged" json:"converged"`
}

// Print serializes v to stdout in the current output format.
func Print(v interface{}) error {
	switch OutputFormat {
	case FormatJSON:
		return PrintJSON(v, PrettyOutput)
	case FormatYAML:
		return PrintYAML(v)
	default:
		return fmt.Errorf("unsupported output format: %s", OutputFormat)
	}
}

// PrintJSON serializes v to stdout as JSON.
// If pretty is true, uses indentation; otherwise single-line.
func PrintJSON(v interface{}, pretty bool) error {
	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

// PrintYAML serializes v to stdout as YAML.
func PrintYAML(v interface{}) error {
	enc := yaml.NewEncoder(os.Stdout)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}
