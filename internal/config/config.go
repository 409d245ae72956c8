// Package config loads and validates the dockwatch settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Position is the screen edge the dock occupies.
type Position string

const (
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
	PositionLeft   Position = "left"
	PositionRight  Position = "right"
)

func (p Position) Valid() bool {
	switch p {
	case PositionTop, PositionBottom, PositionLeft, PositionRight:
		return true
	}
	return false
}

// Horizontal reports whether the dock spans a horizontal edge, i.e. it
// blocks vertical space.
func (p Position) Horizontal() bool {
	return p == PositionTop || p == PositionBottom
}

// SizeClass selects the dock's fixed pixel extent.
type SizeClass string

const (
	SizeSmall  SizeClass = "small"
	SizeMedium SizeClass = "medium"
	SizeLarge  SizeClass = "large"
)

// Extent returns the dock thickness in pixels for the size class.
func (s SizeClass) Extent() float64 {
	switch s {
	case SizeSmall:
		return 40
	case SizeLarge:
		return 72
	default:
		return 56
	}
}

func (s SizeClass) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

// Padding is the per-edge gap between the dock area and the screen edges.
type Padding struct {
	Top    float64 `yaml:"top"`
	Bottom float64 `yaml:"bottom"`
	Left   float64 `yaml:"left"`
	Right  float64 `yaml:"right"`
}

// Corner is one of the nine positions a notification banner can target.
type Corner string

const (
	CornerTopLeft      Corner = "top-left"
	CornerTopCenter    Corner = "top-center"
	CornerTopRight     Corner = "top-right"
	CornerMiddleLeft   Corner = "middle-left"
	CornerMiddleCenter Corner = "middle-center"
	CornerMiddleRight  Corner = "middle-right"
	CornerBottomLeft   Corner = "bottom-left"
	CornerBottomCenter Corner = "bottom-center"
	CornerBottomRight  Corner = "bottom-right"
)

// CornerDefault is where the platform already places banners; selecting it
// disables repositioning.
const CornerDefault = CornerTopRight

var corners = map[Corner]bool{
	CornerTopLeft: true, CornerTopCenter: true, CornerTopRight: true,
	CornerMiddleLeft: true, CornerMiddleCenter: true, CornerMiddleRight: true,
	CornerBottomLeft: true, CornerBottomCenter: true, CornerBottomRight: true,
}

func (c Corner) Valid() bool { return corners[c] }

// Dock configures the reserved dock region.
type Dock struct {
	Position Position  `yaml:"position"`
	Size     SizeClass `yaml:"size"`
	Padding  Padding   `yaml:"padding"`
}

// Arbiter configures the window arbitration pass.
type Arbiter struct {
	Enabled bool    `yaml:"enabled"`
	Margin  float64 `yaml:"margin"` // gap between windows and the dock area
}

// Fullscreen holds the empirically tuned detection constants. They are
// configuration rather than invariants; see the settings file comments for
// recalibration notes.
type Fullscreen struct {
	AlphaThreshold float64 `yaml:"alpha_threshold"`
	RequireTitle   bool    `yaml:"require_title"`
	Tolerance      float64 `yaml:"tolerance"`
}

// Notifications configures banner repositioning.
type Notifications struct {
	Reposition bool   `yaml:"reposition"`
	Corner     Corner `yaml:"corner"`
}

// Logging configures the engine log files.
type Logging struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

// Config is the full settings file.
type Config struct {
	Dock          Dock          `yaml:"dock"`
	Arbiter       Arbiter       `yaml:"arbiter"`
	Fullscreen    Fullscreen    `yaml:"fullscreen"`
	Notifications Notifications `yaml:"notifications"`
	Logging       Logging       `yaml:"logging"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Dock: Dock{
			Position: PositionBottom,
			Size:     SizeMedium,
		},
		Arbiter: Arbiter{
			Enabled: true,
			Margin:  15,
		},
		Fullscreen: Fullscreen{
			AlphaThreshold: 0.9,
			RequireTitle:   true,
			Tolerance:      2,
		},
		Notifications: Notifications{
			Reposition: false,
			Corner:     CornerDefault,
		},
		Logging: Logging{
			Dir:   filepath.Join(home, ".local", "share", "dockwatch"),
			Level: "info",
		},
	}
}

// DefaultPath returns the standard settings file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "dockwatch", "config.yaml")
}

// Load reads the settings file at path, layering it over defaults. A missing
// file is not an error: defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enum fields and numeric ranges.
func (c Config) Validate() error {
	if !c.Dock.Position.Valid() {
		return fmt.Errorf("dock.position must be top, bottom, left, or right (got %q)", c.Dock.Position)
	}
	if !c.Dock.Size.Valid() {
		return fmt.Errorf("dock.size must be small, medium, or large (got %q)", c.Dock.Size)
	}
	if !c.Notifications.Corner.Valid() {
		return fmt.Errorf("notifications.corner must be one of the nine corner values (got %q)", c.Notifications.Corner)
	}
	if c.Fullscreen.AlphaThreshold < 0 || c.Fullscreen.AlphaThreshold > 1 {
		return fmt.Errorf("fullscreen.alpha_threshold must be in [0, 1] (got %g)", c.Fullscreen.AlphaThreshold)
	}
	if c.Fullscreen.Tolerance < 0 {
		return fmt.Errorf("fullscreen.tolerance must be non-negative (got %g)", c.Fullscreen.Tolerance)
	}
	if c.Arbiter.Margin < 0 {
		return fmt.Errorf("arbiter.margin must be non-negative (got %g)", c.Arbiter.Margin)
	}
	return nil
}
