// Package config loads and saves the viewer's persistent settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/miosa/osa-vlist/virtual"
)

// Source names accepted in Config.Source.
const (
	SourceSynthetic = "synthetic"
	SourceGit       = "git"
)

// ErrUnknownSource is returned by Validate for an unrecognised source.
var ErrUnknownSource = errors.New("config: unknown source")

// Config holds persistent settings stored at <profileDir>/vlist.json.
type Config struct {
	Theme string `json:"theme,omitempty"` // empty follows the terminal background

	// Engine
	EstimatedHeight int   `json:"estimated_height,omitempty"`
	Overscan        int   `json:"overscan,omitempty"`
	ScrollThreshold int   `json:"scroll_threshold,omitempty"`
	Anchor          *bool `json:"anchor,omitempty"`

	// List
	Gap    int  `json:"gap"`
	Follow bool `json:"follow,omitempty"`

	// Data source
	Source string `json:"source,omitempty"`
	Count  int    `json:"count,omitempty"`
	Seed   uint64 `json:"seed,omitempty"`
	Repo   string `json:"repo,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

const filename = "vlist.json"

// Load reads <profileDir>/vlist.json and returns the parsed Config.
// If the file is absent or unreadable, a default Config is returned.
// Fields missing from the file keep their defaults.
func Load(profileDir string) Config {
	cfg := Defaults()
	data, err := os.ReadFile(filepath.Join(profileDir, filename))
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Defaults()
	}
	return cfg
}

// Save writes cfg to <profileDir>/vlist.json, creating the directory if needed.
func Save(profileDir string, cfg Config) error {
	if err := os.MkdirAll(profileDir, 0o755); err != nil {
		return fmt.Errorf("config: create profile dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return os.WriteFile(filepath.Join(profileDir, filename), data, 0o644)
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Theme:           "",
		EstimatedHeight: virtual.DefaultEstimatedHeight,
		Overscan:        virtual.DefaultOverscan,
		ScrollThreshold: virtual.DefaultScrollThreshold,
		Gap:             1,
		Follow:          false,
		Source:          SourceSynthetic,
		Count:           10_000,
		Seed:            1,
		Repo:            ".",
		Limit:           5_000,
	}
}

// AnchorEnabled reports whether scroll anchoring is on. Unset means on.
func (c Config) AnchorEnabled() bool {
	return c.Anchor == nil || *c.Anchor
}

// EngineOptions maps the engine settings onto virtual options.
func (c Config) EngineOptions() []virtual.Option {
	return []virtual.Option{
		virtual.WithEstimatedHeight(c.EstimatedHeight),
		virtual.WithOverscan(c.Overscan),
		virtual.WithScrollThreshold(c.ScrollThreshold),
		virtual.WithScrollAnchoring(c.AnchorEnabled()),
	}
}

// Validate checks c before any list is built. Engine errors wrap
// virtual.ErrInvalidConfiguration.
func (c Config) Validate() error {
	o := virtual.DefaultOptions()
	for _, opt := range c.EngineOptions() {
		opt(&o)
	}
	if err := o.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Gap < 0 {
		return fmt.Errorf("config: %w: gap %d must not be negative", virtual.ErrInvalidConfiguration, c.Gap)
	}
	if !slices.Contains([]string{SourceSynthetic, SourceGit}, c.Source) {
		return fmt.Errorf("%w %q", ErrUnknownSource, c.Source)
	}
	if c.Source == SourceSynthetic && c.Count < 0 {
		return fmt.Errorf("config: %w: count %d must not be negative", virtual.ErrInvalidConfiguration, c.Count)
	}
	return nil
}
