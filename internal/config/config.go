// Package config provides configuration types, defaults, and persistence
// for strand.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zjrosen/strand/internal/log"
	"github.com/zjrosen/strand/internal/tracing"
)

// PlaygroundConfig holds playground mode configuration.
type PlaygroundConfig struct {
	// StateFile is the YAML file the playground hydrates its store from
	// and dumps it to. Default: derived from the config directory.
	StateFile string `mapstructure:"state_file"`

	// AutoReload re-hydrates the store when the state file changes on
	// disk (default: true).
	AutoReload bool `mapstructure:"auto_reload"`

	// ReloadDebounceMs coalesces bursts of file events into a single
	// reload. Default: 250.
	ReloadDebounceMs int `mapstructure:"reload_debounce_ms"`
}

// Config holds all configuration options for strand.
type Config struct {
	Debug       bool             `mapstructure:"debug"`
	PurityCheck bool             `mapstructure:"purity_check"` // Validate selectors by double invocation
	Playground  PlaygroundConfig `mapstructure:"playground"`
	Tracing     tracing.Config   `mapstructure:"tracing"`
	Flags       map[string]bool  `mapstructure:"flags"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Debug:       false,
		PurityCheck: false,
		Playground: PlaygroundConfig{
			StateFile:        "", // Derived from config dir at runtime
			AutoReload:       true,
			ReloadDebounceMs: 250,
		},
		Tracing: tracing.DefaultConfig(),
		Flags:   map[string]bool{},
	}
}

// DefaultStateFilePath returns the default path for the playground state
// file. Returns ~/.config/strand/state.yaml or empty string if the home
// dir is unavailable.
func DefaultStateFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "strand", "state.yaml")
}

// DefaultTracesFilePath returns the default path for trace output.
// Returns ~/.config/strand/traces/traces.jsonl or empty string if the
// home dir is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "strand", "traces", "traces.jsonl")
}

// ValidateTracing checks the tracing section for invalid combinations.
func ValidateTracing(cfg tracing.Config) error {
	if cfg.SampleRate < 0.0 || cfg.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", cfg.SampleRate)
	}

	if cfg.Exporter != "" {
		switch cfg.Exporter {
		case "none", "file", "stdout", "otlp":
			// Valid
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", cfg.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if cfg.Enabled {
		if cfg.Exporter == "file" && cfg.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if cfg.Exporter == "otlp" && cfg.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// ValidatePlayground checks the playground section.
func ValidatePlayground(cfg PlaygroundConfig) error {
	if cfg.ReloadDebounceMs < 0 {
		return fmt.Errorf("playground.reload_debounce_ms must not be negative, got %d", cfg.ReloadDebounceMs)
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Strand Configuration

# Enable debug logging to strand.log
debug: false

# Validate every bound selector by double invocation. Selectors that
# fabricate a fresh value per call fail their snapshot reads with a
# purity error instead of silently defeating memoization.
purity_check: false

# Playground settings
playground:
  # YAML file the playground store hydrates from (default: ~/.config/strand/state.yaml)
  # state_file: /path/to/state.yaml
  auto_reload: true        # Re-hydrate when the state file changes on disk
  reload_debounce_ms: 250  # Coalesce bursts of file events

# Distributed tracing (spans around mutate/patch/revert)
tracing:
  enabled: false
  # exporter: file         # "none", "file", "stdout", or "otlp"
  # file_path:             # default: ~/.config/strand/traces/traces.jsonl
  # otlp_endpoint: localhost:4317
  sample_rate: 1.0

# Feature flags
# flags:
#   purity-check: true
#   trace-mutations: false
`
}

// WriteDefaultConfig writes the default config template to the given path,
// creating parent directories as needed.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
