package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/strand/internal/tracing"
)

// === Unit Tests: Defaults ===

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.False(t, cfg.Debug)
	require.False(t, cfg.PurityCheck)
	require.True(t, cfg.Playground.AutoReload)
	require.Equal(t, 250, cfg.Playground.ReloadDebounceMs)
	require.False(t, cfg.Tracing.Enabled)
	require.NotNil(t, cfg.Flags)
}

func TestDefaultStateFilePath(t *testing.T) {
	path := DefaultStateFilePath()
	if path == "" {
		t.Skip("no home directory available")
	}
	require.Contains(t, path, filepath.Join(".config", "strand"))
	require.True(t, filepath.IsAbs(path))
}

// === Unit Tests: Validation ===

func TestValidateTracing_SampleRateRange(t *testing.T) {
	err := ValidateTracing(tracing.Config{SampleRate: 1.5})
	require.Error(t, err)
	require.Contains(t, err.Error(), "sample_rate")

	require.NoError(t, ValidateTracing(tracing.Config{SampleRate: 0.5}))
}

func TestValidateTracing_ExporterOptions(t *testing.T) {
	err := ValidateTracing(tracing.Config{Exporter: "jaeger"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "exporter")

	for _, exporter := range []string{"", "none", "stdout"} {
		require.NoError(t, ValidateTracing(tracing.Config{Exporter: exporter}))
	}
}

func TestValidateTracing_RequiredPathsOnlyWhenEnabled(t *testing.T) {
	// Disabled: missing file path is fine.
	require.NoError(t, ValidateTracing(tracing.Config{Exporter: "file"}))

	err := ValidateTracing(tracing.Config{Enabled: true, Exporter: "file"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "file_path")

	err = ValidateTracing(tracing.Config{Enabled: true, Exporter: "otlp"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "otlp_endpoint")
}

func TestValidatePlayground(t *testing.T) {
	require.NoError(t, ValidatePlayground(PlaygroundConfig{ReloadDebounceMs: 0}))
	require.Error(t, ValidatePlayground(PlaygroundConfig{ReloadDebounceMs: -1}))
}

// === Unit Tests: WriteDefaultConfig ===

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "purity_check")
	require.Contains(t, string(data), "tracing")
}
