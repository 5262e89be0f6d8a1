// Package cmd wires the CLI: configuration loading, the playground TUI,
// and the state dump command.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/strand/internal/config"
	"github.com/zjrosen/strand/internal/flags"
	"github.com/zjrosen/strand/internal/log"
	"github.com/zjrosen/strand/internal/mode/playground"
	"github.com/zjrosen/strand/internal/statefile"
	"github.com/zjrosen/strand/internal/tracing"
	"github.com/zjrosen/strand/internal/watcher"
	"github.com/zjrosen/strand/store"
)

var (
	version = "dev"
	cfgFile string
	debug   bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "strand",
	Short:   "A reactive state container playground",
	Long:    `An interactive terminal playground for a reactive state container: immutable mutations, best-effort reverts, memoized derivations, and state file hot-reload.`,
	Version: version,
	RunE:    runPlayground,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/strand/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"enable debug logging to strand.log")
	rootCmd.Flags().String("state-file", "",
		"state file to hydrate the playground from")
	rootCmd.Flags().Bool("purity-check", false,
		"validate selectors by double invocation")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("playground.state_file", rootCmd.Flags().Lookup("state-file"))
	_ = viper.BindPFlag("purity_check", rootCmd.Flags().Lookup("purity-check"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("debug", defaults.Debug)
	viper.SetDefault("purity_check", defaults.PurityCheck)
	viper.SetDefault("playground.auto_reload", defaults.Playground.AutoReload)
	viper.SetDefault("playground.reload_debounce_ms", defaults.Playground.ReloadDebounceMs)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	viper.SetEnvPrefix("STRAND")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .strand/config.yaml (current directory)
		// 2. ~/.config/strand/config.yaml (user config)
		if _, err := os.Stat(".strand/config.yaml"); err == nil {
			viper.SetConfigFile(".strand/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "strand"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config anywhere - write the default next to the binary's cwd
			defaultPath := ".strand/config.yaml"
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// resolveStateFile picks the state file path from config, falling back to
// the per-user default.
func resolveStateFile(cfg config.Config) string {
	if cfg.Playground.StateFile != "" {
		return cfg.Playground.StateFile
	}
	return config.DefaultStateFilePath()
}

// resolveTracing fills in the derived file path when tracing is enabled
// with the file exporter and no explicit path.
func resolveTracing(cfg tracing.Config) tracing.Config {
	if cfg.Enabled && cfg.Exporter == "file" && cfg.FilePath == "" {
		cfg.FilePath = config.DefaultTracesFilePath()
	}
	return cfg
}

// purityEnabled merges the config toggle with the feature flag: either
// source can turn checking on.
func purityEnabled(cfg config.Config, registry *flags.Registry) bool {
	return cfg.PurityCheck || registry.Enabled(flags.FlagPurityCheck)
}

func runPlayground(cmd *cobra.Command, args []string) error {
	if err := config.ValidatePlayground(cfg.Playground); err != nil {
		return fmt.Errorf("invalid playground configuration: %w", err)
	}
	tracingCfg := resolveTracing(cfg.Tracing)
	if err := config.ValidateTracing(tracingCfg); err != nil {
		return fmt.Errorf("invalid tracing configuration: %w", err)
	}

	if cfg.Debug {
		cleanup, err := log.InitWithTeaLog("strand.log", "strand")
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		defer cleanup()
	}

	featureFlags := flags.New(cfg.Flags)

	provider, err := tracing.NewProvider(tracingCfg)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	stateFile := resolveStateFile(cfg)
	initial, err := statefile.Load(stateFile)
	if err != nil {
		return fmt.Errorf("loading state file: %w", err)
	}

	// A shared instance keyed by the state file: re-running the playground
	// against the same file reuses live state within the process.
	st, err := store.Shared("playground:"+stateFile,
		store.WithInitialState(initial),
		store.WithTracer(provider.Tracer()),
		store.WithPurityCheck(purityEnabled(cfg, featureFlags)),
	)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}

	playCfg := cfg.Playground
	playCfg.StateFile = stateFile
	model := playground.New(playCfg, st)

	autoReload := playCfg.AutoReload || featureFlags.Enabled(flags.FlagAutoReload)
	if autoReload {
		w, err := watcher.New(watcher.Config{
			StatePath:   stateFile,
			DebounceDur: time.Duration(playCfg.ReloadDebounceMs) * time.Millisecond,
		})
		if err != nil {
			return fmt.Errorf("creating watcher: %w", err)
		}
		onChange, err := w.Start()
		if err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
		defer func() { _ = w.Stop() }()
		model = model.WithReloadChannel(onChange)
	}

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running playground: %w", err)
	}
	return nil
}

// SetVersion sets the version string shown by --version.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
