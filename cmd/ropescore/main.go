// Package main provides the CLI entrypoint for ropescore.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/ropescore/internal/config"
	"github.com/verte-zerg/ropescore/internal/logging"
	"github.com/verte-zerg/ropescore/internal/model"
	"github.com/verte-zerg/ropescore/internal/reference"
	"github.com/verte-zerg/ropescore/internal/scoring"
	"github.com/verte-zerg/ropescore/internal/store"
	"github.com/verte-zerg/ropescore/internal/tui"
)

const (
	defaultRulebook    = "new"
	defaultStep        = tui.DefaultStep
	defaultLogLevel    = "warn"
	defaultLogFormat   = logging.FormatConsole
	defaultServeAddr   = "127.0.0.1:8080"
	defaultReadTimeout = "10s"
	defaultTrendWindow = 5
)

var (
	dbPath    string
	logLevel  string
	logFormat string

	calcRulebook string
	calcLevels   string
	calcStep     float64
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ropescore",
		Short:         "IJRU freestyle difficulty and presentation calculator",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runCalculatorCmd,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "score history database (default: XDG data dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", defaultLogFormat, "log format (console, json)")

	rootCmd.Flags().StringVar(&calcRulebook, "rulebook", defaultRulebook, "rulebook version (new or old)")
	rootCmd.Flags().StringVar(&calcLevels, "levels", "", "initial levels, e.g. \"2 3 4\"")
	rootCmd.Flags().Float64Var(&calcStep, "step", defaultStep, "slider step")

	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newReferenceCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runCalculatorCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "rulebook", &calcRulebook, fileCfg.Calculator.Rulebook)
	applyFloatConfig(cmd, "step", &calcStep, fileCfg.Calculator.Step)

	version, err := scoring.ParseRulebookVersion(calcRulebook)
	if err != nil {
		return fmt.Errorf("invalid --rulebook: %w", err)
	}
	if calcStep <= 0 || calcStep > scoring.MaxPresentationAffect {
		return fmt.Errorf("--step must be between 0 and %.2f", scoring.MaxPresentationAffect)
	}

	logger, err := newLogger(cmd, fileCfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cat, err := reference.Load()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(logger)
	if err != nil {
		return err
	}
	defer closeStore()

	cfg := model.Config{Rulebook: version, Levels: calcLevels, Step: calcStep}
	m := tui.NewModel(cfg, st, cat, logger)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func loadFileConfig() (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return fileCfg, nil
}

func newLogger(cmd *cobra.Command, fileCfg config.FileConfig) (*zap.Logger, error) {
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-format", &logFormat, fileCfg.Log.Format)
	logger, err := logging.New(logLevel, logFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

func openStore(logger *zap.Logger) (*store.Store, func(), error) {
	path := dbPath
	if path == "" {
		path = config.DefaultDBPath()
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	logger.Debug("opened score history", zap.String("path", path))
	return st, func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error("failed to close db", zap.Error(cerr))
		}
	}, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# ropescore configuration
# Uncomment a value to enable it. CLI flags override config values.

[calculator]
# rulebook = %q          # Rulebook version: "new" (4.0.0) or "old" (3.0.0)
# step = %.2f             # Slider step in the calculator

[serve]
# addr = %q   # Listen address for "ropescore serve"
# read-timeout = %q       # Request read timeout
# save = false            # Save every valid score request

[log]
# level = %q             # debug, info, warn, error
# format = %q        # console or json

[history]
# last = 0                # Limit history to the last N scores (0 = all)
# trend-window = %d        # Moving average window for the difficulty trend
`,
		defaultRulebook,
		defaultStep,
		defaultServeAddr,
		defaultReadTimeout,
		defaultLogLevel,
		defaultLogFormat,
		defaultTrendWindow,
	)
}
