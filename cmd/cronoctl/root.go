package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/joshuapare/cronokit/internal/abi"
	"github.com/joshuapare/cronokit/internal/config"
	"github.com/joshuapare/cronokit/pkg/cronos"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	noColor    bool
	configPath string
	logLevel   string
	codePage   string
	budget     int64

	// Set up by the root pre-run hook.
	cfg      config.Config
	logger   = slog.New(slog.NewTextHandler(io.Discard, nil))
	registry = abi.NewRegistry()
)

var rootCmd = &cobra.Command{
	Use:   "cronoctl",
	Short: "Inspect and export Cronos database banks",
	Long: `cronoctl reads Cronos banks (a directory holding CroStru and CroBank
.dat/.tad pairs), decodes their schema, and dumps their records.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (debug logging)")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	pf.BoolVar(&jsonOut, "json", false, "Output in JSON format")
	pf.BoolVar(&noColor, "no-color", false, "Disable colored log output")
	pf.StringVarP(&configPath, "config", "c", "", "YAML config file")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&codePage, "code-page", "", "IANA code page of bank text (default windows-1251)")
	pf.Int64Var(&budget, "budget", 0, "Table memory budget in bytes per bank")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the config file, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	if configPath != "" {
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	} else {
		cfg = config.Default()
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if codePage != "" {
		cfg.CodePage = codePage
	}
	if budget != 0 {
		cfg.Budget = budget
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	lvl, _ := cfg.Level()
	if quiet {
		lvl = slog.LevelError
	}
	logger = newLogger(os.Stderr, lvl, noColor)
	return nil
}

// newLogger returns a tint handler on w. Color is dropped when w is not a
// terminal.
func newLogger(w *os.File, lvl slog.Level, plain bool) *slog.Logger {
	ll := &slog.LevelVar{}
	ll.Set(lvl)
	return slog.New(tint.NewHandler(colorable.NewColorable(w), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000",
		NoColor:    plain || !isatty.IsTerminal(w.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "err" && a.Value.Kind() == slog.KindAny {
				if err, ok := a.Value.Any().(error); ok {
					return tint.Err(err)
				}
			}
			if d, ok := a.Value.Any().(time.Duration); ok {
				return slog.String(a.Key, d.Round(time.Millisecond).String())
			}
			return a
		},
	}))
}

// openBank opens dir with the effective config.
func openBank(dir string, log *slog.Logger) (*cronos.Bank, error) {
	return cronos.OpenBank(dir, &cronos.Options{
		Budget:   cfg.Budget,
		CodePage: cfg.CodePage,
		Logger:   log,
		Registry: registry,
	})
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
