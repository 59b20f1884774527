package main

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/bitcalc/pkg/calculator"
	"github.com/lemonberrylabs/bitcalc/pkg/store"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	Verbose      bool
	Format       string // "text" | "json" | "yaml"
	LogFormat    string // "text" | "json"
	ErrorMessage string
}

var (
	validFormats    = []string{"text", "json", "yaml"}
	validLogFormats = []string{"text", "json"}
)

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "bitcalc",
		Short: "Saturating fixed-width integer calculator",
		Long: `bitcalc evaluates infix integer expressions with a bitwise, saturating
arithmetic engine. Results never overflow: they clamp to the word range.

Negative literals look like flags to the argument parser, so pass them
after "--":
  bitcalc eval -- -3 x 4`,
		Version:       version + " (commit=" + commit + ", built=" + date + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return newExitError(exitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, validFormats))
			}
			if !slices.Contains(validLogFormats, opts.LogFormat) {
				return newExitError(exitCommandError, fmt.Sprintf("invalid log format %q: must be one of %v", opts.LogFormat, validLogFormats))
			}
			setupLogging(cmd.ErrOrStderr(), opts)
			return nil
		},
	}
	cmd.SetVersionTemplate("bitcalc version {{.Version}}\n")

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "text", "log format (text|json)")
	cmd.PersistentFlags().StringVar(&opts.ErrorMessage, "error-message", envOrDefault("BITCALC_ERROR_MESSAGE", ""),
		"result shown for malformed input (default \"Malformed input\", env BITCALC_ERROR_MESSAGE)")

	cmd.AddCommand(newEvalCommand(opts))
	cmd.AddCommand(newRPNCommand(opts))
	cmd.AddCommand(newApplyCommand(opts))
	cmd.AddCommand(newOpsCommand(opts))
	cmd.AddCommand(newBatchCommand(opts))
	cmd.AddCommand(newHistoryCommand(opts))
	cmd.AddCommand(newServeCommand(opts))

	return cmd
}

func setupLogging(w io.Writer, opts *rootOptions) {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, hopts)
	} else {
		handler = slog.NewTextHandler(w, hopts)
	}
	slog.SetDefault(slog.New(handler))
}

// openHistory opens the SQLite history at path, or an in-memory history
// when path is empty.
func openHistory(path string) (store.History, error) {
	if path == "" {
		return store.New(), nil
	}
	slog.Debug("opening database", "path", path)
	h, err := store.OpenSQLite(path)
	if err != nil {
		return nil, wrapExitError(exitCommandError, "failed to open database", err)
	}
	return h, nil
}

func (o *rootOptions) newCalculator(h store.History) *calculator.Calculator {
	return calculator.New(h,
		calculator.WithErrorMessage(o.ErrorMessage),
		calculator.WithLogger(slog.Default()),
	)
}

func closeHistory(h store.History) {
	if err := h.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}
