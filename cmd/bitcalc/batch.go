package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/bitcalc/pkg/batch"
)

type batchOptions struct {
	*rootOptions
	Database string
}

func newBatchCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &batchOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Run a YAML file of calculator cases",
		Long: `Evaluate every case of a YAML batch file and compare it with its expected
result. Exits 1 when any case fails.

Example:
  bitcalc batch ./cases.yaml
  bitcalc batch --format json ./cases.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := batch.Load(args[0])
			if err != nil {
				return wrapExitError(exitCommandError, "failed to load batch file", err)
			}

			h, err := openHistory(opts.Database)
			if err != nil {
				return err
			}
			defer closeHistory(h)

			report, err := batch.Run(cmd.Context(), opts.newCalculator(h), f)
			if err != nil {
				return wrapExitError(exitCommandError, "batch run failed", err)
			}

			err = writeOutput(cmd.OutOrStdout(), opts.Format, report, func(w io.Writer) error {
				return writeBatchText(w, report)
			})
			if err != nil {
				return err
			}
			if !report.OK() {
				return newExitError(exitFailure, fmt.Sprintf("%d of %d cases did not pass", report.Failed+report.Errors, report.Total))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", envOrDefault("BITCALC_DB", ""), "record the calculations in this SQLite database (env BITCALC_DB)")

	return cmd
}

func writeBatchText(w io.Writer, report *batch.Report) error {
	for _, r := range report.Results {
		switch r.Status {
		case batch.StatusPass:
			fmt.Fprintf(w, "PASS  %s = %s\n", r.Name, r.Result)
		case batch.StatusFail:
			fmt.Fprintf(w, "FAIL  %s = %s, want %s\n", r.Name, r.Result, *r.Want)
		case batch.StatusError:
			fmt.Fprintf(w, "ERROR %s: %s\n", r.Name, r.Error)
		default:
			fmt.Fprintf(w, "      %s = %s\n", r.Name, r.Result)
		}
	}
	_, err := fmt.Fprintf(w, "\n%d cases: %d passed, %d failed, %d errors\n", report.Total, report.Passed, report.Failed, report.Errors)
	return err
}
