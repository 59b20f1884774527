package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

type historyOptions struct {
	*rootOptions
	Database string
	Limit    int
	Clear    bool
}

func newHistoryCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &historyOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List or clear recorded calculations",
		Long: `List the calculations recorded in a SQLite history database, newest first.

Example:
  bitcalc history --db ./history.db --limit 5
  bitcalc history --db ./history.db --clear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Database == "" {
				return newExitError(exitCommandError, "--db is required (or set BITCALC_DB)")
			}
			h, err := openHistory(opts.Database)
			if err != nil {
				return err
			}
			defer closeHistory(h)

			if opts.Clear {
				n, err := h.Clear(cmd.Context())
				if err != nil {
					return wrapExitError(exitCommandError, "failed to clear history", err)
				}
				return writeOutput(cmd.OutOrStdout(), opts.Format, map[string]int{"deleted": n}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "deleted %d calculations\n", n)
					return err
				})
			}

			calcs, err := h.List(cmd.Context(), opts.Limit)
			if err != nil {
				return wrapExitError(exitCommandError, "failed to list history", err)
			}
			return writeOutput(cmd.OutOrStdout(), opts.Format, calcs, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCREATED\tEXPRESSION\tRESULT")
				for _, c := range calcs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.CreateTime.Local().Format(time.DateTime), strings.Join(c.Tokens, " "), c.Result)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", envOrDefault("BITCALC_DB", ""), "path to SQLite database (env BITCALC_DB)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of calculations to list (0 for all)")
	cmd.Flags().BoolVar(&opts.Clear, "clear", false, "delete every recorded calculation")

	return cmd
}
