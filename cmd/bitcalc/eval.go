package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/bitcalc/pkg/arith"
	"github.com/lemonberrylabs/bitcalc/pkg/calculator"
	"github.com/lemonberrylabs/bitcalc/pkg/expr"
	"github.com/lemonberrylabs/bitcalc/pkg/store"
)

type evalOptions struct {
	*rootOptions
	Tokens   []string
	Explain  bool
	Database string
}

type evalOutput struct {
	ID      string      `json:"id" yaml:"id"`
	Result  string      `json:"result" yaml:"result"`
	Tokens  []string    `json:"tokens" yaml:"tokens"`
	Postfix []string    `json:"postfix,omitempty" yaml:"postfix,omitempty"`
	Steps   []expr.Step `json:"steps,omitempty" yaml:"steps,omitempty"`
	Error   string      `json:"error,omitempty" yaml:"error,omitempty"`
}

func newEvalCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &evalOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval [expression]",
		Short: "Evaluate an infix expression",
		Long: `Evaluate an infix expression or an explicit token sequence.

Operators: + - x ÷ ^ √ with ( ) for grouping. "*" and "/" are accepted as
aliases for "x" and "÷", "sqrt" for "√".

Example:
  bitcalc eval "(2 + 3) x 4"
  bitcalc eval --tokens 2,+,3,x,4 --explain
  bitcalc eval --db ./history.db "2 ^ 40"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, opts, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringSliceVar(&opts.Tokens, "tokens", nil, "comma-separated token sequence instead of an expression")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "show the postfix form and every evaluation step")
	cmd.Flags().StringVar(&opts.Database, "db", envOrDefault("BITCALC_DB", ""), "record the calculation in this SQLite database (env BITCALC_DB)")

	return cmd
}

func runEval(cmd *cobra.Command, opts *evalOptions, expression string) error {
	h, err := openHistory(opts.Database)
	if err != nil {
		return err
	}
	defer closeHistory(h)

	resp, err := opts.newCalculator(h).Evaluate(cmd.Context(), calculator.Request{
		Expression: expression,
		Tokens:     opts.Tokens,
		Explain:    opts.Explain,
	})
	if errors.Is(err, calculator.ErrInvalidRequest) {
		return wrapExitError(exitCommandError, "invalid input", err)
	}
	if err != nil {
		return wrapExitError(exitCommandError, "evaluation failed", err)
	}

	calc := resp.Calculation
	out := evalOutput{
		ID:     calc.ID,
		Result: calc.Result,
		Tokens: calc.Tokens,
		Error:  calc.Error,
	}
	if resp.Trace != nil {
		out.Postfix = resp.Trace.Postfix
		out.Steps = resp.Trace.Steps
	}

	err = writeOutput(cmd.OutOrStdout(), opts.Format, out, func(w io.Writer) error {
		if opts.Explain {
			fmt.Fprintf(w, "tokens:  %s\n", strings.Join(out.Tokens, " "))
			fmt.Fprintf(w, "postfix: %s\n", strings.Join(out.Postfix, " "))
			for i, st := range out.Steps {
				fmt.Fprintf(w, "%3d  %-4s %v\n", i, st.Token, st.Stack)
			}
		}
		_, err := fmt.Fprintln(w, out.Result)
		return err
	})
	if err != nil {
		return err
	}

	if calc.Error != "" {
		return newExitError(exitFailure, calc.Error)
	}
	return nil
}

func newRPNCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rpn TOKEN...",
		Short: "Evaluate a postfix token sequence",
		Long: `Evaluate tokens that are already in postfix order. Operators that find
too few values on the stack use 0 for the missing operands.

Example:
  bitcalc rpn 2 3 4 x +
  bitcalc rpn -- -9 √`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := expr.EvaluatePostfix(args)
			if err != nil {
				msg := rootOpts.ErrorMessage
				if msg == "" {
					msg = expr.ErrorMessage
				}
				return wrapExitError(exitFailure, msg, err)
			}
			result := expr.FormatWord(v)
			return writeOutput(cmd.OutOrStdout(), rootOpts.Format, map[string]string{"result": result}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, result)
				return err
			})
		},
	}
}

func newApplyCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apply OPERATION A [B]",
		Short: "Apply a single engine operation",
		Long: `Apply one engine operation to literal operands. Operations: ` +
			strings.Join(calculator.Operations(), ", ") + `.
Unary operations (sqrt, negate) take a single operand.

Example:
  bitcalc apply multiply 65536 65536
  bitcalc apply sqrt 1000`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			operands := make([]arith.Word, 0, 2)
			for _, arg := range args[1:] {
				v, err := expr.ParseLiteral(arg)
				if err != nil {
					return wrapExitError(exitCommandError, "invalid operand", err)
				}
				operands = append(operands, v)
			}

			var a, b arith.Word
			switch {
			case len(operands) == 2:
				a, b = operands[0], operands[1]
			case name == calculator.OpNegate:
				a = operands[0]
			default:
				if op, ok := expr.LookupName(name); ok && !op.Unary {
					return newExitError(exitCommandError, fmt.Sprintf("%s takes two operands", name))
				}
				b = operands[0]
			}

			v, err := rootOpts.newCalculator(store.New()).Apply(name, a, b)
			if err != nil {
				return wrapExitError(exitCommandError, "apply failed", err)
			}
			result := expr.FormatWord(v)
			return writeOutput(cmd.OutOrStdout(), rootOpts.Format, map[string]string{"operation": name, "result": result}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, result)
				return err
			})
		},
	}
}

type operatorOutput struct {
	Symbol        string `json:"symbol" yaml:"symbol"`
	Name          string `json:"name" yaml:"name"`
	Precedence    int    `json:"precedence" yaml:"precedence"`
	Associativity string `json:"associativity" yaml:"associativity"`
	Unary         bool   `json:"unary" yaml:"unary"`
}

func newOpsCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List operators and the word range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var ops []operatorOutput
			for _, op := range expr.Operators() {
				ops = append(ops, operatorOutput{
					Symbol:        op.Symbol,
					Name:          op.Name,
					Precedence:    op.Precedence,
					Associativity: op.Associativity.String(),
					Unary:         op.Unary,
				})
			}
			out := map[string]any{
				"width":     arith.Width,
				"min":       int64(arith.MinWord),
				"max":       int64(arith.MaxWord),
				"operators": ops,
			}
			return writeOutput(cmd.OutOrStdout(), rootOpts.Format, out, func(w io.Writer) error {
				fmt.Fprintf(w, "%d-bit words, range %d .. %d\n\n", arith.Width, arith.MinWord, arith.MaxWord)
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "SYMBOL\tNAME\tPRECEDENCE\tASSOCIATIVITY\tARITY")
				for _, op := range ops {
					arity := "binary"
					if op.Unary {
						arity = "unary"
					}
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", op.Symbol, op.Name, op.Precedence, op.Associativity, arity)
				}
				return tw.Flush()
			})
		},
	}
}
