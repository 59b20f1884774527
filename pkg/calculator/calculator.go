// Package calculator ties the expression evaluator to the calculation
// history. It is the shared backend of the REST, gRPC and web front ends.
package calculator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lemonberrylabs/bitcalc/pkg/arith"
	"github.com/lemonberrylabs/bitcalc/pkg/expr"
	"github.com/lemonberrylabs/bitcalc/pkg/store"
)

var (
	// ErrInvalidRequest reports a request that names no expression, or both
	// an expression and tokens.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnknownOperation reports an Apply call with an unknown operation name.
	ErrUnknownOperation = errors.New("unknown operation")
)

// OpNegate is the Apply name of arith.Negate. Every other Apply name comes
// from the operator table.
const OpNegate = "negate"

// Request is one evaluation request. Exactly one of Expression and Tokens
// must be set.
type Request struct {
	Expression string
	Tokens     []string
	Explain    bool
}

// Response is the outcome of an evaluation.
type Response struct {
	Calculation *store.Calculation
	Trace       *expr.Trace // set when the request asked for an explanation
}

// Calculator evaluates expressions and records them in a history.
type Calculator struct {
	history      store.History
	errorMessage string
	logger       *slog.Logger
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithErrorMessage overrides expr.ErrorMessage as the malformed-input result.
func WithErrorMessage(msg string) Option {
	return func(c *Calculator) {
		if msg != "" {
			c.errorMessage = msg
		}
	}
}

// WithLogger sets the logger used for evaluation events.
func WithLogger(l *slog.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Calculator recording into h.
func New(h store.History, opts ...Option) *Calculator {
	c := &Calculator{
		history:      h,
		errorMessage: expr.ErrorMessage,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// History returns the underlying calculation history.
func (c *Calculator) History() store.History {
	return c.history
}

// ErrorMessage returns the result string used for malformed input.
func (c *Calculator) ErrorMessage() string {
	return c.errorMessage
}

// Tokens resolves the token sequence of a request.
func (c *Calculator) Tokens(req Request) ([]string, error) {
	switch {
	case req.Expression != "" && req.Tokens != nil:
		return nil, fmt.Errorf("%w: set either expression or tokens, not both", ErrInvalidRequest)
	case req.Expression != "":
		toks, err := expr.Tokenize(req.Expression)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return toks, nil
	case req.Tokens != nil:
		return req.Tokens, nil
	default:
		return nil, fmt.Errorf("%w: expression or tokens is required", ErrInvalidRequest)
	}
}

// Evaluate evaluates the request and records the calculation. Malformed
// expressions are not errors: they produce the error message as result.
func (c *Calculator) Evaluate(ctx context.Context, req Request) (*Response, error) {
	tokens, err := c.Tokens(req)
	if err != nil {
		return nil, err
	}

	tr := expr.Explain(tokens, c.errorMessage)
	calc, err := c.history.Record(ctx, &store.Calculation{
		Expression: req.Expression,
		Tokens:     tokens,
		Postfix:    tr.Postfix,
		Result:     tr.Result,
		Error:      tr.Error,
	})
	if err != nil {
		return nil, fmt.Errorf("record calculation: %w", err)
	}

	c.logger.Debug("evaluated", "id", calc.ID, "tokens", len(tokens), "result", calc.Result)
	if calc.Error != "" {
		c.logger.Info("malformed expression", "id", calc.ID, "error", calc.Error)
	}

	resp := &Response{Calculation: calc}
	if req.Explain {
		resp.Trace = tr
	}
	return resp, nil
}

// Apply runs a single engine operation by name ("add", "sqrt", "negate",
// ...). Unary operations read b; negate reads a.
func (c *Calculator) Apply(name string, a, b arith.Word) (arith.Word, error) {
	if name == OpNegate {
		return arith.Negate(a), nil
	}
	op, ok := expr.LookupName(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
	return op.Apply(a, b), nil
}

// Operations lists the names accepted by Apply.
func Operations() []string {
	var names []string
	for _, op := range expr.Operators() {
		names = append(names, op.Name)
	}
	return append(names, OpNegate)
}
