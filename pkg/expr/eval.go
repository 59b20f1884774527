package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lemonberrylabs/bitcalc/pkg/arith"
)

// ErrorMessage is the result string returned by Evaluate when an expression
// cannot be reduced to a value.
const ErrorMessage = "Malformed input"

var (
	// ErrMalformed reports a postfix sequence that cannot be reduced to a value.
	ErrMalformed = errors.New("malformed expression")

	// ErrUnknownOperator reports a token outside the literal, parenthesis and
	// operator alphabet.
	ErrUnknownOperator = errors.New("unknown operator")
)

// Step records the value stack after one postfix token was processed.
type Step struct {
	Token string       `json:"token"`
	Stack []arith.Word `json:"stack"`
}

// Trace is the full record of one evaluation.
type Trace struct {
	Tokens  []string `json:"tokens"`
	Postfix []string `json:"postfix"`
	Steps   []Step   `json:"steps"`
	Result  string   `json:"result"`
	Error   string   `json:"error,omitempty"`
}

// ParseLiteral parses a decimal literal as a Word. Literals outside Word's
// range clamp to MaxWord or MinWord depending on their sign.
func ParseLiteral(tok string) (arith.Word, error) {
	if !IsLiteral(tok) {
		return 0, fmt.Errorf("invalid literal %q", tok)
	}
	n, err := strconv.ParseInt(tok, 10, arith.Width)
	if errors.Is(err, strconv.ErrRange) {
		if strings.HasPrefix(tok, "-") {
			return arith.MinWord, nil
		}
		return arith.MaxWord, nil
	}
	if err != nil {
		return 0, fmt.Errorf("invalid literal %q: %w", tok, err)
	}
	return arith.Word(n), nil
}

// EvaluatePostfix reduces a postfix sequence to a single Word. Operators that
// find fewer than two values on the stack use 0 for the missing operands.
// The value left on top of the stack is the result.
func EvaluatePostfix(postfix []string) (arith.Word, error) {
	return evaluate(postfix, nil)
}

func evaluate(postfix []string, observe func(tok string, stack []arith.Word)) (arith.Word, error) {
	if len(postfix) < 2 {
		return 0, fmt.Errorf("%w: %d postfix token(s)", ErrMalformed, len(postfix))
	}

	var stack []arith.Word
	for _, tok := range postfix {
		if IsLiteral(tok) {
			n, _ := ParseLiteral(tok)
			stack = append(stack, n)
		} else {
			op, ok := Lookup(tok)
			if !ok {
				return 0, fmt.Errorf("%w: %q", ErrUnknownOperator, tok)
			}
			var a, b arith.Word
			b, stack = pop(stack)
			a, stack = pop(stack)
			stack = append(stack, op.Apply(a, b))
		}
		if observe != nil {
			observe(tok, stack)
		}
	}

	if len(stack) == 0 {
		return 0, ErrMalformed
	}
	return stack[len(stack)-1], nil
}

// pop removes the top of stack, yielding 0 when the stack is empty.
func pop(stack []arith.Word) (arith.Word, []arith.Word) {
	if len(stack) == 0 {
		return 0, stack
	}
	return stack[len(stack)-1], stack[:len(stack)-1]
}

// Compute converts tokens to postfix and evaluates them.
func Compute(tokens []string) (arith.Word, error) {
	postfix, err := ToPostfix(tokens)
	if err != nil {
		return 0, err
	}
	return EvaluatePostfix(postfix)
}

// Calculate evaluates tokens and returns the result as a string. An empty
// sequence yields "", a single token is returned unchanged, and any failure
// yields errorMessage.
func Calculate(tokens []string, errorMessage string) string {
	switch len(tokens) {
	case 0:
		return ""
	case 1:
		return tokens[0]
	}

	v, err := Compute(tokens)
	if err != nil {
		return errorMessage
	}
	return FormatWord(v)
}

// Evaluate is Calculate with ErrorMessage.
func Evaluate(tokens []string) string {
	return Calculate(tokens, ErrorMessage)
}

// Explain evaluates tokens like Calculate and records the postfix form and
// every intermediate stack.
func Explain(tokens []string, errorMessage string) *Trace {
	tr := &Trace{
		Tokens: tokens,
		Result: Calculate(tokens, errorMessage),
	}
	if len(tokens) < 2 {
		return tr
	}

	postfix, err := ToPostfix(tokens)
	if err != nil {
		tr.Error = err.Error()
		return tr
	}
	tr.Postfix = postfix

	_, err = evaluate(postfix, func(tok string, stack []arith.Word) {
		tr.Steps = append(tr.Steps, Step{
			Token: tok,
			Stack: append([]arith.Word(nil), stack...),
		})
	})
	if err != nil {
		tr.Error = err.Error()
	}
	return tr
}

// FormatWord renders v in decimal.
func FormatWord(v arith.Word) string {
	return strconv.FormatInt(int64(v), 10)
}
