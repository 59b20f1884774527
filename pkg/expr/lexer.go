package expr

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxExpressionLength is the maximum number of runes accepted by Tokenize.
const MaxExpressionLength = 400

// Lexer splits free-form calculator text into evaluator tokens.
//
// Input is NFKC-normalised first so full-width digits and operators are
// accepted. "*", "×", "X" are read as "x", "/" as "÷" and "sqrt" as "√". A "-"
// directly followed by a digit at the start of the input, after "(" or after
// an operator becomes part of a negative literal.
type Lexer struct {
	input  []rune
	pos    int
	tokens []string
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: []rune(norm.NFKC.String(input))}
}

// Tokenize is shorthand for NewLexer(input).Tokenize().
func Tokenize(input string) ([]string, error) {
	return NewLexer(input).Tokenize()
}

// Tokenize scans the entire input and returns all tokens.
func (l *Lexer) Tokenize() ([]string, error) {
	if len(l.input) > MaxExpressionLength {
		return nil, fmt.Errorf("expression exceeds maximum length of %d characters", MaxExpressionLength)
	}
	for {
		l.skipWhitespace()
		if l.pos >= len(l.input) {
			return l.tokens, nil
		}
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, tok)
	}
}

// next returns the next token from the input.
func (l *Lexer) next() (string, error) {
	ch := l.input[l.pos]

	if isDigitRune(ch) {
		return l.readNumber(), nil
	}
	if ch == '-' && l.signPosition() && l.pos+1 < len(l.input) && isDigitRune(l.input[l.pos+1]) {
		l.pos++
		return "-" + l.readNumber(), nil
	}
	if l.hasPrefix("sqrt") {
		l.pos += len("sqrt")
		return SymRoot, nil
	}

	l.pos++
	switch ch {
	case '+':
		return SymAdd, nil
	case '-':
		return SymSubtract, nil
	case 'x', 'X', '*', '×':
		return SymMultiply, nil
	case '/', '÷':
		return SymDivide, nil
	case '^':
		return SymPower, nil
	case '√':
		return SymRoot, nil
	case '(':
		return LParen, nil
	case ')':
		return RParen, nil
	}
	return "", fmt.Errorf("unexpected character %q at position %d", string(ch), l.pos-1)
}

// signPosition reports whether a "-" at the current position is a sign
// rather than the subtraction operator.
func (l *Lexer) signPosition() bool {
	if len(l.tokens) == 0 {
		return true
	}
	switch Classify(l.tokens[len(l.tokens)-1]) {
	case TokenOperator, TokenLParen:
		return true
	default:
		return false
	}
}

// readNumber reads a run of decimal digits.
func (l *Lexer) readNumber() string {
	start := l.pos
	for l.pos < len(l.input) && isDigitRune(l.input[l.pos]) {
		l.pos++
	}
	return string(l.input[start:l.pos])
}

func (l *Lexer) hasPrefix(word string) bool {
	return strings.HasPrefix(strings.ToLower(string(l.input[l.pos:])), word)
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(l.input[l.pos]) {
		l.pos++
	}
}

func isDigitRune(ch rune) bool {
	return ch >= '0' && ch <= '9'
}
