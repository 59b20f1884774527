// Package expr evaluates calculator expressions given as infix token
// sequences. Tokens are converted to postfix with the shunting-yard algorithm
// and the postfix sequence is reduced on a value stack using package arith.
package expr

// TokenType is the lexical class of a token.
type TokenType int

const (
	TokenLiteral  TokenType = iota // decimal literal, -?[0-9]+
	TokenOperator                  // one of the operator table symbols
	TokenLParen                    // (
	TokenRParen                    // )
	TokenUnknown                   // anything else
)

// Parenthesis symbols.
const (
	LParen = "("
	RParen = ")"
)

// String returns a debug-friendly representation of the token type.
func (t TokenType) String() string {
	switch t {
	case TokenLiteral:
		return "LITERAL"
	case TokenOperator:
		return "OPERATOR"
	case TokenLParen:
		return "LPAREN"
	case TokenRParen:
		return "RPAREN"
	default:
		return "UNKNOWN"
	}
}

// Classify returns the lexical class of tok. Classification does not depend
// on the token's position in the sequence.
func Classify(tok string) TokenType {
	switch {
	case IsLiteral(tok):
		return TokenLiteral
	case tok == LParen:
		return TokenLParen
	case tok == RParen:
		return TokenRParen
	}
	if _, ok := Lookup(tok); ok {
		return TokenOperator
	}
	return TokenUnknown
}

// IsLiteral reports whether tok is a decimal literal: ASCII digits with an
// optional leading '-'.
func IsLiteral(tok string) bool {
	if len(tok) > 0 && tok[0] == '-' {
		tok = tok[1:]
	}
	if tok == "" {
		return false
	}
	for i := 0; i < len(tok); i++ {
		if !isDigit(tok[i]) {
			return false
		}
	}
	return true
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
