package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		tok  string
		want TokenType
	}{
		{"0", TokenLiteral},
		{"42", TokenLiteral},
		{"-7", TokenLiteral},
		{"007", TokenLiteral},
		{"99999999999999999999", TokenLiteral},
		{"-", TokenOperator},
		{"+", TokenOperator},
		{"x", TokenOperator},
		{"÷", TokenOperator},
		{"^", TokenOperator},
		{"√", TokenOperator},
		{"(", TokenLParen},
		{")", TokenRParen},
		{"", TokenUnknown},
		{"--5", TokenUnknown},
		{"5-", TokenUnknown},
		{"1.5", TokenUnknown},
		{"*", TokenUnknown},
		{"٣", TokenUnknown},
		{"abc", TokenUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.tok, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.tok))
		})
	}
}

func TestTokenTypeString(t *testing.T) {
	assert.Equal(t, "LITERAL", TokenLiteral.String())
	assert.Equal(t, "OPERATOR", TokenOperator.String())
	assert.Equal(t, "LPAREN", TokenLParen.String())
	assert.Equal(t, "RPAREN", TokenRParen.String())
	assert.Equal(t, "UNKNOWN", TokenUnknown.String())
}
