package expr

import "fmt"

// ToPostfix converts an infix token sequence to postfix order using the
// shunting-yard algorithm. Parenthesis balance is not checked: an unmatched
// ")" drains the operator stack and an unmatched "(" is drained to the output
// at the end, where evaluation rejects it.
func ToPostfix(tokens []string) ([]string, error) {
	var output, stack []string

	for _, tok := range tokens {
		switch Classify(tok) {
		case TokenLiteral:
			output = append(output, tok)

		case TokenLParen:
			stack = append(stack, tok)

		case TokenRParen:
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top == LParen {
					break
				}
				output = append(output, top)
			}

		case TokenOperator:
			o1, _ := Lookup(tok)
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top == LParen {
					break
				}
				// The stack only ever holds "(" and table operators.
				o2, _ := Lookup(top)
				if !o1.yieldsTo(o2) {
					break
				}
				output = append(output, top)
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, tok)

		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownOperator, tok)
		}
	}

	for len(stack) > 0 {
		output = append(output, stack[len(stack)-1])
		stack = stack[:len(stack)-1]
	}
	return output, nil
}
