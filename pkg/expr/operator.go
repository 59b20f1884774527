package expr

import (
	"sort"

	"github.com/lemonberrylabs/bitcalc/pkg/arith"
)

// Associativity decides which of two equal-precedence operators binds first.
type Associativity int

const (
	LeftAssoc Associativity = iota
	RightAssoc
)

// String returns "left" or "right".
func (a Associativity) String() string {
	if a == RightAssoc {
		return "right"
	}
	return "left"
}

// Operator symbols.
const (
	SymPower    = "^"
	SymRoot     = "√"
	SymMultiply = "x"
	SymDivide   = "÷"
	SymAdd      = "+"
	SymSubtract = "-"
)

// Operator describes one entry of the operator table.
type Operator struct {
	Symbol        string
	Name          string
	Precedence    int
	Associativity Associativity
	// Unary operators only use their right operand. They are still popped
	// as binary operators; the left operand is discarded.
	Unary bool

	apply func(a, b arith.Word) arith.Word
}

// Apply evaluates the operator on a and b.
func (o Operator) Apply(a, b arith.Word) arith.Word {
	return o.apply(a, b)
}

// yieldsTo reports whether o2, already on the operator stack, must be moved
// to the output before o is pushed.
func (o Operator) yieldsTo(o2 Operator) bool {
	if o.Associativity == LeftAssoc {
		return o.Precedence <= o2.Precedence
	}
	return o.Precedence < o2.Precedence
}

var operators = map[string]Operator{
	SymPower: {
		Symbol: SymPower, Name: "power", Precedence: 5, Associativity: RightAssoc,
		apply: arith.Power,
	},
	SymRoot: {
		Symbol: SymRoot, Name: "sqrt", Precedence: 4, Associativity: RightAssoc, Unary: true,
		apply: func(_, b arith.Word) arith.Word { return arith.SquareRoot(b) },
	},
	SymMultiply: {
		Symbol: SymMultiply, Name: "multiply", Precedence: 3, Associativity: LeftAssoc,
		apply: arith.Multiply,
	},
	SymDivide: {
		Symbol: SymDivide, Name: "divide", Precedence: 3, Associativity: LeftAssoc,
		apply: arith.Divide,
	},
	SymAdd: {
		Symbol: SymAdd, Name: "add", Precedence: 2, Associativity: LeftAssoc,
		apply: arith.Add,
	},
	SymSubtract: {
		Symbol: SymSubtract, Name: "subtract", Precedence: 2, Associativity: LeftAssoc,
		apply: arith.Subtract,
	},
}

// Lookup returns the operator for symbol.
func Lookup(symbol string) (Operator, bool) {
	op, ok := operators[symbol]
	return op, ok
}

// LookupName returns the operator whose Name is name (e.g. "multiply").
func LookupName(name string) (Operator, bool) {
	for _, op := range operators {
		if op.Name == name {
			return op, true
		}
	}
	return Operator{}, false
}

// Operators returns the operator table ordered by descending precedence.
func Operators() []Operator {
	ops := make([]Operator, 0, len(operators))
	for _, op := range operators {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool {
		if ops[i].Precedence != ops[j].Precedence {
			return ops[i].Precedence > ops[j].Precedence
		}
		return ops[i].Name < ops[j].Name
	})
	return ops
}
