package arith

// fullAdder adds three single bits and returns the sum bit and the carry.
func fullAdder(a, b, carryIn DoubleWord) (sum, carryOut DoubleWord) {
	partial := a ^ b
	sum = partial ^ carryIn
	carryOut = partial&carryIn | a&b
	return sum, carryOut
}

// rippleAdd returns the exact sum of a and b as a DoubleWord. The ripple runs
// over the W bit positions; bit W of the result is recovered from the sign
// bits and the final carry, then sign-extended.
func rippleAdd(a, b Word) DoubleWord {
	var sum, carry DoubleWord
	for i := 0; i < Width; i++ {
		var s DoubleWord
		s, carry = fullAdder(DoubleWord(a>>i)&1, DoubleWord(b>>i)&1, carry)
		sum |= s << i
	}
	top := DoubleWord(a>>(Width-1))&1 ^ DoubleWord(b>>(Width-1))&1 ^ carry
	if top == 1 {
		sum |= ^DoubleWord(0) << Width
	}
	return sum
}

// saturate clamps d into [MinWord, MaxWord].
func saturate(d DoubleWord) Word {
	switch {
	case d > DoubleWord(MaxWord):
		return MaxWord
	case d < DoubleWord(MinWord):
		return MinWord
	default:
		return Word(d)
	}
}

// uadd is a wrapping ripple-carry add on magnitudes.
func uadd(a, b UnsignedWord) UnsignedWord {
	var sum, carry UnsignedWord
	for i := 0; i < Width; i++ {
		x, y := a>>i&1, b>>i&1
		partial := x ^ y
		sum |= (partial ^ carry) << i
		carry = partial&carry | x&y
	}
	return sum
}

// uneg is the wrapping two's-complement negation of a magnitude.
func uneg(n UnsignedWord) UnsignedWord {
	return uadd(^n, 1)
}

// usub is a wrapping subtraction on magnitudes.
func usub(a, b UnsignedWord) UnsignedWord {
	return uadd(a, uneg(b))
}

// magnitude returns |n| exactly, including |MinWord|.
func magnitude(n Word) UnsignedWord {
	if n >= 0 {
		return UnsignedWord(n)
	}
	return uneg(UnsignedWord(n))
}

// abs returns |n|, saturating |MinWord| to MaxWord.
func abs(n Word) Word {
	if n >= 0 {
		return n
	}
	return Negate(n)
}

// Negate returns -n computed as ^n + 1. Negate(MinWord) saturates to MaxWord.
func Negate(n Word) Word {
	return Add(^n, 1)
}

// Add returns a + b, saturating to MaxWord or MinWord on overflow.
func Add(a, b Word) Word {
	switch {
	case (a == MaxWord || b == MaxWord) && a >= 0 && b >= 0:
		return MaxWord
	case (a == MinWord || b == MinWord) && a <= 0 && b <= 0:
		return MinWord
	case a == 0 && b == 0,
		a == MaxWord && b == MinWord,
		a == MinWord && b == MaxWord:
		return 0
	case a == 0:
		return b
	case b == 0:
		return a
	}
	return saturate(rippleAdd(a, b))
}

// Subtract returns a - b.
func Subtract(a, b Word) Word {
	return Add(a, Negate(b))
}

// Multiply returns a * b by shift-and-add over the bits of |b|.
func Multiply(a, b Word) Word {
	switch {
	case a == 0 || b == 0:
		return 0
	case a == 1:
		return b
	case b == 1:
		return a
	case a == -1:
		return Negate(b)
	case b == -1:
		return Negate(a)
	}

	var (
		product   Word
		shifted   = DoubleWord(a)
		rest      = magnitude(b)
		clamped   bool // shifted no longer holds an exact multiple of a
		saturated bool
	)
	for i := 0; i < Width && !saturated; i++ {
		if rest&1 == 1 {
			sum := rippleAdd(product, Word(shifted))
			product = saturate(sum)
			saturated = clamped || sum != DoubleWord(product)
		}
		if !clamped {
			shifted <<= 1
			if shifted > DoubleWord(MaxWord) || shifted < DoubleWord(MinWord) {
				shifted = DoubleWord(saturate(shifted))
				clamped = true
			}
		}
		rest >>= 1
	}

	negative := (a < 0) != (b < 0)
	if saturated {
		if negative {
			return MinWord
		}
		return MaxWord
	}
	// product carries the sign of a.
	if (product < 0) != negative {
		return Negate(product)
	}
	return product
}

// Divide returns a / b truncated toward zero. Division by zero yields
// MaxWord.
func Divide(a, b Word) Word {
	switch {
	case b == 0:
		return MaxWord
	case b == 1:
		return a
	case b == -1:
		return Negate(a)
	case a == 0:
		return 0
	case a == b:
		return 1
	}

	dividend, divisor := magnitude(a), magnitude(b)
	var quotient, remainder UnsignedWord
	for i := Width - 1; i >= 0; i-- {
		remainder = remainder<<1 | dividend>>i&1
		if remainder >= divisor {
			remainder = usub(remainder, divisor)
			quotient |= 1 << i
		}
	}

	if (a < 0) != (b < 0) {
		return Word(uneg(quotient))
	}
	return Word(quotient)
}

// SquareRoot returns the floor of the square root of b. 0, 1 and -1 are
// returned unchanged; any other negative input yields 0.
func SquareRoot(b Word) Word {
	switch {
	case b == 0, b == 1, b == -1:
		return b
	case b < 0:
		return 0
	}

	var root Word
	rest, d := b, sqrtSeed
	for i := 0; i < sqrtSteps; i++ {
		candidate := Add(root, d)
		if rest >= candidate {
			rest = Subtract(rest, candidate)
			root = Add(root>>1, d)
		} else {
			root >>= 1
		}
		d >>= 2
	}
	return root
}

// Power returns base raised to exponent by square-and-multiply. A negative
// exponent never enters the loop, so it yields 1 for any non-zero base.
func Power(base, exponent Word) Word {
	switch {
	case base == 0:
		return 0
	case exponent == 0:
		return 1
	case exponent == 1:
		return base
	}

	result := Word(1)
	for exponent > 0 {
		if exponent&1 == 1 {
			result = Multiply(result, base)
			if result == MaxWord || result == MinWord {
				return result
			}
		}
		base = Multiply(base, base)
		exponent >>= 1
	}
	return result
}
