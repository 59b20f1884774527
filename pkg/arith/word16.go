//go:build word16

package arith

// Width is the number of bits in a Word.
const Width = 16

// Word is the engine's signed integer type.
type Word int16

// DoubleWord holds intermediate sums that may exceed Word's range.
type DoubleWord int32

// UnsignedWord is the unsigned counterpart of Word, used for magnitudes.
type UnsignedWord uint16
