// Package arith implements saturating signed-integer arithmetic on a
// fixed-width Word using only bitwise primitives.
//
// Every operation is total: overflow saturates to MaxWord or MinWord and
// division by zero yields MaxWord. The word width is selected at build time
// (default 32 bits; build with -tags word16 for 16 bits).
package arith
