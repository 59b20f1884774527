package arith

// Saturation bounds.
const (
	MaxWord Word = 1<<(Width-1) - 1
	MinWord Word = -1 << (Width - 1)
)

// sqrtSeed is the first digit probed by SquareRoot: the highest even power of
// two representable in a Word.
const sqrtSeed Word = 1 << (Width - 2)

// sqrtSteps is the number of digit-by-digit steps needed to exhaust sqrtSeed.
// A further step would shift the finished root right once more.
const sqrtSteps = (Width + 1) / 2
