package mathx

// RoundDiv returns floor((a + b/2)/b), classic rounding for positives.
func RoundDiv[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}

// MulDivU32 returns floor(a*b/c) with a 64-bit intermediate.
// c==0 yields 0.
func MulDivU32(a, b, c uint32) uint32 {
	if c == 0 {
		return 0
	}
	return uint32(uint64(a) * uint64(b) / uint64(c))
}
