// Package conv formats numbers without fmt, for paths that run before the
// console is up or inside the tick interrupt.
package conv

const hexd = "0123456789ABCDEF"

// AppendHex32 appends n as "0x" and 8 uppercase, zero-padded hex digits.
func AppendHex32(dst []byte, n uint32) []byte {
	dst = append(dst, '0', 'x')
	for shift := 28; shift >= 0; shift -= 4 {
		dst = append(dst, hexd[(n>>uint(shift))&0xF])
	}
	return dst
}

// Hex32 returns AppendHex32 as a string.
func Hex32(n uint32) string {
	var buf [10]byte
	return string(AppendHex32(buf[:0], n))
}
