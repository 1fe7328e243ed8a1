package ctlbus

import "github.com/nasa-jpl/seraph/util"

func byteLen(bits uint16) int {
	return (int(bits) + 7) / 8
}

// Pack places the first bits bits of data, most significant bit of
// data[0] first, at the top of a 32-bit word.  Bits past the width are
// cleared.  bits must not exceed MaxBits
func Pack(bits uint16, data []byte) uint32 {
	var word uint32
	n := byteLen(bits)
	for i := 0; i < n; i++ {
		word |= uint32(data[i]) << (24 - 8*uint(i))
	}
	return word &^ util.LowMask(MaxBits-int(bits))
}

// Unpack is the inverse of Pack for data the device returns right
// aligned: the low bits bits of raw are written to dst most significant
// byte first, a partial last byte left aligned.  bits must not exceed
// MaxBits and dst must hold (bits+7)/8 bytes
func Unpack(raw uint32, bits uint16, dst []byte) {
	word := raw << (MaxBits - uint(bits))
	n := byteLen(bits)
	for i := 0; i < n; i++ {
		dst[i] = byte(word >> 24)
		word <<= 8
	}
}
