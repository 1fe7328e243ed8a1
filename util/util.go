// Package util contains misc internal utilities.
package util

// GetBit32 returns the value of a given bit in a 32-bit word
func GetBit32(w uint32, bitIndex uint) bool {
	return w&(1<<bitIndex) != 0
}

// SetBit32 returns w with bit bitIndex set to value
func SetBit32(w uint32, bitIndex uint, value bool) uint32 {
	if value {
		return w | 1<<bitIndex
	}
	return w &^ (1 << bitIndex)
}

// SetField8 replaces the bit at bitIndex of an 8-bit register image with
// the low bit of state
func SetField8(b uint8, bitIndex uint, state uint8) uint8 {
	return b&^(1<<bitIndex) | (state&1)<<bitIndex
}

// LowMask returns a word with the n low bits set, n is clamped to 0..32
func LowMask(n int) uint32 {
	if n <= 0 {
		return 0
	}
	if n >= 32 {
		return 0xFFFFFFFF
	}
	return 1<<uint(n) - 1
}

// Clamp restricts input to the closed interval [low, high]
func Clamp(input, low, high int) int {
	if input < low {
		return low
	}
	if input > high {
		return high
	}
	return input
}
