package clock

import "math/bits"

const (
	dcoShift      = 36
	dcoDivisor    = 80000000 * 1000
	detuneDivisor = 138564
)

// DCOWord returns the divider word for the oscillator at freq Hz plus
// millis thousandths, scaled by the speed mode and detuned by cents.
//
// The detune is linear: every cent adds 100/138564 of the undetuned
// value.  Intermediate products are carried in 128 bits so the word is
// monotonic in frequency over the whole range of every speed mode
func DCOWord(freq, millis uint32, sm SpeedMode, detune int) uint32 {
	x := (uint64(freq)*1000 + uint64(millis)) * uint64(sm)
	hi, lo := bits.Mul64(x, 1<<dcoShift)

	if detune != 0 {
		// hi < detuneDivisor for any 32-bit frequency, so Div64 cannot panic
		q, _ := bits.Div64(hi, lo, detuneDivisor)
		mag := detune
		if mag < 0 {
			mag = -mag
		}
		adjHi, adjLo := bits.Mul64(q, uint64(mag)*100)
		var borrow, carry uint64
		if detune > 0 {
			lo, carry = bits.Add64(lo, adjLo, 0)
			hi, _ = bits.Add64(hi, adjHi, carry)
		} else {
			lo, borrow = bits.Sub64(lo, adjLo, 0)
			hi, _ = bits.Sub64(hi, adjHi, borrow)
		}
	}

	word, _ := bits.Div64(hi, lo, dcoDivisor)
	return uint32(word)
}

// RoundFrequency rounds a raw measurement to the nearest 10 Hz step of
// the speed mode's scale.  Values already on a step are returned unchanged
func RoundFrequency(raw uint32, sm SpeedMode) uint32 {
	step := 10 * uint32(sm)
	return ((raw + 5*uint32(sm)) / step) * step
}
