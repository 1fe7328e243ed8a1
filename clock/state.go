package clock

import "github.com/nasa-jpl/seraph/mmio"

// State is a snapshot of the committed clock settings
type State struct {
	SpeedMode    SpeedMode `json:"speedMode"`
	MaxSpeedMode SpeedMode `json:"maxSpeedMode"`
	Source       uint8     `json:"source"`
	DCO          uint32    `json:"dco"`
	DCOMillis    uint32    `json:"dcoMillis"`
	Detune       int       `json:"detune"`
}

// Clock owns the clock registers of one card.  Every mutation rewrites
// the DCO word from the full (frequency, millis, speed mode, detune)
// tuple, so the register always matches State.
//
// Clock is not safe for concurrent use; the card's device lock serializes it
type Clock struct {
	regs mmio.Registers
	st   State
}

// New returns a clock for a card limited to max.  The state is Slow with
// the DCO unprogrammed until the card's init sequence runs
func New(regs mmio.Registers, max SpeedMode) *Clock {
	return &Clock{regs: regs, st: State{SpeedMode: Slow, MaxSpeedMode: max}}
}

// State returns the committed settings
func (c *Clock) State() State {
	return c.st
}

// SetDCO programs the oscillator to freq Hz plus millis thousandths
func (c *Clock) SetDCO(freq, millis uint32) {
	c.regs.Write32(RegDCO, DCOWord(freq, millis, c.st.SpeedMode, c.st.Detune))
	c.st.DCO = freq
	c.st.DCOMillis = millis
}

// SetDetune offsets the oscillator by cents, DetuneMin to DetuneMax
func (c *Clock) SetDetune(cents int) error {
	if cents < DetuneMin || cents > DetuneMax {
		return ErrOutOfRange
	}
	c.st.Detune = cents
	c.SetDCO(c.st.DCO, c.st.DCOMillis)
	return nil
}

// SetRate clears the detune and tunes the oscillator to a stream rate
func (c *Clock) SetRate(rate uint32) {
	c.st.Detune = 0
	c.SetDCO(rate, 0)
}

// SetSource selects the clock source by the card model's raw code.
// The code is not validated here
func (c *Clock) SetSource(code uint8) {
	c.regs.Write32(RegClockSource, uint32(code))
	c.st.Source = code
}

// SetSpeedMode switches the rate family and reprograms the DCO for it.
// A mode above the card's maximum is Ignored without touching hardware
func (c *Clock) SetSpeedMode(m SpeedMode) SpeedModeResult {
	if !m.Valid() {
		return Invalid
	}
	if m > c.st.MaxSpeedMode {
		return Ignored
	}
	c.regs.Write32(RegClockSelect, ClockSelectDCO)
	// the mode register only distinguishes double speed
	if m == Normal {
		c.regs.Write32(RegSpeedMode, 1)
	} else {
		c.regs.Write32(RegSpeedMode, 0)
	}
	c.st.SpeedMode = m
	c.SetDCO(c.st.DCO, c.st.DCOMillis)
	return Applied
}
