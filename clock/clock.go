// Package clock programs the Seraph sample clock.
//
// The card derives its frame clock either from an internal digitally
// controlled oscillator (DCO) or from an external sync source.  The DCO is
// set by a single divider word computed from the target frequency, a
// fractional part in millihertz, the speed mode and a detune in cents.
// The speed mode selects the sample rate family (1x, 2x or 4x the base
// frame rate) and scales both the DCO word and frequency measurements.
package clock

import (
	"errors"
	"fmt"
)

// register offsets used by the clock
const (
	RegClockSelect   = 0x80
	RegDCO           = 0x88
	RegSpeedMode     = 0x8C
	RegClockSource   = 0x90
	RegMeasureResult = 0x94
	RegMeasureSelect = 0xC8
)

const (
	// ClockSelectDCO is written to RegClockSelect before a speed mode change
	ClockSelectDCO uint32 = 0x03

	// DetuneMin and DetuneMax bound the detune in cents
	DetuneMin = -200
	DetuneMax = 200

	// MillisMax is the largest fractional DCO part
	MillisMax = 999
)

var (
	// ErrOutOfRange is generated when a value falls outside its control range
	ErrOutOfRange = errors.New("value out of range")
)

// SpeedMode is the sample rate family, the value is the rate multiplier
type SpeedMode uint32

const (
	// Slow is single speed, up to 54 kHz
	Slow SpeedMode = 1

	// Normal is double speed, up to 108 kHz
	Normal SpeedMode = 2

	// Fast is quad speed
	Fast SpeedMode = 4
)

// Valid returns true for Slow, Normal and Fast
func (s SpeedMode) Valid() bool {
	return s == Slow || s == Normal || s == Fast
}

func (s SpeedMode) String() string {
	if !s.Valid() {
		return fmt.Sprintf("SpeedMode(%d)", uint32(s))
	}
	return fmt.Sprintf("%dFS", uint32(s))
}

// Index is the position of the mode in the list Slow, Normal, Fast
func (s SpeedMode) Index() int {
	switch s {
	case Normal:
		return 1
	case Fast:
		return 2
	default:
		return 0
	}
}

// SpeedModeAt is the inverse of Index
func SpeedModeAt(i int) (SpeedMode, bool) {
	switch i {
	case 0:
		return Slow, true
	case 1:
		return Normal, true
	case 2:
		return Fast, true
	}
	return 0, false
}

// SpeedModeForRate picks the family a sample rate belongs to
func SpeedModeForRate(rate uint32) SpeedMode {
	switch {
	case rate < 54000:
		return Slow
	case rate < 108000:
		return Normal
	default:
		return Fast
	}
}

// Source is a clock source independent of how a card model encodes it
type Source int

const (
	// Internal is the DCO
	Internal Source = iota
	// SyncBus is the word clock bus between cards
	SyncBus
	// Input1 through Input3 are the model's digital inputs
	Input1
	Input2
	Input3
)

func (s Source) String() string {
	switch s {
	case Internal:
		return "Internal"
	case SyncBus:
		return "Sync Bus"
	case Input1, Input2, Input3:
		return fmt.Sprintf("Input %d", int(s-Input1)+1)
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// SpeedModeResult reports the outcome of a speed mode change
type SpeedModeResult int

const (
	// Applied means the registers and state were updated
	Applied SpeedModeResult = iota
	// Ignored means the mode exceeds the card's maximum, nothing changed
	Ignored
	// Invalid means the mode is not Slow, Normal or Fast
	Invalid
)

func (r SpeedModeResult) String() string {
	switch r {
	case Applied:
		return "applied"
	case Ignored:
		return "ignored"
	case Invalid:
		return "invalid"
	}
	return fmt.Sprintf("SpeedModeResult(%d)", int(r))
}
