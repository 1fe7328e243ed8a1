package clock

import (
	"sync"
	"time"

	"github.com/nasa-jpl/seraph/mmio"
	"github.com/nasa-jpl/seraph/util"
)

const (
	// MeasureTries bounds the wait for a measurement
	MeasureTries = 5

	// MeasureDelay is the pause between polls of the result register
	MeasureDelay = time.Millisecond

	// MeasureReady is set in RegMeasureResult once the counter is valid
	MeasureReady uint32 = 1 << 31

	// MeasureMask selects the period count from RegMeasureResult
	MeasureMask uint32 = 0x3FFFF

	// MeasureClock is the reference clock of the period counter in Hz
	MeasureClock = 1280000000
)

// Meter measures the frequency of a clock source with the card's period
// counter.  It has its own lock so measurements do not hold the device lock
type Meter struct {
	mu   sync.Mutex
	regs mmio.Registers

	Tries int
	Delay time.Duration
	Sleep util.Sleeper
}

// NewMeter returns a meter with the hardware retry budget
func NewMeter(regs mmio.Registers) *Meter {
	return &Meter{regs: regs, Tries: MeasureTries, Delay: MeasureDelay}
}

// PeriodToHz converts a period count to a frequency
func PeriodToHz(period uint32) uint32 {
	return MeasureClock / ((period & MeasureMask) + 1)
}

// Measure triggers a measurement of source src and returns its frequency
// rounded for the speed mode, or 0 when there is no signal
func (m *Meter) Measure(src uint32, sm SpeedMode) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs.Write32(RegMeasureSelect, src&0x7)
	var v uint32
	ok := util.Poll(m.Tries, m.Delay, m.Sleep, func() bool {
		v = m.regs.Read32(RegMeasureResult)
		return v&MeasureReady != 0
	})
	if !ok {
		return 0
	}
	return RoundFrequency(PeriodToHz(v), sm)
}
