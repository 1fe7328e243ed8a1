package seraph

import (
	"sync/atomic"

	"github.com/nasa-jpl/seraph/clock"
	"github.com/nasa-jpl/seraph/ctlbus"
	"github.com/nasa-jpl/seraph/mmio"
)

const simFirmware uint32 = 0x20120601

// simMADI are the readable MADI FPGA registers of a simulated M2:
// both inputs in sync, 64 channels, 48 kHz frames
var simMADI = map[uint32]uint32{
	madiSync:     0x0A,
	madiInput:    0x05,
	madiFirmware: 0x21,
}

// Simulate makes m behave like an idle card with every clock input
// running at rate Hz.  The control bus is always ready, MADI registers
// read back plausible values, and while DMA is enabled every interrupt
// marks a period and the hardware pointer advances
func Simulate(m *mmio.Mock, rate uint32) {
	m.Set(ctlbus.RegStatus, ctlbus.StatusReady)
	m.OnWrite(ctlbus.RegStatus, func(uint32) {
		m.Set(ctlbus.RegStatus, ctlbus.StatusReady)
	})

	var addr atomic.Uint32
	m.OnWrite(ctlbus.RegWriteData, func(v uint32) {
		addr.Store((v >> 24) & 0x7F)
	})
	m.OnRead(ctlbus.RegReadData, func() uint32 {
		return simMADI[addr.Load()]
	})

	if rate > 0 {
		m.Set(clock.RegMeasureResult, clock.MeasureReady|(clock.MeasureClock/rate-1))
	}
	m.Set(RegFirmware, simFirmware)

	m.OnRead(RegIRQStatus, func() uint32 {
		if m.Get(RegDMAEnable) != 0 {
			return uint32(IRQPeriod)
		}
		return 0
	})
	var ptr atomic.Uint32
	m.OnRead(RegHWPointer, func() uint32 {
		if m.Get(RegDMAEnable) == 0 {
			return ptr.Load()
		}
		return ptr.Add(16)
	})
}
