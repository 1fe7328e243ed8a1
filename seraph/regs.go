package seraph

import (
	"fmt"
	"strings"

	"github.com/nasa-jpl/seraph/clock"
	"github.com/nasa-jpl/seraph/ctlbus"
)

// register offsets in BAR0
const (
	RegIRQStatus       = 0x00 // read: interrupt status, write 0: reset DMA engine
	RegDMAAddr         = 0x04
	RegCaptureEnable   = 0x08 // channel arm mask
	RegPlaybackEnable  = 0x0C // channel arm mask
	RegDMABlocks       = 0x10 // period length in 16 frame blocks
	RegCodecControl    = 0x14 // ADAT TX enable on A3, codec reset on Seraph 8
	RegInputMute       = 0x18
	RegChannelArm      = 0x20 // first of eight M2 arm masks
	RegChannelArmLast  = 0x3C
	RegSPIClockDivider = ctlbus.RegReadData // write side of the read data register
	RegCodecDivider    = 0x7C
	RegDMAEnable       = 0x84
	RegHWPointer       = clock.RegSpeedMode // read side of the speed mode register
	RegExtensionBoard  = 0xF8
	RegFirmware        = 0xFC
	RegIRQEnable       = 0xAC
	RegDMADebug        = 0x244
)

const (
	// PCIVendor is MARIAN's PCI vendor id
	PCIVendor uint16 = 0x1382

	spiClockDivider uint32 = 0x1F
	dmaEnableBoth   uint32 = 0x3
	irqEnablePeriod uint32 = 0x2
)

// IRQStatus is the value of RegIRQStatus
type IRQStatus uint32

// interrupt status bits
const (
	IRQDeadWrite    IRQStatus = 1 << 0
	IRQDeadRead     IRQStatus = 1 << 1
	IRQDataLost     IRQStatus = 1 << 2
	IRQPageConflict IRQStatus = 1 << 3
	IRQStartReady   IRQStatus = 1 << 4
	IRQPlay         IRQStatus = 1 << 8
	IRQPlayPage     IRQStatus = 1 << 9
	IRQPlayMissed   IRQStatus = 1 << 10
	IRQRecord       IRQStatus = 1 << 11
	IRQRecordPage   IRQStatus = 1 << 12
	IRQRecordMissed IRQStatus = 1 << 13
	IRQPrepare      IRQStatus = 1 << 14

	// IRQPeriod marks a period boundary
	IRQPeriod = IRQRecord | IRQPrepare

	// IRQErrors are the fault bits
	IRQErrors = IRQDeadWrite | IRQDeadRead | IRQDataLost | IRQPageConflict | IRQPlayMissed | IRQRecordMissed
)

var irqNames = []struct {
	bit  IRQStatus
	name string
}{
	{IRQDeadWrite, "dead write"},
	{IRQDeadRead, "dead read"},
	{IRQDataLost, "data lost"},
	{IRQPageConflict, "page conflict"},
	{IRQStartReady, "start ready"},
	{IRQPlay, "play"},
	{IRQPlayPage, "play page"},
	{IRQPlayMissed, "play not executed"},
	{IRQRecord, "record"},
	{IRQRecordPage, "record page"},
	{IRQRecordMissed, "record not executed"},
	{IRQPrepare, "prepare"},
}

// PeriodElapsed is true when the status marks a period boundary
func (s IRQStatus) PeriodElapsed() bool {
	return s&IRQPeriod != 0
}

// Faulted is true when any error bit is set
func (s IRQStatus) Faulted() bool {
	return s&IRQErrors != 0
}

func (s IRQStatus) String() string {
	var names []string
	for _, n := range irqNames {
		if s&n.bit != 0 {
			names = append(names, n.name)
		}
	}
	return fmt.Sprintf("0x%08x [%s]", uint32(s), strings.Join(names, ", "))
}
