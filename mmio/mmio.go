// Package mmio provides ordered access to the 32-bit register window
// of a PCIe card mapped into user space.
//
// Registers are addressed by byte offset into the window.  No offset
// validation is performed; offsets are fixed by the hardware and belong
// to the caller.
package mmio

// Registers is a window of 32-bit device registers
type Registers interface {
	// Read32 reads the register at a byte offset
	Read32(offset uint32) uint32

	// Write32 writes the register at a byte offset.  Writing may
	// trigger device side logic
	Write32(offset uint32, value uint32)
}

// LogFunc receives diagnostic messages.  log.Printf satisfies it
type LogFunc func(format string, params ...interface{})

// Logged wraps Registers and reports every access through Log
type Logged struct {
	Registers

	Log LogFunc
}

// Read32 reads the register and logs the value
func (l Logged) Read32(offset uint32) uint32 {
	v := l.Registers.Read32(offset)
	if l.Log != nil {
		l.Log("RD 0x%03X: %08x", offset, v)
	}
	return v
}

// Write32 logs the value then writes the register
func (l Logged) Write32(offset uint32, value uint32) {
	if l.Log != nil {
		l.Log("WR 0x%03X <- %08x", offset, value)
	}
	l.Registers.Write32(offset, value)
}
