// Package ctlbus drives the serial control bus of the Seraph FPGA.
//
// The bus is a bit-serial, SPI-like link to auxiliary chips (codecs, the
// MADI framer FPGA) operated through six registers in the card's window.
// One transaction selects a chip, announces how many bits will be written
// and read, presents up to 32 write bits left aligned in a data register,
// and, when reading, waits for the bus to go idle before collecting up to
// 32 right aligned read bits.
package ctlbus

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nasa-jpl/seraph/mmio"
	"github.com/nasa-jpl/seraph/util"
)

// register offsets of the bus engine
const (
	RegChipSelect = 0x60 // chip select, writing starts a transaction
	RegWriteBits  = 0x64 // number of bits to write
	RegReadBits   = 0x68 // number of bits to read
	RegWriteData  = 0x6C // write data, left aligned
	RegStatus     = 0x70 // bus status, reads StatusReady when idle
	RegReadData   = 0x74 // read data, right aligned
)

const (
	// StatusReady is the value of RegStatus when every bus agent is idle
	StatusReady uint32 = 0x80000000

	// StatusReset written to RegStatus forces the bus back to idle
	StatusReset uint32 = 0x1234

	// MaxBits is the widest write or read a transaction can carry
	MaxBits = 32
)

const (
	// ReadyTries bounds each wait for StatusReady
	ReadyTries = 10

	// ReadyDelay is the pause between two status polls
	ReadyDelay = time.Millisecond
)

var (
	// ErrTimeout is generated when the bus does not return to idle
	// after a write that expects read data
	ErrTimeout = errors.New("control bus did not signal ready")

	// ErrBitCount is generated for transfers wider than MaxBits
	ErrBitCount = errors.New("control bus transfers are limited to 32 bits")

	// ErrShortBuffer is generated when a byte slice cannot hold the bit count
	ErrShortBuffer = errors.New("buffer too short for bit count")
)

// Stats counts engine activity since creation
type Stats struct {
	Transfers uint64
	Resets    uint64
	Timeouts  uint64
}

// Engine serializes transactions on one card's control bus
type Engine struct {
	mu   sync.Mutex
	regs mmio.Registers

	// Tries and Delay bound each wait for the ready status
	Tries int
	Delay time.Duration

	// Sleep pauses between polls, time.Sleep when nil
	Sleep util.Sleeper

	// Log receives diagnostics, may be nil
	Log mmio.LogFunc

	transfers, resets, timeouts atomic.Uint64
}

// New returns an engine using the hardware retry budget
func New(regs mmio.Registers) *Engine {
	return &Engine{regs: regs, Tries: ReadyTries, Delay: ReadyDelay}
}

func (e *Engine) logf(format string, params ...interface{}) {
	if e.Log != nil {
		e.Log(format, params...)
	}
}

func (e *Engine) waitReady() bool {
	return util.Poll(e.Tries, e.Delay, e.Sleep, func() bool {
		return e.regs.Read32(RegStatus) == StatusReady
	})
}

// Transfer performs one transaction with chip cs, writing writeBits bits
// from w and then reading readBits bits into r.
//
// If the bus is busy when the transaction begins it is reset and the
// transaction proceeds.  If the bus does not go idle after the write and
// read data was requested, ErrTimeout is returned and r is not modified.
func (e *Engine) Transfer(cs uint16, writeBits uint16, w []byte, readBits uint16, r []byte) error {
	if writeBits > MaxBits || readBits > MaxBits {
		return ErrBitCount
	}
	if len(w) < byteLen(writeBits) || len(r) < byteLen(readBits) {
		return ErrShortBuffer
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.transfers.Add(1)

	if !e.waitReady() {
		e.resets.Add(1)
		e.logf("ctlbus: not ready before cs 0x%02x, resetting bus", cs)
		e.regs.Write32(RegStatus, StatusReset)
	}

	e.regs.Write32(RegChipSelect, uint32(cs))
	e.regs.Write32(RegWriteBits, uint32(writeBits))
	e.regs.Write32(RegReadBits, uint32(readBits))
	e.regs.Write32(RegWriteData, Pack(writeBits, w))

	if readBits == 0 {
		return nil
	}
	if !e.waitReady() {
		e.timeouts.Add(1)
		e.logf("ctlbus: no ready after write to cs 0x%02x", cs)
		return ErrTimeout
	}
	Unpack(e.regs.Read32(RegReadData), readBits, r)
	return nil
}

// Stats returns a snapshot of the activity counters
func (e *Engine) Stats() Stats {
	return Stats{
		Transfers: e.transfers.Load(),
		Resets:    e.resets.Load(),
		Timeouts:  e.timeouts.Load(),
	}
}
