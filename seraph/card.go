// Package seraph controls MARIAN Seraph PCIe audio cards.
//
// A Card owns one board: its register window, control bus, clock and
// DMA region.  Every multi-register sequence and every state change runs
// under the card's device lock; the control bus and the frequency meter
// carry their own locks nested inside it.  Model differences live behind
// the Variant interface, selected from the PCI device id.
package seraph

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/nasa-jpl/seraph/clock"
	"github.com/nasa-jpl/seraph/ctlbus"
	"github.com/nasa-jpl/seraph/dma"
	"github.com/nasa-jpl/seraph/mmio"
	"github.com/nasa-jpl/seraph/stream"
	"github.com/nasa-jpl/seraph/util"
)

var (
	// ErrRateTooHigh is generated when a stream rate needs a faster
	// speed mode than the model supports
	ErrRateTooHigh = errors.New("rate requires a speed mode above the card's maximum")

	// ErrInvalidState is generated when stored state has no meaning for the model
	ErrInvalidState = errors.New("card state holds an illegal value")

	// ErrUnsupported is generated for stream parameters the model cannot carry
	ErrUnsupported = errors.New("not supported by this card")

	// ErrDMAAddress is generated when the DMA region lies above 4 GiB
	ErrDMAAddress = errors.New("DMA bus address does not fit the 32-bit address register")

	// ErrNoControl is generated for unknown control names
	ErrNoControl = errors.New("no such control")

	// ErrReadOnly is generated when setting a read only control
	ErrReadOnly = errors.New("control is read only")
)

type direction struct {
	m        stream.Machine
	params   stream.Params
	layout   stream.Layout
	onPeriod func()
}

// IRQStats counts interrupts since the card was created
type IRQStats struct {
	Interrupts uint64 `json:"interrupts"`
	Periods    uint64 `json:"periods"`
	Faults     uint64 `json:"faults"`
	Last       uint32 `json:"last"`
}

// Card is one Seraph board
type Card struct {
	sync.Mutex

	hw       Hardware
	v        Variant
	desc     Descriptor
	dirs     [2]direction
	controls []*Control
	irq      IRQStats
}

// Option configures a Card
type Option func(*Card)

// WithLog routes diagnostics to fn
func WithLog(fn mmio.LogFunc) Option {
	return func(c *Card) {
		c.hw.Log = fn
		c.hw.Bus.Log = fn
	}
}

// WithSleep replaces time.Sleep in the bus and meter polls
func WithSleep(fn util.Sleeper) Option {
	return func(c *Card) {
		c.hw.Bus.Sleep = fn
		c.hw.Meter.Sleep = fn
	}
}

// New allocates the card's DMA region, runs the model's init sequence and
// builds its controls.  A failed allocation is returned wrapped
func New(regs mmio.Registers, alloc dma.Allocator, v Variant, opts ...Option) (*Card, error) {
	desc := v.Descriptor()
	c := &Card{
		v:    v,
		desc: desc,
		hw: Hardware{
			Regs:  regs,
			Bus:   ctlbus.New(regs),
			Clock: clock.New(regs, desc.MaxSpeedMode),
			Meter: clock.NewMeter(regs),
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	if desc.DMABufSize > 0 {
		buf, err := alloc.Alloc(desc.DMABufSize)
		if err != nil {
			return nil, fmt.Errorf("allocating %d byte DMA buffer for %s: %w", desc.DMABufSize, desc.Name, err)
		}
		if buf.BusAddr()+uint64(desc.DMABufSize) > math.MaxUint32+1 {
			buf.Close()
			return nil, fmt.Errorf("region at 0x%x: %w", buf.BusAddr(), ErrDMAAddress)
		}
		c.hw.DMA = buf
	}

	c.Lock()
	defer c.Unlock()
	if err := v.Init(&c.hw); err != nil {
		if c.hw.DMA != nil {
			c.hw.DMA.Close()
		}
		return nil, fmt.Errorf("initializing %s: %w", desc.Name, err)
	}
	c.buildControls()
	return c, nil
}

// Descriptor returns the model description
func (c *Card) Descriptor() Descriptor {
	return c.desc
}

// Bus exposes the control bus for diagnostics
func (c *Card) Bus() *ctlbus.Engine {
	return c.hw.Bus
}

// setSpeedMode changes the speed mode and lets the model follow.
// The device lock must be held
func (c *Card) setSpeedMode(m clock.SpeedMode) (clock.SpeedModeResult, error) {
	res := c.hw.Clock.SetSpeedMode(m)
	if res != clock.Applied {
		return res, nil
	}
	if hook, ok := c.v.(SpeedModeHook); ok {
		if err := hook.SpeedModeChanged(&c.hw); err != nil {
			return res, err
		}
	}
	return res, nil
}

// SetSpeedMode changes the speed mode.  Modes above the model's maximum
// are reported as clock.Ignored and change nothing
func (c *Card) SetSpeedMode(m clock.SpeedMode) (clock.SpeedModeResult, error) {
	c.Lock()
	defer c.Unlock()
	return c.setSpeedMode(m)
}

// MeasureFrequency measures a clock input, 0 means no signal.
// Only the meter is locked while the hardware counts
func (c *Card) MeasureFrequency(src uint32) uint32 {
	c.Lock()
	sm := c.hw.Clock.State().SpeedMode
	c.Unlock()
	return c.hw.Meter.Measure(src, sm)
}

// StreamState describes one direction
type StreamState struct {
	State  stream.State  `json:"state"`
	Params stream.Params `json:"params"`
	Layout stream.Layout `json:"layout"`
}

// DeviceState is a snapshot of a card
type DeviceState struct {
	Model   string                 `json:"model"`
	Clock   clock.State            `json:"clock"`
	Shadows map[uint8]uint8        `json:"shadows,omitempty"`
	Streams map[string]StreamState `json:"streams"`
	IRQ     IRQStats               `json:"irq"`
}

// State returns a snapshot of the card
func (c *Card) State() DeviceState {
	c.Lock()
	defer c.Unlock()
	st := DeviceState{
		Model:   c.desc.Name,
		Clock:   c.hw.Clock.State(),
		Streams: make(map[string]StreamState, 2),
		IRQ:     c.irq,
	}
	if s, ok := c.v.(Shadower); ok {
		st.Shadows = s.Shadows()
	}
	for _, dir := range stream.Directions {
		d := &c.dirs[dir]
		st.Streams[dir.String()] = StreamState{State: d.m.State(), Params: d.params, Layout: d.layout}
	}
	return st
}

// Ports names the ports of a direction
func (c *Card) Ports(dir stream.Direction) []string {
	return c.v.Ports(dir)
}
