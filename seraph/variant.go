package seraph

import (
	"io"

	"github.com/nasa-jpl/seraph/clock"
	"github.com/nasa-jpl/seraph/ctlbus"
	"github.com/nasa-jpl/seraph/dma"
	"github.com/nasa-jpl/seraph/mmio"
	"github.com/nasa-jpl/seraph/stream"
)

// Hardware is the view of a card its variant works through.
// Variant methods are called with the card's device lock held
type Hardware struct {
	Regs  mmio.Registers
	Bus   *ctlbus.Engine
	Clock *clock.Clock
	Meter *clock.Meter
	DMA   dma.Buffer
	Log   mmio.LogFunc
}

func (h *Hardware) logf(format string, params ...interface{}) {
	if h.Log != nil {
		h.Log(format, params...)
	}
}

func (h *Hardware) region() []byte {
	if h.DMA == nil {
		return nil
	}
	return h.DMA.Bytes()
}

// Variant is the model specific behavior of a card
type Variant interface {
	// Descriptor returns the model's static description
	Descriptor() Descriptor

	// Init brings the card to its power-on state
	Init(h *Hardware) error

	// Controls returns the model's own controls.  The clock controls
	// are added by the card when the descriptor asks for them
	Controls(h *Hardware) []*Control

	// Prepare arms channels before streaming
	Prepare(h *Hardware)

	// Status appends model details to the status dump
	Status(h *Hardware, w io.Writer)

	// Ports names the physical ports of a direction in channel order
	Ports(dir stream.Direction) []string
}

// CodecIniter is implemented by models whose converters are programmed
// after every prepare
type CodecIniter interface {
	InitCodec(h *Hardware) error
}

// SpeedModeHook is implemented by models that follow a speed mode change
type SpeedModeHook interface {
	SpeedModeChanged(h *Hardware) error
}

// Constrainer is implemented by models that program the sample format.
// Allow runs before anything is written to the card
type Constrainer interface {
	Allow(dir stream.Direction, p stream.Params) error
	Constrain(h *Hardware, dir stream.Direction, p stream.Params) error
}

// Shadower is implemented by models holding write-only register copies
type Shadower interface {
	Shadows() map[uint8]uint8
}
