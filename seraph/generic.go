package seraph

import (
	"io"

	"github.com/nasa-jpl/seraph/clock"
	"github.com/nasa-jpl/seraph/stream"
)

// generic is the behavior shared by every model and the whole behavior
// of the C-Box, AD2, D4 and D8
type generic struct {
	desc Descriptor
}

func (g *generic) Descriptor() Descriptor {
	return g.desc
}

// Init resets the DMA engine, masks the play interrupt, starts the DCO
// at 48 kHz in single speed as clock master and sets the bus clock
func (g *generic) Init(h *Hardware) error {
	h.Regs.Write32(RegIRQStatus, 0)
	h.Regs.Write32(RegIRQEnable, irqEnablePeriod)
	h.Clock.SetDCO(48000, 0)
	h.Clock.SetSpeedMode(clock.Slow)
	h.Clock.SetSource(1)
	h.Regs.Write32(RegSPIClockDivider, spiClockDivider)
	return nil
}

func (g *generic) Controls(h *Hardware) []*Control {
	return nil
}

func (g *generic) Prepare(h *Hardware) {}

func (g *generic) Status(h *Hardware, w io.Writer) {}

func (g *generic) Ports(dir stream.Direction) []string {
	return nil
}
