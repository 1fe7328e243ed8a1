package seraph

import (
	"fmt"
	"io"

	"github.com/nasa-jpl/seraph/stream"
)

const a3ArmMask uint32 = 0x00FFFFFF

var a3SourceNames = map[uint8]string{
	1: "Internal DCO",
	2: "Sync bus",
	4: "ADAT Input 1",
	5: "ADAT Input 2",
	6: "ADAT Input 3",
}

// a3 has three ADAT ports of eight channels each way
type a3 struct {
	generic
}

// Init enables the ADAT transmitters after the common init
func (a *a3) Init(h *Hardware) error {
	if err := a.generic.Init(h); err != nil {
		return err
	}
	h.Regs.Write32(RegCodecControl, 0x01)
	return nil
}

func (a *a3) Prepare(h *Hardware) {
	h.Regs.Write32(RegCaptureEnable, a3ArmMask)
	h.Regs.Write32(RegPlaybackEnable, a3ArmMask)
	h.Regs.Write32(RegInputMute, 0)
}

func (a *a3) Status(h *Hardware, w io.Writer) {
	st := h.Clock.State()
	clockSourceLine(w, st.Source, a3SourceNames)
	for i := uint32(1); i <= 3; i++ {
		fmt.Fprintf(w, "ADAT port %d input: %d Hz\n", i, h.Meter.Measure(3+i, st.SpeedMode))
	}
	activityMap(w, h.region())
}

func (a *a3) Ports(dir stream.Direction) []string {
	ports := make([]string, 0, 24)
	for i := 0; i < 24; i++ {
		ports = append(ports, fmt.Sprintf("%d=ADAT p%dch%02d", i+1, i/8+1, i%8+1))
	}
	return ports
}
