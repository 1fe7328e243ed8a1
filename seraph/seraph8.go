package seraph

import (
	"fmt"
	"io"

	"github.com/nasa-jpl/seraph/stream"
)

const (
	s8ArmMask uint32 = 0x000000FF

	// chip select of the converter chain
	s8CodecCS = 0x1E

	// converter clock at 128 FS
	s8CodecDivider uint32 = 0x02
)

// s8CodecSetup is written to every converter after reset
var s8CodecSetup = [][]byte{
	{0xA1, 0x03},
	{0xA2, 0x4D},
}

// seraph8 is the eight channel analogue card
type seraph8 struct {
	generic
}

func (s *seraph8) Prepare(h *Hardware) {
	h.Regs.Write32(RegCaptureEnable, s8ArmMask)
	h.Regs.Write32(RegPlaybackEnable, s8ArmMask)
}

// InitCodec cycles the converters' reset line and programs them
func (s *seraph8) InitCodec(h *Hardware) error {
	h.Regs.Write32(RegCodecControl, 0x00)
	h.Regs.Write32(RegCodecDivider, s8CodecDivider)
	h.Regs.Write32(RegCodecControl, 0x01)
	h.Regs.Write32(RegCodecControl, 0x0F)

	codec := h.Bus.Conn(s8CodecCS)
	for _, w := range s8CodecSetup {
		if err := codec.Tx(w, nil); err != nil {
			return fmt.Errorf("%s: %w", codec, err)
		}
	}
	h.Regs.Write32(RegInputMute, 0)
	return nil
}

func (s *seraph8) Status(h *Hardware, w io.Writer) {
	activityMap(w, h.region())
}

func (s *seraph8) Ports(dir stream.Direction) []string {
	ports := make([]string, 8)
	for i := range ports {
		ports[i] = fmt.Sprintf("%d=Analogue %d", i+1, i+1)
	}
	return ports
}
