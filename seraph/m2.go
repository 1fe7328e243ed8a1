package seraph

import (
	"fmt"
	"io"

	"github.com/nasa-jpl/seraph/clock"
	"github.com/nasa-jpl/seraph/stream"
	"github.com/nasa-jpl/seraph/util"
)

// MADI FPGA registers reached over the control bus
const (
	madiCS = 0x02

	madiSync     = 0x00 // two bits of sync state per port
	madiInput    = 0x01 // channel mode and frame mode per port
	madiFirmware = 0x02
	madiPLL      = 0x40 // write only
	madiFormat   = 0x41 // write only
	madiOutput   = 0x42 // write only

	madiWrite = 0x80
)

// bits of madiPLL and madiFormat
const (
	m2PLL        = 2
	m2TXEnable   = 0
	m2IntFloat   = 4
	m2Endianness = 5
	m2BitOrder   = 6
)

// bit of port p's channel mode in madiInput and madiOutput,
// the frame mode bit follows it
func m2ModeBit(port uint) uint { return port * 2 }

func m2FrameBit(port uint) uint { return port*2 + 1 }

var m2SourceNames = map[uint8]string{
	1: "Internal DCO",
	2: "Sync bus",
	4: "MADI Input 1",
	5: "MADI Input 2",
}

// m2 has two MADI ports of 64 channels.  Its MADI FPGA registers above
// 0x40 cannot be read back and are mirrored in shadows
type m2 struct {
	generic
	shadow map[uint8]uint8

	// frame is the user's mask of outputs wanting 96 kHz frames,
	// applied only in double speed
	frame uint8
}

func newM2(d Descriptor) *m2 {
	return &m2{generic: generic{desc: d}, shadow: make(map[uint8]uint8)}
}

func (m *m2) read(h *Hardware, reg uint8) (uint8, error) {
	r := make([]byte, 1)
	if err := h.Bus.Conn(madiCS).Tx([]byte{reg & 0x7F}, r); err != nil {
		return 0, fmt.Errorf("MADI register 0x%02x: %w", reg, err)
	}
	return r[0], nil
}

func (m *m2) write(h *Hardware, reg, val uint8) error {
	m.shadow[reg] = val
	if err := h.Bus.Conn(madiCS).Tx([]byte{madiWrite | reg, val}, nil); err != nil {
		return fmt.Errorf("MADI register 0x%02x: %w", reg, err)
	}
	return nil
}

func (m *m2) setBit(h *Hardware, reg uint8, bit uint, on bool) error {
	var state uint8
	if on {
		state = 1
	}
	return m.write(h, reg, util.SetField8(m.shadow[reg], bit, state))
}

// Init runs the common init, then starts the MADI FPGA with its PLL off,
// the transmitters on and both outputs in 64 channel mode
func (m *m2) Init(h *Hardware) error {
	if err := m.generic.Init(h); err != nil {
		return err
	}
	seq := []struct{ reg, val uint8 }{
		{madiPLL, 0},
		{madiFormat, 1 << m2TXEnable},
		{madiOutput, 1<<m2ModeBit(0) | 1<<m2ModeBit(1)},
	}
	for _, i := range seq {
		if err := m.write(h, i.reg, i.val); err != nil {
			return err
		}
	}
	return nil
}

// writeFrame applies the 96 kHz frame mask in double speed and clears
// it otherwise
func (m *m2) writeFrame(h *Hardware) error {
	double := h.Clock.State().SpeedMode == clock.Normal
	v := uint32(m.shadow[madiOutput])
	for port := uint(0); port < 2; port++ {
		v = util.SetBit32(v, m2FrameBit(port), double && util.GetBit32(uint32(m.frame), port))
	}
	return m.write(h, madiOutput, uint8(v))
}

func (m *m2) SpeedModeChanged(h *Hardware) error {
	return m.writeFrame(h)
}

// Allow accepts the formats the MADI FPGA can convert
func (m *m2) Allow(dir stream.Direction, p stream.Params) error {
	switch p.Format {
	case stream.FLOAT_BE, stream.FLOAT_LE, stream.S32_BE, stream.S32_LE:
		return nil
	}
	return fmt.Errorf("format %s: %w", p.Format, ErrUnsupported)
}

// Constrain programs the sample format of the MADI FPGA
func (m *m2) Constrain(h *Hardware, dir stream.Direction, p stream.Params) error {
	if err := m.setBit(h, madiFormat, m2IntFloat, p.Format.Float()); err != nil {
		return err
	}
	return m.setBit(h, madiFormat, m2Endianness, p.Format.LittleEndian())
}

// Prepare arms all 128 channels each way
func (m *m2) Prepare(h *Hardware) {
	for off := uint32(RegChannelArm); off <= RegChannelArmLast; off += 4 {
		h.Regs.Write32(off, 0xFFFFFFFF)
	}
}

// InitCodec has nothing to program on the M2
func (m *m2) InitCodec(h *Hardware) error {
	return nil
}

func (m *m2) Shadows() map[uint8]uint8 {
	out := make(map[uint8]uint8, len(m.shadow))
	for k, v := range m.shadow {
		out[k] = v
	}
	return out
}

var (
	syncItems    = []string{"No Signal", "Lock", "Sync"}
	channelItems = []string{"56ch", "64ch"}
	frameItems   = []string{"48kHz", "96kHz"}
)

func (m *m2) Controls(h *Hardware) []*Control {
	var out []*Control
	for port := uint(0); port < 2; port++ {
		port := port
		out = append(out, enumerated(fmt.Sprintf("Input %d Sync", port+1), syncItems, func() (int, error) {
			v, err := m.read(h, madiSync)
			if err != nil {
				return 0, err
			}
			s := (v >> (port * 2)) & 0x3
			if s == 3 {
				s = 2
			}
			return int(s), nil
		}, nil))
	}
	for port := uint(0); port < 2; port++ {
		port := port
		out = append(out, enumerated(fmt.Sprintf("Input %d Channel Mode", port+1), channelItems, func() (int, error) {
			v, err := m.read(h, madiInput)
			return int((v >> m2ModeBit(port)) & 1), err
		}, nil))
	}
	for port := uint(0); port < 2; port++ {
		port := port
		out = append(out, enumerated(fmt.Sprintf("Input %d Frame Mode", port+1), frameItems, func() (int, error) {
			v, err := m.read(h, madiInput)
			return int((v >> m2FrameBit(port)) & 1), err
		}, nil))
	}
	for port := uint(0); port < 2; port++ {
		port := port
		out = append(out, enumerated(fmt.Sprintf("Output %d Channel Mode", port+1), channelItems, func() (int, error) {
			return int((m.shadow[madiOutput] >> m2ModeBit(port)) & 1), nil
		}, func(v int) error {
			return m.setBit(h, madiOutput, m2ModeBit(port), v != 0)
		}))
	}
	for port := uint(0); port < 2; port++ {
		port := port
		out = append(out, boolean(fmt.Sprintf("Output %d 96kHz Frame", port+1), func() (int, error) {
			return int((m.frame >> port) & 1), nil
		}, func(v int) error {
			m.frame = util.SetField8(m.frame, port, uint8(v))
			return m.writeFrame(h)
		}))
	}
	return out
}

func onOff(v uint8, bit uint, on, off string) string {
	if util.GetBit32(uint32(v), bit) {
		return on
	}
	return off
}

func (m *m2) Status(h *Hardware, w io.Writer) {
	reg := func(r uint8) uint8 {
		v, err := m.read(h, r)
		if err != nil {
			h.logf("seraph: %v", err)
		}
		return v
	}
	fmt.Fprintln(w, "\n*** MADI FPGA registers")
	for _, r := range []uint8{madiSync, madiInput, madiFirmware} {
		fmt.Fprintf(w, "M2 MADI %02Xh: %02x\n", r, reg(r))
	}
	for _, r := range []uint8{madiPLL, madiFormat, madiOutput} {
		fmt.Fprintf(w, "M2 MADI %02Xh: %02x\n", r, m.shadow[r])
	}

	st := h.Clock.State()
	f := m.shadow[madiFormat]
	fmt.Fprintln(w, "\n*** MADI FPGA status")
	fmt.Fprintf(w, "MADI FPGA firmware: 0x%02x\n", reg(madiFirmware))
	clockSourceLine(w, st.Source, m2SourceNames)
	fmt.Fprintf(w, "Sample format: %s, %s Endian, %s first\n",
		onOff(f, m2IntFloat, "Float", "Integer"),
		onOff(f, m2Endianness, "Little", "Big"),
		onOff(f, m2BitOrder, "LSB", "MSB"))

	sync, in := reg(madiSync), reg(madiInput)
	for port := uint(0); port < 2; port++ {
		fmt.Fprintf(w, "MADI port %d input: ", port+1)
		s := (sync >> (port * 2)) & 0x3
		if s == 0 {
			fmt.Fprintln(w, "No signal")
			continue
		}
		fmt.Fprintf(w, "%s, %sch, %skHz frame, %d Hz\n",
			onOff(s, 1, "sync", "lock"),
			onOff(in, m2ModeBit(port), "64", "56"),
			onOff(in, m2FrameBit(port), "96", "48"),
			h.Meter.Measure(uint32(4+port), st.SpeedMode))
	}
}

func (m *m2) Ports(dir stream.Direction) []string {
	ports := make([]string, 128)
	for i := range ports {
		ports[i] = fmt.Sprintf("%d=MADI p%dch%02d", i+1, i/64+1, i%64+1)
	}
	return ports
}
