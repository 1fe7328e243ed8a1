package seraph

import (
	"fmt"

	"github.com/nasa-jpl/seraph/clock"
	"github.com/nasa-jpl/seraph/stream"
)

// Model identifies a member of the Seraph family
type Model int

const (
	A3 Model = iota
	CBox
	AD2
	D4
	D8
	Seraph8
	M2
)

// Models lists every supported model
var Models = []Model{A3, CBox, AD2, D4, D8, Seraph8, M2}

func (m Model) String() string {
	if d, ok := descriptors[m]; ok {
		return d.Name
	}
	return fmt.Sprintf("Model(%d)", int(m))
}

// StreamInfo bounds the parameters one stream direction accepts
type StreamInfo struct {
	Formats        []stream.Format `json:"formats"`
	RateMin        uint32          `json:"rateMin"`
	RateMax        uint32          `json:"rateMax"`
	ChannelsMin    uint32          `json:"channelsMin"`
	ChannelsMax    uint32          `json:"channelsMax"`
	BufferBytesMax uint32          `json:"bufferBytesMax"`
	PeriodBytesMin uint32          `json:"periodBytesMin"`
	PeriodBytesMax uint32          `json:"periodBytesMax"`
	Periods        uint32          `json:"periods"`
}

// Check returns ErrUnsupported when p falls outside the info
func (s *StreamInfo) Check(p stream.Params) error {
	ok := false
	for _, f := range s.Formats {
		if f == p.Format {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("format %s: %w", p.Format, ErrUnsupported)
	}
	if p.Rate < s.RateMin || p.Rate > s.RateMax {
		return fmt.Errorf("rate %d outside %d..%d: %w", p.Rate, s.RateMin, s.RateMax, ErrUnsupported)
	}
	if p.Channels < s.ChannelsMin || p.Channels > s.ChannelsMax {
		return fmt.Errorf("%d channels outside %d..%d: %w", p.Channels, s.ChannelsMin, s.ChannelsMax, ErrUnsupported)
	}
	pb := p.PeriodFrames * p.Channels * stream.SlotBytes
	if pb < s.PeriodBytesMin || pb > s.PeriodBytesMax {
		return fmt.Errorf("period of %d bytes outside %d..%d: %w", pb, s.PeriodBytesMin, s.PeriodBytesMax, ErrUnsupported)
	}
	return nil
}

// ClockSourceCode maps a clock source to a model's register code and label
type ClockSourceCode struct {
	Source clock.Source
	Code   uint8
	Label  string
}

// FrequencyInput is a measurable clock input
type FrequencyInput struct {
	Label  string
	Source uint32
}

// Descriptor is the static description of a model
type Descriptor struct {
	Name         string
	Model        Model
	DeviceID     uint16
	MaxSpeedMode clock.SpeedMode

	ChannelsIn       uint32
	ChannelsOut      uint32
	DMAChannelStride uint32
	DMABufSize       int

	// Playback and Capture are nil on models without streaming support
	Playback *StreamInfo
	Capture  *StreamInfo

	// ClockControls enables the clock source, speed mode and DCO controls
	ClockControls   bool
	ClockSources    []ClockSourceCode
	FrequencyInputs []FrequencyInput
}

// Info returns the stream info for a direction, nil if unsupported
func (d *Descriptor) Info(dir stream.Direction) *StreamInfo {
	if dir == stream.Playback {
		return d.Playback
	}
	return d.Capture
}

// SourceIndex returns the position in ClockSources of a register code
func (d *Descriptor) SourceIndex(code uint8) (int, bool) {
	for i, c := range d.ClockSources {
		if c.Code == code {
			return i, true
		}
	}
	return 0, false
}

func streamInfo(formats []stream.Format, rateMax, chMin, chMax, bufBytes, periodBytesMax uint32) *StreamInfo {
	return &StreamInfo{
		Formats:        formats,
		RateMin:        28000,
		RateMax:        rateMax,
		ChannelsMin:    chMin,
		ChannelsMax:    chMax,
		BufferBytesMax: bufBytes,
		PeriodBytesMin: 16 * stream.SlotBytes,
		PeriodBytesMax: periodBytesMax,
		Periods:        2,
	}
}

var (
	a3Formats = []stream.Format{stream.S24_3LE}
	s8Formats = []stream.Format{stream.S32_LE}
	m2Formats = []stream.Format{stream.S32_LE, stream.S32_BE, stream.FLOAT_LE, stream.FLOAT_BE}
)

var descriptors = map[Model]Descriptor{
	A3: {
		Name:             "Seraph A3",
		Model:            A3,
		DeviceID:         0x4630,
		MaxSpeedMode:     clock.Normal,
		ChannelsIn:       24,
		ChannelsOut:      24,
		DMAChannelStride: 32,
		DMABufSize:       2 * 32 * 2 * 2048 * 4,
		Playback:         streamInfo(a3Formats, 113000, 1, 24, 2*24*2*4096*4, 2048*4*24),
		Capture:          streamInfo(a3Formats, 113000, 1, 24, 2*24*2*4096*4, 2048*4*24),
		ClockControls:    true,
		ClockSources: []ClockSourceCode{
			{clock.Internal, 1, "Internal"},
			{clock.SyncBus, 2, "Sync Bus"},
			{clock.Input1, 4, "ADAT Input 1"},
			{clock.Input2, 5, "ADAT Input 2"},
			{clock.Input3, 6, "ADAT Input 3"},
		},
		FrequencyInputs: []FrequencyInput{
			{"Input 1 Frequency", 4},
			{"Input 2 Frequency", 5},
			{"Input 3 Frequency", 6},
		},
	},
	CBox: {Name: "C-Box", Model: CBox, DeviceID: 0x4640, MaxSpeedMode: clock.Fast},
	AD2:  {Name: "Seraph AD2", Model: AD2, DeviceID: 0x4720, MaxSpeedMode: clock.Fast},
	D4:   {Name: "Seraph D4", Model: D4, DeviceID: 0x4840, MaxSpeedMode: clock.Fast},
	D8:   {Name: "Seraph D8", Model: D8, DeviceID: 0x4880, MaxSpeedMode: clock.Fast},
	Seraph8: {
		Name:             "Seraph 8",
		Model:            Seraph8,
		DeviceID:         0x4980,
		MaxSpeedMode:     clock.Fast,
		ChannelsIn:       8,
		ChannelsOut:      8,
		DMAChannelStride: 32,
		DMABufSize:       2 * 32 * 2 * 2048 * 4,
		Playback:         streamInfo(s8Formats, 216000, 1, 8, 2*8*2*4096*4, 2048*4*8),
		Capture:          streamInfo(s8Formats, 216000, 1, 8, 2*8*2*4096*4, 2048*4*8),
		ClockControls:    true,
		ClockSources: []ClockSourceCode{
			{clock.Internal, 1, "Internal"},
			{clock.SyncBus, 2, "Sync Bus"},
		},
	},
	M2: {
		Name:             "Seraph M2",
		Model:            M2,
		DeviceID:         0x5020,
		MaxSpeedMode:     clock.Normal,
		ChannelsIn:       128,
		ChannelsOut:      128,
		DMAChannelStride: 128,
		DMABufSize:       2 * 128 * 2 * 2048 * 4,
		Playback:         streamInfo(m2Formats, 113000, 128, 128, 2*128*2*1024*4, 1024*4*128),
		Capture:          streamInfo(m2Formats, 113000, 128, 128, 2*128*2*1024*4, 1024*4*128),
		ClockControls:    true,
		ClockSources: []ClockSourceCode{
			{clock.Internal, 1, "Internal"},
			{clock.SyncBus, 2, "Sync Bus"},
			{clock.Input1, 4, "Input Port 1"},
			{clock.Input2, 5, "Input Port 2"},
		},
		FrequencyInputs: []FrequencyInput{
			{"Input 1 Frequency", 4},
			{"Input 2 Frequency", 5},
		},
	},
}

// Describe returns the descriptor of a model
func Describe(m Model) (Descriptor, bool) {
	d, ok := descriptors[m]
	return d, ok
}

// ModelForDevice maps a PCI device id to a model
func ModelForDevice(deviceID uint16) (Model, bool) {
	for m, d := range descriptors {
		if d.DeviceID == deviceID {
			return m, true
		}
	}
	return 0, false
}

// ParseModel looks a model up by name, case sensitive, e.g. "Seraph 8"
func ParseModel(name string) (Model, error) {
	for m, d := range descriptors {
		if d.Name == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown model %q", name)
}

// NewVariant returns fresh model behavior for one card
func NewVariant(m Model) (Variant, error) {
	d, ok := descriptors[m]
	if !ok {
		return nil, fmt.Errorf("model %d: %w", int(m), ErrUnsupported)
	}
	switch m {
	case A3:
		return &a3{generic{desc: d}}, nil
	case Seraph8:
		return &seraph8{generic{desc: d}}, nil
	case M2:
		return newM2(d), nil
	default:
		return &generic{desc: d}, nil
	}
}
