// Package stream holds the geometry and lifecycle of Seraph PCM streams.
//
// Playback and capture share one DMA region.  Samples are stored
// non-interleaved in 32-bit slots, one period per channel, capture
// channels first and playback channels after a gap of stride channels.
package stream

import (
	"fmt"
	"strings"
)

// Direction is playback or capture
type Direction int

const (
	// Playback moves samples from the host to the card
	Playback Direction = iota
	// Capture moves samples from the card to the host
	Capture
)

// Directions lists both directions in a fixed order
var Directions = [...]Direction{Playback, Capture}

func (d Direction) String() string {
	switch d {
	case Playback:
		return "playback"
	case Capture:
		return "capture"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection is the inverse of String
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "playback":
		return Playback, nil
	case "capture":
		return Capture, nil
	}
	return 0, fmt.Errorf("unknown stream direction %q", s)
}

// SlotBytes is the size of one sample slot in the DMA region
const SlotBytes = 4

// FramesPerBlock is the DMA engine's transfer granule in frames
const FramesPerBlock = 16

// Params are the host's requested stream parameters
type Params struct {
	Rate         uint32 `json:"rate"`
	Channels     uint32 `json:"channels"`
	PeriodFrames uint32 `json:"periodFrames"`
	Format       Format `json:"format"`
}

// Layout is the placement of a configured stream in the DMA region
type Layout struct {
	PeriodFrames uint32 `json:"periodFrames"`
	PeriodBytes  uint32 `json:"periodBytes"`
	Blocks       uint32 `json:"blocks"`
	Stride       uint32 `json:"stride"`
}

// NewLayout computes the layout of p on a card whose playback area
// starts stride channels into the region
func NewLayout(p Params, stride uint32) Layout {
	return Layout{
		PeriodFrames: p.PeriodFrames,
		PeriodBytes:  p.PeriodFrames * p.Channels * SlotBytes,
		Blocks:       p.PeriodFrames / FramesPerBlock,
		Stride:       stride,
	}
}

// ChannelOffset returns the bit offset of channel ch's first sample and
// the distance in bits between its consecutive samples
func (l Layout) ChannelOffset(dir Direction, ch uint32) (first, step uint64) {
	var base uint64
	if dir == Playback {
		base = uint64(l.PeriodFrames) * uint64(l.Stride) * SlotBytes
	}
	first = (base + uint64(ch)*uint64(l.PeriodFrames)*SlotBytes) * 8
	return first, SlotBytes * 8
}

// ChannelBytes returns the byte range of channel ch within the region
func (l Layout) ChannelBytes(dir Direction, ch uint32) (start, end uint64) {
	first, _ := l.ChannelOffset(dir, ch)
	start = first / 8
	return start, start + uint64(l.PeriodFrames)*SlotBytes
}

// Silence zeroes a sample area
func Silence(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
