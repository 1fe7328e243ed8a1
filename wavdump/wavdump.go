// Package wavdump writes one period of a card's DMA region as a WAV file.
//
// The region holds each channel's period as a run of 32-bit slots.
// Write gathers the slots of every channel of a direction, interleaves
// them frame by frame and encodes PCM with go-audio/wav.  Floating point
// streams are converted to 32-bit integers.
package wavdump

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/nasa-jpl/seraph/stream"
	"github.com/nasa-jpl/seraph/util"
)

// wavPCM is the WAVE format tag of integer PCM
const wavPCM = 1

// ErrShortRegion is generated when the region does not hold the layout
var ErrShortRegion = errors.New("DMA region smaller than the stream layout")

// BitDepth is the depth of the encoded samples for a format
func BitDepth(f stream.Format) int {
	if f == stream.S24_3LE {
		return 24
	}
	return 32
}

// Sample decodes the 4-byte slot b holding one sample of format f
func Sample(f stream.Format, b []byte) (int, error) {
	switch f {
	case stream.S24_3LE:
		v := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
		if v&0x800000 != 0 {
			v |= 0xFF000000
		}
		return int(int32(v)), nil
	case stream.S32_LE:
		return int(int32(binary.LittleEndian.Uint32(b))), nil
	case stream.S32_BE:
		return int(int32(binary.BigEndian.Uint32(b))), nil
	case stream.FLOAT_LE:
		return floatSample(math.Float32frombits(binary.LittleEndian.Uint32(b))), nil
	case stream.FLOAT_BE:
		return floatSample(math.Float32frombits(binary.BigEndian.Uint32(b))), nil
	}
	return 0, fmt.Errorf("no WAV conversion for %s", f)
}

func floatSample(f float32) int {
	return util.Clamp(int(float64(f)*(1<<31)), math.MinInt32, math.MaxInt32)
}

// Buffer interleaves the period of dir held in region
func Buffer(dir stream.Direction, p stream.Params, l stream.Layout, region []byte) (*audio.IntBuffer, error) {
	frames := int(l.PeriodFrames)
	data := make([]int, frames*int(p.Channels))
	for ch := uint32(0); ch < p.Channels; ch++ {
		start, end := l.ChannelBytes(dir, ch)
		if end > uint64(len(region)) {
			return nil, fmt.Errorf("channel %d ends at byte %d of %d: %w", ch, end, len(region), ErrShortRegion)
		}
		slots := region[start:end]
		for f := 0; f < frames; f++ {
			v, err := Sample(p.Format, slots[f*stream.SlotBytes:])
			if err != nil {
				return nil, err
			}
			data[f*int(p.Channels)+int(ch)] = v
		}
	}
	return &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: int(p.Channels),
			SampleRate:  int(p.Rate),
		},
		Data:           data,
		SourceBitDepth: BitDepth(p.Format),
	}, nil
}

// Write encodes the period of dir held in region to w
func Write(w io.WriteSeeker, dir stream.Direction, p stream.Params, l stream.Layout, region []byte) error {
	buf, err := Buffer(dir, p, l, region)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(w, int(p.Rate), buf.SourceBitDepth, int(p.Channels), wavPCM)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoding WAV: %w", err)
	}
	return enc.Close()
}
