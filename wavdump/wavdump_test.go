package wavdump_test

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasa-jpl/seraph/stream"
	"github.com/nasa-jpl/seraph/wavdump"
)

// region fills capture channel ch, frame f with ch*100+f
func region(p stream.Params, l stream.Layout) []byte {
	buf := make([]byte, 2*l.Stride*l.PeriodFrames*stream.SlotBytes)
	for ch := uint32(0); ch < p.Channels; ch++ {
		start, _ := l.ChannelBytes(stream.Capture, ch)
		for f := uint32(0); f < l.PeriodFrames; f++ {
			binary.LittleEndian.PutUint32(buf[start+uint64(f)*stream.SlotBytes:], ch*100+f)
		}
	}
	return buf
}

func TestBufferInterleaves(t *testing.T) {
	p := stream.Params{Rate: 48000, Channels: 2, PeriodFrames: 16, Format: stream.S32_LE}
	l := stream.NewLayout(p, 8)
	buf, err := wavdump.Buffer(stream.Capture, p, l, region(p, l))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 100, 1, 101, 2, 102}, buf.Data[:6])
	assert.Equal(t, 2, buf.Format.NumChannels)
	assert.Equal(t, 32, buf.SourceBitDepth)
}

func TestSample(t *testing.T) {
	v, err := wavdump.Sample(stream.S24_3LE, []byte{0xFF, 0xFF, 0xFF, 0x00})
	require.NoError(t, err)
	assert.Equal(t, -1, v)

	v, err = wavdump.Sample(stream.S32_BE, []byte{0x00, 0x00, 0x01, 0x00})
	require.NoError(t, err)
	assert.Equal(t, 256, v)

	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(0.5))
	v, err = wavdump.Sample(stream.FLOAT_LE, b)
	require.NoError(t, err)
	assert.Equal(t, 1<<30, v)

	binary.BigEndian.PutUint32(b, math.Float32bits(2))
	v, err = wavdump.Sample(stream.FLOAT_BE, b)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt32, v)
}

func TestShortRegion(t *testing.T) {
	p := stream.Params{Rate: 48000, Channels: 2, PeriodFrames: 16, Format: stream.S32_LE}
	l := stream.NewLayout(p, 8)
	_, err := wavdump.Buffer(stream.Playback, p, l, make([]byte, 64))
	assert.True(t, errors.Is(err, wavdump.ErrShortRegion))
}

func TestWrite(t *testing.T) {
	p := stream.Params{Rate: 96000, Channels: 4, PeriodFrames: 64, Format: stream.S24_3LE}
	l := stream.NewLayout(p, 8)
	path := filepath.Join(t.TempDir(), "capture.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, wavdump.Write(f, stream.Capture, p, l, region(p, l)))
	require.NoError(t, f.Close())

	f, err = os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	d := wav.NewDecoder(f)
	require.True(t, d.IsValidFile())
	assert.Equal(t, uint16(4), d.NumChans)
	assert.Equal(t, uint32(96000), d.SampleRate)
	assert.Equal(t, uint16(24), d.BitDepth)
}
