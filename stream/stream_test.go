package stream_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasa-jpl/seraph/stream"
)

func ExampleLayout_ChannelOffset() {
	l := stream.NewLayout(stream.Params{Rate: 48000, Channels: 8, PeriodFrames: 2048, Format: stream.S32_LE}, 32)
	fmt.Println(l.ChannelOffset(stream.Capture, 1))
	fmt.Println(l.ChannelOffset(stream.Playback, 0))
	// Output:
	// 65536 32
	// 2097152 32
}

func TestNewLayout(t *testing.T) {
	l := stream.NewLayout(stream.Params{Rate: 96000, Channels: 8, PeriodFrames: 2048, Format: stream.S32_LE}, 32)
	assert.Equal(t, uint32(65536), l.PeriodBytes)
	assert.Equal(t, uint32(128), l.Blocks)
}

func TestChannelBytesDoNotOverlap(t *testing.T) {
	l := stream.NewLayout(stream.Params{Channels: 24, PeriodFrames: 256}, 32)
	var prevEnd uint64
	for _, dir := range []stream.Direction{stream.Capture, stream.Playback} {
		for ch := uint32(0); ch < 24; ch++ {
			start, end := l.ChannelBytes(dir, ch)
			assert.GreaterOrEqual(t, start, prevEnd, "%v ch %d", dir, ch)
			assert.Equal(t, uint64(256*4), end-start)
			prevEnd = end
		}
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		f     stream.Format
		name  string
		bits  uint32
		float bool
		le    bool
	}{
		{stream.S24_3LE, "S24_3LE", 24, false, true},
		{stream.S32_LE, "S32_LE", 32, false, true},
		{stream.S32_BE, "S32_BE", 32, false, false},
		{stream.FLOAT_LE, "FLOAT_LE", 32, true, true},
		{stream.FLOAT_BE, "FLOAT_BE", 32, true, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.name, c.f.String())
		assert.Equal(t, c.bits, c.f.Bits(), c.name)
		assert.Equal(t, c.float, c.f.Float(), c.name)
		assert.Equal(t, c.le, c.f.LittleEndian(), c.name)
		parsed, err := stream.ParseFormat(c.name)
		require.NoError(t, err)
		assert.Equal(t, c.f, parsed)
	}
	_, err := stream.ParseFormat("S99_LE")
	assert.Error(t, err)
}

func TestParamsJSON(t *testing.T) {
	var p stream.Params
	require.NoError(t, json.Unmarshal([]byte(`{"rate":96000,"channels":8,"periodFrames":2048,"format":"float_be"}`), &p))
	assert.Equal(t, stream.Params{Rate: 96000, Channels: 8, PeriodFrames: 2048, Format: stream.FLOAT_BE}, p)
}

func TestMachineLifecycle(t *testing.T) {
	var m stream.Machine
	assert.Equal(t, stream.Closed, m.State())
	require.NoError(t, m.Open())
	require.NoError(t, m.Configure())
	require.NoError(t, m.Configure())
	require.NoError(t, m.Prepare())
	require.NoError(t, m.Start())
	assert.Equal(t, stream.Running, m.State())
	require.NoError(t, m.Stop())
	assert.Equal(t, stream.Setup, m.State())
	require.NoError(t, m.Close())
	assert.Equal(t, stream.Closed, m.State())
}

func TestMachineRejectsInvalidTransitions(t *testing.T) {
	var m stream.Machine
	assert.True(t, errors.Is(m.Prepare(), stream.ErrState))
	assert.True(t, errors.Is(m.Close(), stream.ErrState))
	require.NoError(t, m.Open())
	assert.True(t, errors.Is(m.Open(), stream.ErrState))
	assert.True(t, errors.Is(m.Start(), stream.ErrState))
	require.NoError(t, m.Configure())
	require.NoError(t, m.Prepare())
	require.NoError(t, m.Start())
	assert.True(t, errors.Is(m.Configure(), stream.ErrState))
	assert.True(t, errors.Is(m.Start(), stream.ErrState))
	assert.Equal(t, stream.Running, m.State())
}

func TestParseDirection(t *testing.T) {
	d, err := stream.ParseDirection("Capture")
	require.NoError(t, err)
	assert.Equal(t, stream.Capture, d)
	_, err = stream.ParseDirection("sideways")
	assert.Error(t, err)
}

func TestSilence(t *testing.T) {
	b := []byte{1, 2, 3}
	stream.Silence(b)
	assert.Equal(t, []byte{0, 0, 0}, b)
}
