package ctlbus_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/spi"

	"github.com/nasa-jpl/seraph/ctlbus"
	"github.com/nasa-jpl/seraph/mmio"
)

// loopback wires the write data register back to the read data register,
// right aligned to the requested read width, and reports ready always
func loopback() *mmio.Mock {
	m := mmio.NewMock()
	m.Set(ctlbus.RegStatus, ctlbus.StatusReady)
	m.OnRead(ctlbus.RegReadData, func() uint32 {
		n := m.Get(ctlbus.RegReadBits)
		if n == 0 {
			return 0
		}
		return m.Get(ctlbus.RegWriteData) >> (32 - n)
	})
	return m
}

func noSleep(time.Duration) {}

func TestLoopbackRoundTrip(t *testing.T) {
	e := ctlbus.New(loopback())
	e.Sleep = noSleep
	pattern := []byte{0xA5, 0x3C, 0xF0, 0x99}
	for n := uint16(1); n <= 32; n++ {
		nbytes := (int(n) + 7) / 8
		want := make([]byte, nbytes)
		copy(want, pattern)
		if rem := n % 8; rem != 0 {
			want[nbytes-1] &= byte(0xFF << (8 - rem))
		}
		got := make([]byte, nbytes)
		require.NoError(t, e.Transfer(0x02, n, pattern, n, got), "n=%d", n)
		assert.Equal(t, want, got, "n=%d", n)
	}
}

func TestPackLeftAligns(t *testing.T) {
	if got := ctlbus.Pack(16, []byte{0x82, 0x05}); got != 0x82050000 {
		t.Errorf("expected %08x got %08x", 0x82050000, got)
	}
	if got := ctlbus.Pack(12, []byte{0xAB, 0xCD}); got != 0xABC00000 {
		t.Errorf("expected %08x got %08x", 0xABC00000, got)
	}
	if got := ctlbus.Pack(0, nil); got != 0 {
		t.Errorf("expected 0 got %08x", got)
	}
}

func TestUnpackRightAlignedSource(t *testing.T) {
	dst := make([]byte, 1)
	ctlbus.Unpack(0x5A, 8, dst)
	assert.Equal(t, byte(0x5A), dst[0])

	dst = make([]byte, 2)
	ctlbus.Unpack(0x0ABC, 12, dst)
	assert.Equal(t, []byte{0xAB, 0xC0}, dst)
}

func TestTransferRegisterSequence(t *testing.T) {
	m := loopback()
	e := ctlbus.New(m)
	e.Sleep = noSleep
	require.NoError(t, e.Transfer(0x1E, 16, []byte{0xA1, 0x03}, 0, nil))

	var offs []uint32
	for _, w := range m.Writes() {
		offs = append(offs, w.Offset)
	}
	assert.Equal(t, []uint32{ctlbus.RegChipSelect, ctlbus.RegWriteBits, ctlbus.RegReadBits, ctlbus.RegWriteData}, offs)
	assert.Equal(t, []uint32{0x1E}, m.WritesTo(ctlbus.RegChipSelect))
	assert.Equal(t, []uint32{0xA1030000}, m.WritesTo(ctlbus.RegWriteData))
	assert.Equal(t, ctlbus.Stats{Transfers: 1}, e.Stats())
}

func TestBusyBusIsResetAndTransferProceeds(t *testing.T) {
	m := mmio.NewMock()
	m.Set(ctlbus.RegStatus, 0)
	var sleeps []time.Duration
	var logged []string
	e := ctlbus.New(m)
	e.Sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	e.Log = func(format string, params ...interface{}) { logged = append(logged, fmt.Sprintf(format, params...)) }

	require.NoError(t, e.Transfer(0x1E, 16, []byte{0xA2, 0x4D}, 0, nil))
	assert.Equal(t, ctlbus.ReadyTries, m.Reads(ctlbus.RegStatus))
	assert.Len(t, sleeps, ctlbus.ReadyTries-1)
	assert.Equal(t, []uint32{ctlbus.StatusReset}, m.WritesTo(ctlbus.RegStatus))
	assert.Equal(t, []uint32{0xA24D0000}, m.WritesTo(ctlbus.RegWriteData))
	assert.Len(t, logged, 1)
	assert.Equal(t, uint64(1), e.Stats().Resets)
}

func TestReadTimeoutLeavesBufferUntouched(t *testing.T) {
	m := mmio.NewMock()
	ready := true
	m.OnRead(ctlbus.RegStatus, func() uint32 {
		if ready {
			return ctlbus.StatusReady
		}
		return 0
	})
	m.OnWrite(ctlbus.RegChipSelect, func(uint32) { ready = false })
	m.Set(ctlbus.RegReadData, 0x12)

	e := ctlbus.New(m)
	e.Sleep = noSleep
	r := []byte{0xEE}
	err := e.Transfer(0x02, 8, []byte{0x01}, 8, r)
	assert.True(t, errors.Is(err, ctlbus.ErrTimeout))
	assert.Equal(t, byte(0xEE), r[0])
	assert.Equal(t, 0, m.Reads(ctlbus.RegReadData))
	assert.Equal(t, uint64(1), e.Stats().Timeouts)
}

func TestBitCountLimit(t *testing.T) {
	m := loopback()
	e := ctlbus.New(m)
	err := e.Transfer(0x02, 33, make([]byte, 5), 0, nil)
	assert.True(t, errors.Is(err, ctlbus.ErrBitCount))
	err = e.Transfer(0x02, 8, []byte{1}, 40, make([]byte, 5))
	assert.True(t, errors.Is(err, ctlbus.ErrBitCount))
	assert.Empty(t, m.Writes())
}

func TestShortBuffer(t *testing.T) {
	e := ctlbus.New(loopback())
	err := e.Transfer(0x02, 16, []byte{1}, 0, nil)
	assert.True(t, errors.Is(err, ctlbus.ErrShortBuffer))
}

func TestConnIsHalfDuplexSPI(t *testing.T) {
	e := ctlbus.New(loopback())
	e.Sleep = noSleep
	var c spi.Conn = e.Conn(0x02)
	assert.Equal(t, conn.Half, c.Duplex())
	assert.Equal(t, "seraph-ctlbus/cs0x02", c.String())

	r := make([]byte, 2)
	require.NoError(t, c.Tx([]byte{0x12, 0x34}, r))
	assert.Equal(t, []byte{0x12, 0x34}, r)

	assert.True(t, errors.Is(c.Tx(make([]byte, 5), nil), ctlbus.ErrBitCount))
}

func TestConnTxPacketsNarrowsLastByte(t *testing.T) {
	m := loopback()
	e := ctlbus.New(m)
	e.Sleep = noSleep
	c := e.Conn(0x1E)
	r := make([]byte, 1)
	err := c.TxPackets([]spi.Packet{
		{W: []byte{0xA1, 0x03}},
		{W: []byte{0xF0}, R: r, BitsPerWord: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, []uint32{16, 4}, m.WritesTo(ctlbus.RegWriteBits))
	assert.Equal(t, byte(0xF0), r[0])
}
