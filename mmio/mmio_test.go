package mmio_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasa-jpl/seraph/mmio"
)

func TestMockReadsBackWrites(t *testing.T) {
	m := mmio.NewMock()
	m.Write32(0x88, 0xDEADBEEF)
	assert.Equal(t, uint32(0xDEADBEEF), m.Read32(0x88))
	assert.Equal(t, []mmio.Write{{Offset: 0x88, Value: 0xDEADBEEF}}, m.Writes())
	assert.Equal(t, 1, m.Reads(0x88))
}

func TestMockHooks(t *testing.T) {
	m := mmio.NewMock()
	var seen []uint32
	m.OnWrite(0x6C, func(v uint32) {
		seen = append(seen, v)
		m.Set(0x74, v>>24)
	})
	m.OnRead(0x70, func() uint32 { return 0x80000000 })

	m.Write32(0x6C, 0xAB000000)
	assert.Equal(t, []uint32{0xAB000000}, seen)
	assert.Equal(t, uint32(0xAB), m.Read32(0x74))
	assert.Equal(t, uint32(0x80000000), m.Read32(0x70))

	m.OnRead(0x70, nil)
	assert.Equal(t, uint32(0), m.Read32(0x70))
}

func TestMockClearLog(t *testing.T) {
	m := mmio.NewMock()
	m.Write32(0x10, 128)
	m.Read32(0x10)
	m.ClearLog()
	assert.Empty(t, m.Writes())
	assert.Equal(t, 0, m.Reads(0x10))
	assert.Equal(t, uint32(128), m.Get(0x10))
}

func TestWritesTo(t *testing.T) {
	m := mmio.NewMock()
	m.Write32(0x80, 3)
	m.Write32(0x8C, 1)
	m.Write32(0x80, 3)
	assert.Equal(t, []uint32{3, 3}, m.WritesTo(0x80))
	assert.Equal(t, []uint32{1}, m.WritesTo(0x8C))
	assert.Nil(t, m.WritesTo(0x84))
}

func TestLogged(t *testing.T) {
	m := mmio.NewMock()
	var lines []string
	l := mmio.Logged{Registers: m, Log: func(format string, params ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, params...))
	}}
	l.Write32(0xAC, 2)
	v := l.Read32(0xAC)
	assert.Equal(t, uint32(2), v)
	assert.Equal(t, []string{"WR 0x0AC <- 00000002", "RD 0x0AC: 00000002"}, lines)
}

func writeFn(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func fakeFunction(t *testing.T, root, addr, vendor, device, resource string) {
	t.Helper()
	dir := filepath.Join(root, addr)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	writeFn(t, filepath.Join(dir, "vendor"), vendor+"\n")
	writeFn(t, filepath.Join(dir, "device"), device+"\n")
	writeFn(t, filepath.Join(dir, "resource"), resource)
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	fakeFunction(t, root, "0000:04:00.0", "0x1382", "0x5020",
		"0x00000000fb000000 0x00000000fb000fff 0x0000000000040200\n0x0 0x0 0x0\n")
	fakeFunction(t, root, "0000:03:00.0", "0x1382", "0x4980",
		"0x00000000fa000000 0x00000000fa000fff 0x0000000000040200\n")
	fakeFunction(t, root, "0000:00:1f.0", "0x8086", "0xa308",
		"0x0 0x0 0x0\n")

	devs, err := mmio.Scan(root, 0x1382)
	require.NoError(t, err)
	require.Len(t, devs, 2)
	assert.Equal(t, "0000:03:00.0", devs[0].Addr)
	assert.Equal(t, uint16(0x4980), devs[0].Device)
	assert.Equal(t, uint16(0x5020), devs[1].Device)
	assert.Equal(t, uint64(0xfb000000), devs[1].BAR0)
	assert.Equal(t, uint64(0x1000), devs[1].BAR0Len)
	assert.Equal(t, filepath.Join(root, "0000:04:00.0", "resource0"), devs[1].Resource(0))
	assert.Equal(t, "0000:04:00.0 [1382:5020]", devs[1].String())
}

func TestScanMissingRoot(t *testing.T) {
	_, err := mmio.Scan(filepath.Join(t.TempDir(), "nope"), 0x1382)
	assert.Error(t, err)
}
