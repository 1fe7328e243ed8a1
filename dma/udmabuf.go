package dma

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

const pageSize = 4096

// SysfsUDMABuf is where u-dma-buf publishes buffer attributes
const SysfsUDMABuf = "/sys/class/u-dma-buf"

// UDMABuf allocates from a buffer reserved at module load time by the
// u-dma-buf driver (e.g. modprobe u-dma-buf udmabuf0=1048576).
// The reserved region is handed out whole; one Alloc per device node
type UDMABuf struct {
	// Name is the buffer name, e.g. udmabuf0
	Name string

	// DevDir and SysDir default to /dev and SysfsUDMABuf
	DevDir string
	SysDir string
}

type udmaBuffer struct {
	mem  []byte
	addr uint64
}

func (u *udmaBuffer) Bytes() []byte   { return u.mem }
func (u *udmaBuffer) BusAddr() uint64 { return u.addr }
func (u *udmaBuffer) Close() error {
	if u.mem == nil {
		return nil
	}
	err := unix.Munmap(u.mem)
	u.mem = nil
	return err
}

func (a UDMABuf) attr(name string) (uint64, error) {
	dir := a.SysDir
	if dir == "" {
		dir = SysfsUDMABuf
	}
	b, err := os.ReadFile(filepath.Join(dir, a.Name, name))
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(b)), 0, 64)
}

// Available returns the size in bytes and bus address of the reserved region
func (a UDMABuf) Available() (size int, addr uint64, err error) {
	sz, err := a.attr("size")
	if err != nil {
		return 0, 0, err
	}
	addr, err = a.attr("phys_addr")
	if err != nil {
		return 0, 0, err
	}
	return int(sz), addr, nil
}

// Alloc maps size bytes of the reserved region.  The mapping is opened
// O_SYNC so CPU accesses are uncached
func (a UDMABuf) Alloc(size int) (Buffer, error) {
	avail, addr, err := a.Available()
	if err != nil {
		return nil, fmt.Errorf("u-dma-buf %s: %w", a.Name, err)
	}
	if size > avail {
		return nil, fmt.Errorf("u-dma-buf %s holds %d bytes, %d requested: %w", a.Name, avail, size, ErrTooLarge)
	}
	dev := a.DevDir
	if dev == "" {
		dev = "/dev"
	}
	path := filepath.Join(dev, a.Name)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer unix.Close(fd)
	mapped := (size + pageSize - 1) &^ (pageSize - 1)
	mem, err := unix.Mmap(fd, 0, mapped, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &udmaBuffer{mem: mem[:size], addr: addr}, nil
}
