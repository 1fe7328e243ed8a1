package mmio

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrEmptyWindow is generated when a resource file maps zero bytes
var ErrEmptyWindow = errors.New("register window has zero length")

// BAR is a memory-mapped PCI base address region.
// Accesses are 32-bit atomic loads and stores, so they are neither torn
// nor reordered relative to each other
type BAR struct {
	mem []byte
}

// OpenBAR maps a sysfs resource file such as
// /sys/bus/pci/devices/0000:03:00.0/resource0 for reading and writing
func OpenBAR(path string) (*BAR, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// the mapping outlives the descriptor
	defer unix.Close(fd)

	var st unix.Stat_t
	if err = unix.Fstat(fd, &st); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.Size == 0 {
		return nil, ErrEmptyWindow
	}
	mem, err := unix.Mmap(fd, 0, int(st.Size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &BAR{mem: mem}, nil
}

func (b *BAR) word(offset uint32) *uint32 {
	return (*uint32)(unsafe.Pointer(&b.mem[offset]))
}

// Read32 reads the register at offset
func (b *BAR) Read32(offset uint32) uint32 {
	return atomic.LoadUint32(b.word(offset))
}

// Write32 writes the register at offset
func (b *BAR) Write32(offset uint32, value uint32) {
	atomic.StoreUint32(b.word(offset), value)
}

// Len is the size of the window in bytes
func (b *BAR) Len() int {
	return len(b.mem)
}

// Close unmaps the window.  The BAR must not be used afterwards
func (b *BAR) Close() error {
	if b.mem == nil {
		return nil
	}
	err := unix.Munmap(b.mem)
	b.mem = nil
	return err
}
