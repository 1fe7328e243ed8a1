package mmio

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// UIO is a userspace I/O interrupt source, /dev/uioN as created by
// uio_pci_generic.  Each Wait blocks until the next interrupt
type UIO struct {
	fd int
}

// OpenUIO opens a uio device node
func OpenUIO(path string) (*UIO, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &UIO{fd: fd}, nil
}

// Wait blocks until an interrupt arrives and returns the kernel's
// running interrupt count
func (u *UIO) Wait() (uint32, error) {
	var buf [4]byte
	n, err := unix.Read(u.fd, buf[:])
	if err != nil {
		return 0, err
	}
	if n != len(buf) {
		return 0, fmt.Errorf("short read from uio: %d bytes", n)
	}
	return binary.NativeEndian.Uint32(buf[:]), nil
}

// Enable re-arms the interrupt line after it has been serviced
func (u *UIO) Enable() error {
	var buf [4]byte
	binary.NativeEndian.PutUint32(buf[:], 1)
	_, err := unix.Write(u.fd, buf[:])
	return err
}

// Close releases the device node
func (u *UIO) Close() error {
	return unix.Close(u.fd)
}
