// Package dma provides physically contiguous, device visible memory
// for bus mastering cards.
//
// A Buffer is mapped into the process and also has a bus address the
// card can be programmed with.  Two allocators are provided: UDMABuf,
// backed by the u-dma-buf kernel module, and Heap, ordinary memory with
// synthetic bus addresses for simulation and tests.
package dma

import (
	"errors"
	"io"
)

// ErrTooLarge is generated when an allocator cannot satisfy a request
var ErrTooLarge = errors.New("requested DMA buffer exceeds available contiguous memory")

// Buffer is a region of DMA capable memory
type Buffer interface {
	io.Closer

	// Bytes is the CPU view of the buffer
	Bytes() []byte

	// BusAddr is the address the device uses to reach Bytes()[0]
	BusAddr() uint64
}

// Allocator hands out DMA buffers
type Allocator interface {
	Alloc(size int) (Buffer, error)
}

// Zero clears a buffer.  Writing silence into an audio buffer is this
func Zero(b Buffer) {
	buf := b.Bytes()
	for i := range buf {
		buf[i] = 0
	}
}
