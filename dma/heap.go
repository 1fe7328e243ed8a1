package dma

import "sync"

// Heap allocates ordinary Go memory and assigns increasing, page aligned
// pseudo bus addresses starting at Base.  A device cannot reach these
// buffers; Heap exists for simulation and tests
type Heap struct {
	// Base is the first bus address handed out, 0 means 0x10000000
	Base uint64

	// Limit caps a single allocation, 0 means unlimited
	Limit int

	mu   sync.Mutex
	next uint64
}

type heapBuffer struct {
	mem  []byte
	addr uint64
}

func (h *heapBuffer) Bytes() []byte   { return h.mem }
func (h *heapBuffer) BusAddr() uint64 { return h.addr }
func (h *heapBuffer) Close() error {
	h.mem = nil
	return nil
}

// Alloc returns a zeroed buffer of size bytes
func (h *Heap) Alloc(size int) (Buffer, error) {
	if h.Limit > 0 && size > h.Limit {
		return nil, ErrTooLarge
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.next == 0 {
		h.next = h.Base
		if h.next == 0 {
			h.next = 0x10000000
		}
	}
	b := &heapBuffer{mem: make([]byte, size), addr: h.next}
	h.next += (uint64(size) + pageSize - 1) &^ (pageSize - 1)
	return b, nil
}
