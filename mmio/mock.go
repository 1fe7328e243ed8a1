package mmio

import "sync"

// Write is one recorded register write
type Write struct {
	Offset uint32
	Value  uint32
}

// Mock is an in-memory register file.  Unhooked registers read back the
// last value written.  Hooks emulate device side behavior such as status
// bits or loopback data.  It is safe for concurrent use, and hooks are
// called without the internal lock held so they may use the Mock
type Mock struct {
	mu         sync.Mutex
	regs       map[uint32]uint32
	readHooks  map[uint32]func() uint32
	writeHooks map[uint32]func(uint32)
	writes     []Write
	reads      map[uint32]int
}

// NewMock returns an empty register file
func NewMock() *Mock {
	return &Mock{
		regs:       make(map[uint32]uint32),
		readHooks:  make(map[uint32]func() uint32),
		writeHooks: make(map[uint32]func(uint32)),
		reads:      make(map[uint32]int),
	}
}

// Read32 returns the hooked or stored value of a register
func (m *Mock) Read32(offset uint32) uint32 {
	m.mu.Lock()
	m.reads[offset]++
	hook := m.readHooks[offset]
	v := m.regs[offset]
	m.mu.Unlock()
	if hook != nil {
		return hook()
	}
	return v
}

// Write32 stores and records a write, then runs the write hook
func (m *Mock) Write32(offset uint32, value uint32) {
	m.mu.Lock()
	m.regs[offset] = value
	m.writes = append(m.writes, Write{Offset: offset, Value: value})
	hook := m.writeHooks[offset]
	m.mu.Unlock()
	if hook != nil {
		hook(value)
	}
}

// Set stores a value without recording a write, as the device would
func (m *Mock) Set(offset, value uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs[offset] = value
}

// Get returns the stored value, bypassing hooks
func (m *Mock) Get(offset uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regs[offset]
}

// OnRead installs fn as the source of reads at offset, nil removes it
func (m *Mock) OnRead(offset uint32, fn func() uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fn == nil {
		delete(m.readHooks, offset)
		return
	}
	m.readHooks[offset] = fn
}

// OnWrite installs fn to observe writes at offset, nil removes it
func (m *Mock) OnWrite(offset uint32, fn func(uint32)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fn == nil {
		delete(m.writeHooks, offset)
		return
	}
	m.writeHooks[offset] = fn
}

// Writes returns a copy of every write in order
func (m *Mock) Writes() []Write {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Write, len(m.writes))
	copy(out, m.writes)
	return out
}

// WritesTo returns the values written to one register in order
func (m *Mock) WritesTo(offset uint32) []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []uint32
	for _, w := range m.writes {
		if w.Offset == offset {
			out = append(out, w.Value)
		}
	}
	return out
}

// Reads returns how many times a register has been read
func (m *Mock) Reads(offset uint32) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads[offset]
}

// ClearLog forgets recorded reads and writes but keeps register contents
func (m *Mock) ClearLog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = nil
	m.reads = make(map[uint32]int)
}
