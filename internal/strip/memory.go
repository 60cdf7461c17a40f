package strip

import "sync"

// MemoryDriver keeps the last written frame in memory. It backs the "none"
// driver and the tests.
type MemoryDriver struct {
	mu     sync.Mutex
	last   []byte
	writes int
	halted bool

	// OnWrite, if set, is called with a copy of every frame.
	OnWrite func(frame []byte)
}

// NewMemoryDriver creates an empty MemoryDriver.
func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{}
}

func (m *MemoryDriver) Write(pixels []byte) (int, error) {
	frame := make([]byte, len(pixels))
	copy(frame, pixels)

	m.mu.Lock()
	m.last = frame
	m.writes++
	hook := m.OnWrite
	m.mu.Unlock()

	if hook != nil {
		hook(frame)
	}
	return len(pixels), nil
}

func (m *MemoryDriver) Halt() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.halted = true
	return nil
}

// Last returns the most recent frame.
func (m *MemoryDriver) Last() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Writes returns how many frames were written.
func (m *MemoryDriver) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
