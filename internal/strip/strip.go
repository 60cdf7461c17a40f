// Package strip is the pixel output surface: a color buffer pushed to an
// addressable LED driver one frame at a time.
package strip

import (
	"fmt"
	"sync"

	"neopixel-controller/internal/palette"
)

// Driver pushes a frame of raw RGB bytes (3 per LED) to the hardware.
type Driver interface {
	Write(pixels []byte) (int, error)
	Halt() error
}

// Strip buffers pixel colors and writes them to a Driver on Show.
// It is safe for concurrent use, though the scheduler only lets one writer at a time.
type Strip struct {
	mu     sync.Mutex
	driver Driver
	buf    []palette.RGB
	raw    []byte
	frames uint64
}

// New creates a Strip of n LEDs backed by d.
func New(d Driver, n int) *Strip {
	return &Strip{
		driver: d,
		buf:    make([]palette.RGB, n),
		raw:    make([]byte, 3*n),
	}
}

// Len returns the number of LEDs.
func (s *Strip) Len() int {
	return len(s.buf)
}

// Set changes one pixel in the buffer. Out-of-range indices are ignored.
func (s *Strip) Set(i int, c palette.RGB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= 0 && i < len(s.buf) {
		s.buf[i] = c
	}
}

// At returns the buffered color of pixel i.
func (s *Strip) At(i int) palette.RGB {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.buf) {
		return palette.Black
	}
	return s.buf[i]
}

// Fill sets every pixel in the buffer to c.
func (s *Strip) Fill(c palette.RGB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.buf {
		s.buf[i] = c
	}
}

// Clear blanks the buffer without writing it.
func (s *Strip) Clear() {
	s.Fill(palette.Black)
}

// Show writes the buffer to the driver as one frame.
func (s *Strip) Show() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.buf {
		s.raw[3*i] = c.R
		s.raw[3*i+1] = c.G
		s.raw[3*i+2] = c.B
	}
	if _, err := s.driver.Write(s.raw); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	s.frames++
	return nil
}

// Frames returns the number of frames written so far.
func (s *Strip) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Snapshot returns a copy of the buffered pixels.
func (s *Strip) Snapshot() []palette.RGB {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]palette.RGB, len(s.buf))
	copy(out, s.buf)
	return out
}

// Close blanks the LEDs and releases the driver.
func (s *Strip) Close() error {
	return s.driver.Halt()
}
