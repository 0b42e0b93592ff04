package matrix

import "sync"

// Driver abstracts an LED matrix output sink.
type Driver interface {
	// Write pushes an RGB frame in strip order. len(rgb) must be 3*N.
	Write(rgb []byte) error
	// Close releases resources.
	Close() error
}

// Sim is an in-memory driver that records frames. It backs headless runs
// and tests.
type Sim struct {
	mu     sync.Mutex
	pixels int
	frames int
	last   []byte
}

// NewSim returns a Sim driver for the given pixel count.
func NewSim(pixels int) *Sim {
	return &Sim{pixels: pixels}
}

func (s *Sim) Write(rgb []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	s.last = append(s.last[:0], rgb...)
	return nil
}

func (s *Sim) Close() error { return nil }

// Frames reports how many frames have been written.
func (s *Sim) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Last returns a copy of the most recent frame, or nil if none was written.
func (s *Sim) Last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	out := make([]byte, len(s.last))
	copy(out, s.last)
	return out
}
