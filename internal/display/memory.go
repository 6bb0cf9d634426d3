package display

import (
	"fmt"
	"sync"

	"github.com/dokzlo13/gammad/internal/gamma"
)

// MemorySink keeps ramps in memory. It backs tests and dry runs.
type MemorySink struct {
	mu     sync.Mutex
	ramps  [][]gamma.Ramp // [screen][crtc]
	writes int
}

// NewMemorySink creates a sink with the given layout. Every CRTC starts
// with a neutral full-brightness ramp of rampSize samples.
func NewMemorySink(screens, crtcs, rampSize int) *MemorySink {
	s := &MemorySink{ramps: make([][]gamma.Ramp, screens)}
	neutral := gamma.Neutral()
	for i := range s.ramps {
		s.ramps[i] = make([]gamma.Ramp, crtcs)
		for j := range s.ramps[i] {
			s.ramps[i][j] = gamma.Build(neutral, rampSize)
		}
	}
	return s
}

// ScreenCount returns the number of screens.
func (s *MemorySink) ScreenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ramps)
}

// Outputs lists the CRTCs of a screen.
func (s *MemorySink) Outputs(screen int) ([]Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if screen < 0 || screen >= len(s.ramps) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidScreen, screen)
	}

	outs := make([]Output, len(s.ramps[screen]))
	for i := range outs {
		outs[i] = Output{Screen: screen, Index: i, ID: uint32(screen<<16 | i)}
	}
	return outs, nil
}

// ReadRamp returns a copy of the stored ramp.
func (s *MemorySink) ReadRamp(out Output) (gamma.Ramp, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.lookup(out)
	if err != nil {
		return gamma.Ramp{}, err
	}
	return copyRamp(*r), nil
}

// RampSize returns the stored ramp size.
func (s *MemorySink) RampSize(out Output) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.lookup(out)
	if err != nil {
		return 0, err
	}
	return r.Size(), nil
}

// WriteRamp stores a copy of the ramp.
func (s *MemorySink) WriteRamp(out Output, ramp gamma.Ramp) error {
	if err := ramp.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.lookup(out)
	if err != nil {
		return err
	}
	if ramp.Size() != r.Size() {
		return fmt.Errorf("ramp size %d does not match %s size %d", ramp.Size(), out, r.Size())
	}
	*r = copyRamp(ramp)
	s.writes++
	return nil
}

// Writes returns the number of successful WriteRamp calls.
func (s *MemorySink) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Close is a no-op.
func (s *MemorySink) Close() error {
	return nil
}

func (s *MemorySink) lookup(out Output) (*gamma.Ramp, error) {
	if out.Screen < 0 || out.Screen >= len(s.ramps) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidScreen, out.Screen)
	}
	if out.Index < 0 || out.Index >= len(s.ramps[out.Screen]) {
		return nil, fmt.Errorf("unknown %s", out)
	}
	return &s.ramps[out.Screen][out.Index], nil
}

func copyRamp(r gamma.Ramp) gamma.Ramp {
	return gamma.Ramp{
		Red:   append([]uint16(nil), r.Red...),
		Green: append([]uint16(nil), r.Green...),
		Blue:  append([]uint16(nil), r.Blue...),
	}
}
