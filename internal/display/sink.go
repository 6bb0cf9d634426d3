// Package display abstracts the hardware that holds gamma ramps.
//
// A Sink exposes screens, each driving one or more CRTCs (outputs) with an
// independently settable ramp. The X11 RandR sink talks to a running X
// server; MemorySink keeps ramps in memory for tests.
package display

import (
	"errors"
	"fmt"

	"github.com/dokzlo13/gammad/internal/gamma"
)

var (
	// ErrInvalidScreen is returned when a selected screen index is out of range.
	ErrInvalidScreen = errors.New("invalid screen index")
	// ErrNoOutputs is returned when a selection resolves to no CRTCs.
	ErrNoOutputs = errors.New("no outputs selected")
)

// Output identifies a single CRTC on a screen.
type Output struct {
	Screen int
	Index  int    // zero-based CRTC index within the screen
	ID     uint32 // backend handle (RandR CRTC XID)
}

func (o Output) String() string {
	return fmt.Sprintf("screen %d crtc %d", o.Screen, o.Index)
}

// Sink reads and writes gamma ramps.
type Sink interface {
	// ScreenCount returns the number of screens.
	ScreenCount() int

	// Outputs lists the CRTCs of a screen in index order.
	Outputs(screen int) ([]Output, error)

	// ReadRamp returns the ramp currently applied to an output.
	ReadRamp(out Output) (gamma.Ramp, error)

	// RampSize returns the hardware ramp size of an output.
	RampSize(out Output) (int, error)

	// WriteRamp replaces the ramp of an output.
	WriteRamp(out Output, ramp gamma.Ramp) error

	// Close releases the connection.
	Close() error
}

// Selection restricts an operation to one screen and/or one CRTC.
// A negative value selects all.
type Selection struct {
	Screen int
	CRTC   int
}

// All selects every CRTC on every screen.
func All() Selection {
	return Selection{Screen: -1, CRTC: -1}
}

// Screens returns the screen indexes covered by the selection.
func (s Selection) Screens(sink Sink) ([]int, error) {
	count := sink.ScreenCount()
	if s.Screen >= count {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrInvalidScreen, s.Screen, count)
	}
	if s.Screen >= 0 {
		return []int{s.Screen}, nil
	}

	screens := make([]int, count)
	for i := range screens {
		screens[i] = i
	}
	return screens, nil
}

// Outputs returns the CRTCs of a screen covered by the selection.
// An out-of-range CRTC index falls back to every CRTC of the screen.
func (s Selection) Outputs(sink Sink, screen int) ([]Output, error) {
	outs, err := sink.Outputs(screen)
	if err != nil {
		return nil, err
	}
	if s.CRTC >= 0 && s.CRTC < len(outs) {
		return outs[s.CRTC : s.CRTC+1], nil
	}
	return outs, nil
}
