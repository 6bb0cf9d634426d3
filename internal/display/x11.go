package display

import (
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/gammad/internal/gamma"
)

// X11Sink drives CRTC gamma through the RandR extension.
type X11Sink struct {
	conn  *xgb.Conn
	roots []xproto.Window
}

// OpenX11 connects to the X server named by display (empty uses $DISPLAY).
func OpenX11(display string) (*X11Sink, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("failed to open X display (is DISPLAY set?): %w", err)
	}

	if err := randr.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("RandR extension unavailable: %w", err)
	}

	setup := xproto.Setup(conn)
	roots := make([]xproto.Window, len(setup.Roots))
	for i, screen := range setup.Roots {
		roots[i] = screen.Root
	}

	log.Debug().Int("screens", len(roots)).Msg("Connected to X server")

	return &X11Sink{conn: conn, roots: roots}, nil
}

// ScreenCount returns the number of X screens.
func (s *X11Sink) ScreenCount() int {
	return len(s.roots)
}

// Outputs lists the CRTCs of a screen.
func (s *X11Sink) Outputs(screen int) ([]Output, error) {
	if screen < 0 || screen >= len(s.roots) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidScreen, screen)
	}

	res, err := randr.GetScreenResourcesCurrent(s.conn, s.roots[screen]).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources for screen %d: %w", screen, err)
	}

	outs := make([]Output, len(res.Crtcs))
	for i, crtc := range res.Crtcs {
		outs[i] = Output{Screen: screen, Index: i, ID: uint32(crtc)}
	}
	return outs, nil
}

// ReadRamp fetches the current ramp of a CRTC.
func (s *X11Sink) ReadRamp(out Output) (gamma.Ramp, error) {
	reply, err := randr.GetCrtcGamma(s.conn, randr.Crtc(out.ID)).Reply()
	if err != nil {
		return gamma.Ramp{}, fmt.Errorf("failed to read gamma of %s: %w", out, err)
	}
	return gamma.Ramp{Red: reply.Red, Green: reply.Green, Blue: reply.Blue}, nil
}

// RampSize returns the gamma ramp size of a CRTC.
func (s *X11Sink) RampSize(out Output) (int, error) {
	reply, err := randr.GetCrtcGammaSize(s.conn, randr.Crtc(out.ID)).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to read gamma size of %s: %w", out, err)
	}
	return int(reply.Size), nil
}

// WriteRamp replaces the ramp of a CRTC.
func (s *X11Sink) WriteRamp(out Output, ramp gamma.Ramp) error {
	if err := ramp.Validate(); err != nil {
		return err
	}

	err := randr.SetCrtcGammaChecked(s.conn, randr.Crtc(out.ID), uint16(ramp.Size()),
		ramp.Red, ramp.Green, ramp.Blue).Check()
	if err != nil {
		return fmt.Errorf("failed to set gamma of %s: %w", out, err)
	}
	return nil
}

// Close closes the X connection.
func (s *X11Sink) Close() error {
	s.conn.Close()
	return nil
}
