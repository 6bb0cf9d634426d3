package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/gammad/internal/config"
	"github.com/dokzlo13/gammad/internal/control"
	"github.com/dokzlo13/gammad/internal/display"
	"github.com/dokzlo13/gammad/internal/flux"
	"github.com/dokzlo13/gammad/internal/gamma"
	"github.com/dokzlo13/gammad/internal/ledger"
)

// ErrHistoryDisabled is returned by History without a configured database.
var ErrHistoryDisabled = errors.New("history requires database.path to be configured")

// App is the main application container. It owns the display sink and the
// optional services, and implements each run mode.
type App struct {
	cfg      *config.Config
	sink     display.Sink
	ctrl     *control.Controller
	services *Services
	runID    string

	// appended to the scheduler options, used by tests
	fluxOpts []flux.Option
}

// New creates an App over an open sink. The app takes ownership of the sink.
func New(cfg *config.Config, sink display.Sink, sel display.Selection) (*App, error) {
	services, err := NewServices(cfg)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		sink:     sink,
		ctrl:     control.New(sink, sel),
		services: services,
		runID:    uuid.NewString(),
	}, nil
}

// RunID identifies this process in history entries and published state.
func (a *App) RunID() string {
	return a.runID
}

// Report prints the estimated temperature and brightness of every selected screen.
func (a *App) Report(w io.Writer) error {
	estimates, err := a.ctrl.EstimateAll()
	if err != nil {
		return err
	}
	for _, e := range estimates {
		fmt.Fprintf(w, "Screen %d: temperature ~ %d %f\n", e.Screen, e.Temperature, e.Brightness)
	}
	return nil
}

// Set applies an absolute temperature; 0 resets to neutral.
func (a *App) Set(temperature int, brightness float64) error {
	kind := ledger.KindSet
	if temperature == 0 {
		kind = ledger.KindReset
	}

	setting, err := a.ctrl.Set(temperature, brightness)
	if err != nil {
		return err
	}

	log.Debug().
		Int("temperature", setting.Temperature).
		Float64("brightness", setting.Brightness).
		Msg("Setting applied")

	screens, err := a.ctrl.Screens()
	if err != nil {
		return err
	}
	screen := ledger.AllScreens
	if len(screens) == 1 {
		screen = screens[0]
	}
	a.record(kind, screen, setting)
	return nil
}

// Shift moves each selected screen's estimate by delta. A negative
// brightness keeps each screen's current brightness.
func (a *App) Shift(delta int, brightness float64) error {
	applied, err := a.ctrl.Shift(delta, brightness)
	if err != nil {
		return err
	}
	for _, s := range applied {
		log.Debug().
			Int("screen", s.Screen).
			Int("temperature", s.Temperature).
			Float64("brightness", s.Brightness).
			Msg("Shift applied")
		a.record(ledger.KindShift, s.Screen, s.Setting)
	}
	return nil
}

// History prints the newest n history entries.
func (a *App) History(w io.Writer, n int) error {
	return PrintHistory(w, a.services.Ledger, n)
}

// PrintHistory prints the newest n entries of l, one per line.
func PrintHistory(w io.Writer, l *ledger.Ledger, n int) error {
	if l == nil {
		return ErrHistoryDisabled
	}
	entries, err := l.Recent(n)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	for _, e := range entries {
		screen := "all"
		if e.Screen != ledger.AllScreens {
			screen = strconv.Itoa(e.Screen)
		}
		line := fmt.Sprintf("%s  %-12s screen=%-3s %5dK  %.2f",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Kind, screen, e.Temperature, e.Brightness)
		if e.Phase != "" {
			line += fmt.Sprintf("  target=%dK phase=%s", e.Target, e.Phase)
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

// Flux estimates the first selected screen and runs the transition loop
// until ctx is cancelled.
func (a *App) Flux(ctx context.Context) error {
	screens, err := a.ctrl.Screens()
	if err != nil {
		return err
	}
	if len(screens) == 0 {
		return display.ErrNoOutputs
	}

	current, err := a.ctrl.Estimate(screens[0])
	if err != nil {
		return fmt.Errorf("failed to estimate screen %d: %w", screens[0], err)
	}

	svc, err := NewFluxService(a.cfg, a.services, a.ctrl, a.runID, a.fluxOpts...)
	if err != nil {
		return err
	}
	defer svc.Close()

	log.Info().
		Str("run_id", a.runID).
		Int("screen", screens[0]).
		Int("temperature", current.Temperature).
		Msg("Starting flux")

	return svc.Run(ctx, current.Temperature)
}

func (a *App) record(kind ledger.Kind, screen int, setting gamma.Setting) {
	if a.services.Ledger == nil {
		return
	}
	err := a.services.Ledger.Append(ledger.Entry{
		RunID:       a.runID,
		Kind:        kind,
		Screen:      screen,
		Temperature: setting.Temperature,
		Brightness:  setting.Brightness,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to record history")
	}
}

// Close releases the services and the display connection.
func (a *App) Close() error {
	if a.services != nil {
		a.services.Close()
	}
	if a.sink != nil {
		return a.sink.Close()
	}
	return nil
}

// SignalContext creates a context that is cancelled when SIGINT or SIGTERM is received.
func SignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	return ctx
}
