package timeexpr

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/gammad/internal/geo"
)

// Fallback boundaries used when an astronomical event is missing for a day.
const (
	FallbackMorning = 1000
	FallbackNight   = 2200
)

// Window resolves morning and night expressions per day. It implements
// flux.Window.
type Window struct {
	morning *TimeExpr
	night   *TimeExpr
	geo     *geo.Calculator
	tz      *time.Location
}

// NewWindow creates a window. calc may be nil when both expressions are fixed.
func NewWindow(morning, night *TimeExpr, calc *geo.Calculator, tz *time.Location) (*Window, error) {
	if (!morning.IsFixed() || !night.IsFixed()) && calc == nil {
		return nil, fmt.Errorf("astronomical boundaries (%s, %s) require geo coordinates", morning, night)
	}
	if tz == nil {
		tz = time.Local
	}
	return &Window{morning: morning, night: night, geo: calc, tz: tz}, nil
}

// Bounds returns the boundaries for the day of now as hour*100+minute.
func (w *Window) Bounds(now time.Time) (int, int) {
	var astro *geo.AstroTimes
	if w.geo != nil && (!w.morning.IsFixed() || !w.night.IsFixed()) {
		astro = w.geo.GetTimes(now)
	}

	morning := w.resolve(w.morning, now, astro, FallbackMorning)
	night := w.resolve(w.night, now, astro, FallbackNight)

	if morning >= night {
		log.Warn().
			Str("morning", w.morning.String()).
			Str("night", w.night.String()).
			Int("morning_clock", morning).
			Int("night_clock", night).
			Msg("Resolved morning is not before night, using fallback window")
		return FallbackMorning, FallbackNight
	}
	return morning, night
}

// Clock returns the time of day of now in the window's timezone.
func (w *Window) Clock(now time.Time) int {
	local := now.In(w.tz)
	return local.Hour()*100 + local.Minute()
}

func (w *Window) resolve(expr *TimeExpr, now time.Time, astro *geo.AstroTimes, fallback int) int {
	if expr.IsFixed() {
		return expr.Clock()
	}

	t, ok := expr.Evaluate(now, astro, w.tz)
	if !ok {
		log.Warn().
			Str("expr", expr.String()).
			Int("fallback", fallback).
			Msg("Astronomical time does not occur today, using fallback")
		return fallback
	}

	local := t.In(w.tz)
	// Offsets can push the event into the neighbouring day
	switch event, today := dateKey(local), dateKey(now.In(w.tz)); {
	case event < today:
		return 0
	case event > today:
		return 2359
	}
	return local.Hour()*100 + local.Minute()
}

func dateKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}
