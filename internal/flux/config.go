// Package flux steps the display between a day and a night color
// temperature keyed to time-of-day boundaries.
package flux

import (
	"fmt"
	"time"
)

// Config is the immutable schedule for a run. Temperatures are already
// rounded to StepDistance granularity.
type Config struct {
	MinTemp        int
	MaxTemp        int
	Brightness     float64
	StepDistance   int
	StepInterval   time.Duration
	ReevalInterval time.Duration
	Window         Window
}

// NewConfig builds a Config, rounding the temperature bounds to the step
// granularity.
func NewConfig(minTemp, maxTemp int, brightness float64, stepDistance int,
	stepInterval, reevalInterval time.Duration, window Window) (Config, error) {
	if stepDistance <= 0 {
		return Config{}, fmt.Errorf("step distance must be greater than 0, got %d", stepDistance)
	}
	if window == nil {
		return Config{}, fmt.Errorf("day window is required")
	}

	return Config{
		MinTemp:        RoundToStep(minTemp, stepDistance),
		MaxTemp:        RoundToStep(maxTemp, stepDistance),
		Brightness:     brightness,
		StepDistance:   stepDistance,
		StepInterval:   stepInterval,
		ReevalInterval: reevalInterval,
		Window:         window,
	}, nil
}

// RoundToStep rounds v half-up to a multiple of step.
func RoundToStep(v, step int) int {
	return ((v + step/2) / step) * step
}

// ClockOf returns the time of day as hour*100+minute.
func ClockOf(t time.Time) int {
	return t.Hour()*100 + t.Minute()
}

// Window reports the morning and night boundaries (hour*100+minute) that
// apply on the day of now. Clock reads now in the same zone as the
// boundaries.
type Window interface {
	Bounds(now time.Time) (morning, night int)
	Clock(now time.Time) int
}

// FixedWindow uses the same boundaries every day. A nil Location reads the
// clock in now's own zone.
type FixedWindow struct {
	Morning  int
	Night    int
	Location *time.Location
}

// Bounds returns the fixed boundaries.
func (w FixedWindow) Bounds(time.Time) (int, int) {
	return w.Morning, w.Night
}

// Clock returns the time of day of now in the window's zone.
func (w FixedWindow) Clock(now time.Time) int {
	if w.Location != nil {
		now = now.In(w.Location)
	}
	return ClockOf(now)
}

// IsNight reports whether clock falls in the night side of the window.
// The night boundary itself belongs to the night.
func IsNight(clock, morning, night int) bool {
	return clock >= night || clock < morning
}
