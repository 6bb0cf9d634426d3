// Package control performs estimate/set/shift operations on a display
// selection by combining the gamma model with a display sink.
package control

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/gammad/internal/display"
	"github.com/dokzlo13/gammad/internal/gamma"
)

// ScreenSetting is a setting observed on or applied to one screen.
type ScreenSetting struct {
	Screen int
	gamma.Setting
}

// Controller reads and writes ramps for the selected outputs.
type Controller struct {
	sink display.Sink
	sel  display.Selection
}

// New creates a controller over a selection.
func New(sink display.Sink, sel display.Selection) *Controller {
	return &Controller{sink: sink, sel: sel}
}

// Screens returns the selected screen indexes.
func (c *Controller) Screens() ([]int, error) {
	return c.sel.Screens(c.sink)
}

// Estimate reads the top sample of every selected CRTC on a screen and
// inverts the gamma model over their sum.
//
// This assumes the ramps were produced by the same model; it is not a
// general color temperature sensor.
func (c *Controller) Estimate(screen int) (gamma.Setting, error) {
	outs, err := c.sel.Outputs(c.sink, screen)
	if err != nil {
		return gamma.Setting{}, err
	}

	var red, green, blue float64
	for _, out := range outs {
		ramp, err := c.sink.ReadRamp(out)
		if err != nil {
			return gamma.Setting{}, err
		}
		r, g, b := ramp.Top()
		red += float64(r)
		green += float64(g)
		blue += float64(b)
	}

	setting := gamma.Inverse(red, green, blue, len(outs))

	log.Debug().
		Int("screen", screen).
		Int("crtcs", len(outs)).
		Float64("red", red).
		Float64("green", green).
		Float64("blue", blue).
		Int("temperature", setting.Temperature).
		Float64("brightness", setting.Brightness).
		Msg("Estimated gamma")

	return setting, nil
}

// EstimateAll estimates every selected screen.
func (c *Controller) EstimateAll() ([]ScreenSetting, error) {
	screens, err := c.Screens()
	if err != nil {
		return nil, err
	}

	result := make([]ScreenSetting, 0, len(screens))
	for _, screen := range screens {
		setting, err := c.Estimate(screen)
		if err != nil {
			return nil, err
		}
		result = append(result, ScreenSetting{Screen: screen, Setting: setting})
	}
	return result, nil
}

// ApplyScreen writes a setting to every selected CRTC of a screen, sizing
// each ramp for the CRTC's reported ramp size.
func (c *Controller) ApplyScreen(screen int, setting gamma.Setting) error {
	outs, err := c.sel.Outputs(c.sink, screen)
	if err != nil {
		return err
	}

	scales := gamma.Forward(setting.Temperature)
	log.Debug().
		Int("screen", screen).
		Int("temperature", setting.Temperature).
		Float64("red", scales.R).
		Float64("green", scales.G).
		Float64("blue", scales.B).
		Float64("brightness", setting.Brightness).
		Msg("Applying gamma")

	for _, out := range outs {
		size, err := c.sink.RampSize(out)
		if err != nil {
			return err
		}
		if size <= 0 {
			log.Debug().Stringer("output", out).Msg("Output has no gamma ramp, skipping")
			continue
		}
		if err := c.sink.WriteRamp(out, gamma.Synthesize(scales, setting.Brightness, size)); err != nil {
			return err
		}
	}
	return nil
}

// Apply writes a setting to every selected screen.
func (c *Controller) Apply(setting gamma.Setting) error {
	screens, err := c.Screens()
	if err != nil {
		return err
	}
	for _, screen := range screens {
		if err := c.ApplyScreen(screen, setting); err != nil {
			return err
		}
	}
	return nil
}

// Set applies an absolute temperature to every selected screen.
// A temperature of 0 resets to neutral; temperatures below the model's
// lower bound are clamped with a warning.
func (c *Controller) Set(temperature int, brightness float64) (gamma.Setting, error) {
	if temperature == 0 {
		temperature = gamma.TemperatureNorm
	}
	setting := gamma.Setting{
		Temperature: ClampTemperature(temperature),
		Brightness:  gamma.Clamp(brightness, 0.0, 1.0),
	}

	if err := c.Apply(setting); err != nil {
		return gamma.Setting{}, fmt.Errorf("failed to apply %dK: %w", setting.Temperature, err)
	}
	return setting, nil
}

// Shift moves each selected screen's estimated temperature by delta.
// A negative brightness keeps each screen's estimated brightness.
func (c *Controller) Shift(delta int, brightness float64) ([]ScreenSetting, error) {
	screens, err := c.Screens()
	if err != nil {
		return nil, err
	}

	result := make([]ScreenSetting, 0, len(screens))
	for _, screen := range screens {
		current, err := c.Estimate(screen)
		if err != nil {
			return nil, err
		}

		next := gamma.Setting{
			Temperature: ClampTemperature(current.Temperature + delta),
			Brightness:  current.Brightness,
		}
		if brightness >= 0 {
			next.Brightness = gamma.Clamp(brightness, 0.0, 1.0)
		}

		if err := c.ApplyScreen(screen, next); err != nil {
			return nil, fmt.Errorf("failed to shift screen %d: %w", screen, err)
		}
		result = append(result, ScreenSetting{Screen: screen, Setting: next})
	}
	return result, nil
}

// ClampTemperature raises temperatures below the displayable minimum to it,
// logging a warning when it does.
func ClampTemperature(temperature int) int {
	if temperature < gamma.TemperatureZero {
		log.Warn().
			Int("requested", temperature).
			Int("applied", gamma.TemperatureZero).
			Msgf("Temperatures below %d cannot be displayed", gamma.TemperatureZero)
		return gamma.TemperatureZero
	}
	return temperature
}
