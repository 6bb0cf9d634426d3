// Package gamma maps a color temperature and brightness to per-channel gamma
// ramps and back.
//
// The curves approximate the redshift color ramp table with a closed-form
// logarithmic fit, GAMMA = K0 + K1 * ln(T - T0), which makes the model
// invertible: a ramp produced by Forward + Synthesize can be read back and
// turned into an estimated temperature and brightness with Inverse.
package gamma

import "math"

const (
	// TemperatureNorm is the neutral temperature where the curve switches regimes.
	TemperatureNorm = 6500
	// TemperatureZero is the lowest temperature the model can express.
	TemperatureZero = 700

	// Multiplier is the maximum value of a 16-bit ramp sample.
	Multiplier = 65535.0
	// BrightnessDiv is the top ramp sample of an unscaled ramp, used to
	// recover brightness from a read-back ramp.
	BrightnessDiv = 65470.988
)

// Fit coefficients. Red range (T0 = TemperatureZero) scales green and blue,
// blue range (T0 = TemperatureNorm - TemperatureZero) scales red and green.
const (
	k0GR = -1.47751309139817
	k1GR = 0.28590164772055
	k0BR = -4.38321650114872
	k1BR = 0.6212158769447
	k0RB = 1.75390204039018
	k1RB = -0.1150805671482
	k0GB = 1.49221604915144
	k1GB = -0.07513509588921
)

// Setting is a color temperature in Kelvin with a brightness in [0,1].
type Setting struct {
	Temperature int     `json:"temperature"`
	Brightness  float64 `json:"brightness"`
}

// Neutral returns the unscaled 6500K setting at full brightness.
func Neutral() Setting {
	return Setting{Temperature: TemperatureNorm, Brightness: 1.0}
}

// Scales holds the per-channel gamma multipliers, each in [0,1].
type Scales struct {
	R float64
	G float64
	B float64
}

// Clamp returns lo if x <= lo, hi if x >= hi and x otherwise.
// NaN compares false everywhere and therefore yields lo.
func Clamp(x, lo, hi float64) float64 {
	bounds := [3]float64{lo, x, hi}
	return bounds[btoi(x > lo)+btoi(x > hi)]
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Forward computes the channel scales for a temperature.
// Brightness does not change the curve shape; it is applied by Synthesize.
func Forward(temperature int) Scales {
	t := float64(temperature)

	if temperature < TemperatureNorm {
		s := Scales{R: 1.0}
		if temperature > TemperatureZero {
			g := math.Log(t - TemperatureZero)
			s.G = Clamp(k0GR+k1GR*g, 0.0, 1.0)
			s.B = Clamp(k0BR+k1BR*g, 0.0, 1.0)
		}
		return s
	}

	g := math.Log(t - (TemperatureNorm - TemperatureZero))
	return Scales{
		R: Clamp(k0RB+k1RB*g, 0.0, 1.0),
		G: Clamp(k0GB+k1GB*g, 0.0, 1.0),
		B: 1.0,
	}
}

// Inverse estimates a setting from the top ramp samples of each channel,
// summed over count outputs.
//
// The result is only meaningful for ramps produced by Forward. Ramps written
// by unrelated tools may yield temperatures outside the model's domain; that
// is accepted rather than reported.
func Inverse(red, green, blue float64, count int) Setting {
	raw := math.Max(red, math.Max(green, blue))
	if raw <= 0 || count <= 0 {
		return Setting{Temperature: 0, Brightness: Clamp(raw, 0.0, 1.0)}
	}

	gr := red / raw
	gg := green / raw
	gb := blue / raw
	brightness := Clamp(raw/float64(count)/BrightnessDiv, 0.0, 1.0)

	var t float64
	delta := gb - gr
	switch {
	case delta < 0 && gb > 0:
		t = math.Exp((gg+1.0+delta-(k0GR+k0BR))/(k1GR+k1BR)) + TemperatureZero
	case delta < 0 && gg > 0:
		t = math.Exp((gg-k0GR)/k1GR) + TemperatureZero
	case delta < 0:
		t = TemperatureZero
	default:
		t = math.Exp((gg+1.0-delta-(k0GB+k0RB))/(k1GB+k1RB)) + (TemperatureNorm - TemperatureZero)
	}

	return Setting{Temperature: roundHalfUp(t), Brightness: brightness}
}

// roundHalfUp rounds to the nearest integer, saturating at the int32 range.
func roundHalfUp(x float64) int {
	r := math.Floor(x + 0.5)
	switch {
	case math.IsNaN(r):
		return 0
	case r > math.MaxInt32:
		return math.MaxInt32
	case r < math.MinInt32:
		return math.MinInt32
	}
	return int(r)
}
