package control

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokzlo13/gammad/internal/display"
	"github.com/dokzlo13/gammad/internal/gamma"
)

// captureLog redirects the global logger into a buffer for the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestSet_ZeroResetsToNeutral(t *testing.T) {
	sink := display.NewMemorySink(2, 2, 1024)
	c := New(sink, display.All())

	_, err := c.Set(3000, 1.0)
	require.NoError(t, err)

	applied, err := c.Set(0, 1.0)
	require.NoError(t, err)
	assert.Equal(t, gamma.TemperatureNorm, applied.Temperature)

	estimates, err := c.EstimateAll()
	require.NoError(t, err)
	require.Len(t, estimates, 2)
	for _, e := range estimates {
		assert.InDelta(t, gamma.TemperatureNorm, e.Temperature, 1)
		assert.InDelta(t, 1.0, e.Brightness, 0.01)
	}
	assert.Equal(t, 8, sink.Writes())
}

func TestSet_BelowZeroClampsWithWarning(t *testing.T) {
	buf := captureLog(t)
	sink := display.NewMemorySink(1, 1, 1024)
	c := New(sink, display.All())

	applied, err := c.Set(200, 1.0)
	require.NoError(t, err)

	assert.Equal(t, gamma.TemperatureZero, applied.Temperature)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "cannot be displayed")

	outs, err := sink.Outputs(0)
	require.NoError(t, err)
	ramp, err := sink.ReadRamp(outs[0])
	require.NoError(t, err)
	assert.Equal(t, gamma.Build(gamma.Setting{Temperature: 700, Brightness: 1}, 1024), ramp)
}

func TestSet_ClampsBrightness(t *testing.T) {
	c := New(display.NewMemorySink(1, 1, 256), display.All())

	applied, err := c.Set(5000, 3.0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, applied.Brightness)
}

func TestEstimate_MatchesApplied(t *testing.T) {
	sink := display.NewMemorySink(1, 3, 1024)
	c := New(sink, display.All())

	_, err := c.Set(4500, 0.6)
	require.NoError(t, err)

	got, err := c.Estimate(0)
	require.NoError(t, err)
	assert.InDelta(t, 4500, got.Temperature, 1)
	assert.InDelta(t, 0.6, got.Brightness, 0.01)
}

func TestApply_SingleCRTC(t *testing.T) {
	sink := display.NewMemorySink(1, 2, 256)
	c := New(sink, display.Selection{Screen: 0, CRTC: 1})

	_, err := c.Set(2500, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 1, sink.Writes())

	untouched := New(sink, display.Selection{Screen: 0, CRTC: 0})
	got, err := untouched.Estimate(0)
	require.NoError(t, err)
	assert.InDelta(t, gamma.TemperatureNorm, got.Temperature, 1)
}

func TestShift(t *testing.T) {
	sink := display.NewMemorySink(2, 1, 1024)
	c := New(sink, display.All())

	_, err := c.Set(4000, 0.7)
	require.NoError(t, err)

	shifted, err := c.Shift(-500, -1)
	require.NoError(t, err)
	require.Len(t, shifted, 2)
	for _, s := range shifted {
		assert.InDelta(t, 3500, s.Temperature, 1)
		assert.InDelta(t, 0.7, s.Brightness, 0.01)
	}

	shifted, err = c.Shift(100, 0.4)
	require.NoError(t, err)
	assert.InDelta(t, 3600, shifted[0].Temperature, 2)
	assert.Equal(t, 0.4, shifted[0].Brightness)
}

func TestShift_ClampsBelowZero(t *testing.T) {
	captureLog(t)
	c := New(display.NewMemorySink(1, 1, 1024), display.All())

	shifted, err := c.Shift(-100000, -1)
	require.NoError(t, err)
	assert.Equal(t, gamma.TemperatureZero, shifted[0].Temperature)
}

func TestInvalidScreen_NoMutation(t *testing.T) {
	sink := display.NewMemorySink(1, 1, 256)
	c := New(sink, display.Selection{Screen: 5, CRTC: -1})

	_, err := c.Set(3000, 1.0)
	assert.ErrorIs(t, err, display.ErrInvalidScreen)

	_, err = c.Shift(100, -1)
	assert.ErrorIs(t, err, display.ErrInvalidScreen)

	assert.Zero(t, sink.Writes())
}
