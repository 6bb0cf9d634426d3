package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokzlo13/gammad/internal/gamma"
)

func TestSelection_Screens(t *testing.T) {
	sink := NewMemorySink(3, 2, 16)

	screens, err := All().Screens(sink)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, screens)

	screens, err = Selection{Screen: 1, CRTC: -1}.Screens(sink)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, screens)

	_, err = Selection{Screen: 3, CRTC: -1}.Screens(sink)
	assert.ErrorIs(t, err, ErrInvalidScreen)
}

func TestSelection_Outputs(t *testing.T) {
	sink := NewMemorySink(1, 3, 16)

	outs, err := All().Outputs(sink, 0)
	require.NoError(t, err)
	assert.Len(t, outs, 3)

	outs, err = Selection{Screen: 0, CRTC: 2}.Outputs(sink, 0)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.Equal(t, 2, outs[0].Index)

	// Out-of-range CRTC selects every CRTC of the screen
	outs, err = Selection{Screen: 0, CRTC: 9}.Outputs(sink, 0)
	require.NoError(t, err)
	assert.Len(t, outs, 3)
}

func TestMemorySink_ReadWrite(t *testing.T) {
	sink := NewMemorySink(1, 1, 256)
	outs, err := sink.Outputs(0)
	require.NoError(t, err)
	out := outs[0]

	size, err := sink.RampSize(out)
	require.NoError(t, err)
	assert.Equal(t, 256, size)

	ramp := gamma.Build(gamma.Setting{Temperature: 3000, Brightness: 0.5}, size)
	require.NoError(t, sink.WriteRamp(out, ramp))
	assert.Equal(t, 1, sink.Writes())

	got, err := sink.ReadRamp(out)
	require.NoError(t, err)
	assert.Equal(t, ramp, got)

	// Returned ramps are copies
	got.Red[10] = 0
	again, err := sink.ReadRamp(out)
	require.NoError(t, err)
	assert.Equal(t, ramp.Red[10], again.Red[10])
}

func TestMemorySink_RejectsWrongSize(t *testing.T) {
	sink := NewMemorySink(1, 1, 256)
	outs, err := sink.Outputs(0)
	require.NoError(t, err)

	err = sink.WriteRamp(outs[0], gamma.Build(gamma.Neutral(), 128))
	assert.Error(t, err)
	assert.Zero(t, sink.Writes())
}

func TestMemorySink_UnknownScreen(t *testing.T) {
	sink := NewMemorySink(1, 1, 8)
	_, err := sink.Outputs(4)
	assert.ErrorIs(t, err, ErrInvalidScreen)
}
