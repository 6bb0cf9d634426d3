package gamma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize_MonotonicAndBounded(t *testing.T) {
	temps := []int{0, 700, 1200, 3500, 6500, 10000, 40000}
	brightnesses := []float64{0, 0.01, 0.5, 1, 1.5}
	sizes := []int{1, 2, 256, 1024, 4096}

	for _, temp := range temps {
		for _, b := range brightnesses {
			for _, size := range sizes {
				ramp := Synthesize(Forward(temp), b, size)
				require.NoError(t, ramp.Validate())
				require.Equal(t, size, ramp.Size())

				for _, ch := range [][]uint16{ramp.Red, ramp.Green, ramp.Blue} {
					for i := 1; i < len(ch); i++ {
						require.GreaterOrEqual(t, ch[i], ch[i-1],
							"temp=%d brightness=%v size=%d index=%d", temp, b, size, i)
					}
				}
			}
		}
	}
}

func TestSynthesize_Values(t *testing.T) {
	ramp := Synthesize(Scales{R: 1, G: 0.5, B: 0}, 1.0, 4)

	assert.Equal(t, []uint16{0, 16384, 32768, 49151}, ramp.Red)
	assert.Equal(t, []uint16{0, 8192, 16384, 24576}, ramp.Green)
	assert.Equal(t, []uint16{0, 0, 0, 0}, ramp.Blue)
}

func TestSynthesize_ZeroSize(t *testing.T) {
	ramp := Synthesize(Scales{R: 1, G: 1, B: 1}, 1.0, 0)
	assert.Equal(t, 0, ramp.Size())
	assert.Error(t, ramp.Validate())
}

func TestRamp_Top(t *testing.T) {
	ramp := Ramp{
		Red:   []uint16{0, 10, 20},
		Green: []uint16{0, 5, 15},
		Blue:  []uint16{0, 1, 2},
	}
	r, g, b := ramp.Top()
	assert.Equal(t, uint16(20), r)
	assert.Equal(t, uint16(15), g)
	assert.Equal(t, uint16(2), b)

	r, g, b = Ramp{}.Top()
	assert.Zero(t, r)
	assert.Zero(t, g)
	assert.Zero(t, b)
}

func TestRamp_ValidateMismatch(t *testing.T) {
	ramp := Ramp{Red: []uint16{1, 2}, Green: []uint16{1}, Blue: []uint16{1, 2}}
	assert.Error(t, ramp.Validate())
}
