package timeexpr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokzlo13/gammad/internal/geo"
)

func TestParse_Fixed(t *testing.T) {
	te, err := Parse(" 22:15 ")
	require.NoError(t, err)
	assert.True(t, te.IsFixed())
	assert.Equal(t, 2215, te.Clock())
	assert.Equal(t, "22:15", te.String())

	te, err = Parse("6:05")
	require.NoError(t, err)
	assert.Equal(t, 605, te.Clock())
}

func TestParse_Astro(t *testing.T) {
	tests := []struct {
		expr   string
		base   BaseTimeType
		offset time.Duration
	}{
		{"@sunrise", BaseTimeSunrise, 0},
		{"@sunset - 30m", BaseTimeSunset, -30 * time.Minute},
		{"@dawn + 1h30m", BaseTimeDawn, 90 * time.Minute},
		{"@Dusk", BaseTimeDusk, 0},
		{"@noon+15m", BaseTimeNoon, 15 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			te, err := Parse(tt.expr)
			require.NoError(t, err)
			assert.False(t, te.IsFixed())
			assert.Equal(t, tt.base, te.BaseTime)
			assert.Equal(t, tt.offset, te.Offset)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, expr := range []string{"", "25:00", "10:60", "@moonrise", "noon", "10h", "@sunset * 2"} {
		_, err := Parse(expr)
		assert.Error(t, err, "expr %q", expr)
	}
}

func TestFixed(t *testing.T) {
	te, err := Fixed(7, 5)
	require.NoError(t, err)
	assert.Equal(t, "07:05", te.String())
	assert.Equal(t, 705, te.Clock())

	_, err = Fixed(24, 0)
	assert.Error(t, err)
	_, err = Fixed(0, -1)
	assert.Error(t, err)
}

func TestWindow_Fixed(t *testing.T) {
	morning, _ := Fixed(10, 0)
	night, _ := Fixed(22, 0)

	w, err := NewWindow(morning, night, nil, time.UTC)
	require.NoError(t, err)

	m, n := w.Bounds(time.Now())
	assert.Equal(t, 1000, m)
	assert.Equal(t, 2200, n)
}

func TestWindow_ClockUsesTimezone(t *testing.T) {
	morning, _ := Fixed(10, 0)
	night, _ := Fixed(22, 0)
	tokyo := time.FixedZone("JST", 9*60*60)

	w, err := NewWindow(morning, night, nil, tokyo)
	require.NoError(t, err)

	now := time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, 2330, w.Clock(now))
	assert.Equal(t, 2330, w.Clock(now.In(time.FixedZone("EST", -5*60*60))))
}

func TestWindow_AstroRequiresGeo(t *testing.T) {
	morning, _ := Parse("@sunrise")
	night, _ := Fixed(22, 0)

	_, err := NewWindow(morning, night, nil, time.UTC)
	assert.Error(t, err)
}

func TestWindow_AstroEquator(t *testing.T) {
	calc, err := geo.NewCalculator(0, 0, time.UTC)
	require.NoError(t, err)

	morning, _ := Parse("@sunrise")
	night, _ := Parse("@sunset - 1h")
	w, err := NewWindow(morning, night, calc, time.UTC)
	require.NoError(t, err)

	m, n := w.Bounds(time.Date(2024, 3, 20, 15, 0, 0, 0, time.UTC))
	assert.GreaterOrEqual(t, m, 545)
	assert.LessOrEqual(t, m, 630)
	assert.GreaterOrEqual(t, n, 1645)
	assert.LessOrEqual(t, n, 1730)
}

func TestWindow_InvertedFallsBack(t *testing.T) {
	calc, err := geo.NewCalculator(0, 0, time.UTC)
	require.NoError(t, err)

	// Night boundary before sunrise resolves to an inverted window
	morning, _ := Parse("@sunrise")
	night, _ := Fixed(3, 0)
	w, err := NewWindow(morning, night, calc, time.UTC)
	require.NoError(t, err)

	m, n := w.Bounds(time.Date(2024, 3, 20, 15, 0, 0, 0, time.UTC))
	assert.Equal(t, FallbackMorning, m)
	assert.Equal(t, FallbackNight, n)
}

func TestWindow_OffsetCrossesMidnight(t *testing.T) {
	calc, err := geo.NewCalculator(0, 0, time.UTC)
	require.NoError(t, err)

	morning, _ := Parse("@sunrise - 10h")
	night, _ := Fixed(22, 0)
	w, err := NewWindow(morning, night, calc, time.UTC)
	require.NoError(t, err)

	m, n := w.Bounds(time.Date(2024, 3, 20, 15, 0, 0, 0, time.UTC))
	assert.Equal(t, 0, m)
	assert.Equal(t, 2200, n)
}
