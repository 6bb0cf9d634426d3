// Package geo computes daily sun times for a fixed location.
package geo

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sixdouglas/suncalc"
)

// AstroTimes contains astronomical times for a day
type AstroTimes struct {
	Dawn    time.Time `json:"dawn"`
	Sunrise time.Time `json:"sunrise"`
	Noon    time.Time `json:"noon"`
	Sunset  time.Time `json:"sunset"`
	Dusk    time.Time `json:"dusk"`
}

// Calculator calculates astronomical times for one location, caching by date.
type Calculator struct {
	mu    sync.RWMutex
	cache map[string]*AstroTimes // by "2006-01-02"

	lat float64
	lon float64
	tz  *time.Location
}

// NewCalculator creates a calculator for the given coordinates.
func NewCalculator(lat, lon float64, tz *time.Location) (*Calculator, error) {
	if lat < -90 || lat > 90 {
		return nil, fmt.Errorf("latitude out of range: %f", lat)
	}
	if lon < -180 || lon > 180 {
		return nil, fmt.Errorf("longitude out of range: %f", lon)
	}
	if tz == nil {
		tz = time.Local
	}

	log.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Str("timezone", tz.String()).
		Msg("Geo calculator initialized")

	return &Calculator{
		cache: make(map[string]*AstroTimes),
		lat:   lat,
		lon:   lon,
		tz:    tz,
	}, nil
}

// Location returns the calculator's timezone.
func (c *Calculator) Location() *time.Location {
	return c.tz
}

// GetTimes returns the sun times of the day containing date.
// Events that do not happen that day (polar day or night) are zero.
func (c *Calculator) GetTimes(date time.Time) *AstroTimes {
	local := date.In(c.tz)
	key := local.Format("2006-01-02")

	c.mu.RLock()
	cached, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return cached
	}

	// Midday keeps suncalc on the intended calendar day
	noon := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, c.tz)
	times := suncalc.GetTimes(noon, c.lat, c.lon)

	result := &AstroTimes{
		Dawn:    c.pick(times, suncalc.Dawn, local),
		Sunrise: c.pick(times, suncalc.Sunrise, local),
		Noon:    c.pick(times, suncalc.SolarNoon, local),
		Sunset:  c.pick(times, suncalc.Sunset, local),
		Dusk:    c.pick(times, suncalc.Dusk, local),
	}

	c.mu.Lock()
	c.cache[key] = result
	c.mu.Unlock()

	log.Debug().
		Str("date", key).
		Time("dawn", result.Dawn).
		Time("sunrise", result.Sunrise).
		Time("sunset", result.Sunset).
		Time("dusk", result.Dusk).
		Msg("Computed sun times")

	return result
}

// pick returns the named event if it falls on the requested day.
func (c *Calculator) pick(times map[suncalc.DayTimeName]suncalc.DayTime, name suncalc.DayTimeName, day time.Time) time.Time {
	dt, ok := times[name]
	if !ok || dt.Value.IsZero() {
		return time.Time{}
	}
	v := dt.Value.In(c.tz)
	if v.Year() != day.Year() || v.YearDay() != day.YearDay() {
		return time.Time{}
	}
	return v
}
