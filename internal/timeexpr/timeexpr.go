// Package timeexpr parses time-of-day boundaries such as "22:15" or
// "@sunset - 30m" and resolves them to hour*100+minute for a given day.
package timeexpr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dokzlo13/gammad/internal/geo"
)

// BaseTimeType represents the type of base time for an expression
type BaseTimeType int

const (
	BaseTimeFixed BaseTimeType = iota
	BaseTimeDawn
	BaseTimeSunrise
	BaseTimeNoon
	BaseTimeSunset
	BaseTimeDusk
)

// TimeExpr represents a parsed time expression
type TimeExpr struct {
	Raw       string
	BaseTime  BaseTimeType
	FixedHour int // For fixed times (0-23)
	FixedMin  int // For fixed times (0-59)
	Offset    time.Duration
}

var (
	// "@dawn", "@sunset", "@noon + 30m", "@sunrise - 1h30m"
	astroPattern = regexp.MustCompile(`^@(\w+)\s*([+-]\s*\d+[hms]+(?:\d+[ms]+)?)?$`)
	// "22:15", "6:30"
	fixedPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	// "+30m", "- 1h"
	durationPattern = regexp.MustCompile(`([+-])\s*(.+)`)
)

// Fixed builds a fixed expression from hour and minute.
func Fixed(hour, minute int) (*TimeExpr, error) {
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("invalid hour: %d", hour)
	}
	if minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid minute: %d", minute)
	}
	return &TimeExpr{
		Raw:       fmt.Sprintf("%02d:%02d", hour, minute),
		BaseTime:  BaseTimeFixed,
		FixedHour: hour,
		FixedMin:  minute,
	}, nil
}

// Parse parses a time expression string
func Parse(expr string) (*TimeExpr, error) {
	expr = strings.TrimSpace(expr)

	if matches := fixedPattern.FindStringSubmatch(expr); matches != nil {
		hour, _ := strconv.Atoi(matches[1])
		min, _ := strconv.Atoi(matches[2])
		te, err := Fixed(hour, min)
		if err != nil {
			return nil, err
		}
		te.Raw = expr
		return te, nil
	}

	if matches := astroPattern.FindStringSubmatch(expr); matches != nil {
		var baseTime BaseTimeType
		switch strings.ToLower(matches[1]) {
		case "dawn":
			baseTime = BaseTimeDawn
		case "sunrise":
			baseTime = BaseTimeSunrise
		case "noon":
			baseTime = BaseTimeNoon
		case "sunset":
			baseTime = BaseTimeSunset
		case "dusk":
			baseTime = BaseTimeDusk
		default:
			return nil, fmt.Errorf("unknown astronomical time: %s", matches[1])
		}

		var offset time.Duration
		if offsetStr := strings.ReplaceAll(matches[2], " ", ""); offsetStr != "" {
			d, err := parseOffset(offsetStr)
			if err != nil {
				return nil, fmt.Errorf("invalid offset: %w", err)
			}
			offset = d
		}

		return &TimeExpr{Raw: expr, BaseTime: baseTime, Offset: offset}, nil
	}

	return nil, fmt.Errorf("invalid time expression: %q", expr)
}

// parseOffset parses a signed duration like "+30m", "-1h", "+1h30m"
func parseOffset(s string) (time.Duration, error) {
	matches := durationPattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("invalid duration format: %s", s)
	}

	d, err := time.ParseDuration(matches[2])
	if err != nil {
		return 0, err
	}
	if matches[1] == "-" {
		d = -d
	}
	return d, nil
}

// IsFixed returns true if this is a fixed time expression
func (te *TimeExpr) IsFixed() bool {
	return te.BaseTime == BaseTimeFixed
}

// Clock returns hour*100+minute of a fixed expression.
func (te *TimeExpr) Clock() int {
	return te.FixedHour*100 + te.FixedMin
}

// String returns the expression as written
func (te *TimeExpr) String() string {
	return te.Raw
}

// Evaluate calculates the time for this expression on the day of date.
// It returns false when an astronomical event does not occur that day.
func (te *TimeExpr) Evaluate(date time.Time, astro *geo.AstroTimes, tz *time.Location) (time.Time, bool) {
	var base time.Time

	switch te.BaseTime {
	case BaseTimeFixed:
		local := date.In(tz)
		return time.Date(local.Year(), local.Month(), local.Day(), te.FixedHour, te.FixedMin, 0, 0, tz), true
	case BaseTimeDawn:
		base = pickAstro(astro, func(a *geo.AstroTimes) time.Time { return a.Dawn })
	case BaseTimeSunrise:
		base = pickAstro(astro, func(a *geo.AstroTimes) time.Time { return a.Sunrise })
	case BaseTimeNoon:
		base = pickAstro(astro, func(a *geo.AstroTimes) time.Time { return a.Noon })
	case BaseTimeSunset:
		base = pickAstro(astro, func(a *geo.AstroTimes) time.Time { return a.Sunset })
	case BaseTimeDusk:
		base = pickAstro(astro, func(a *geo.AstroTimes) time.Time { return a.Dusk })
	}

	if base.IsZero() {
		return time.Time{}, false // Polar skip
	}
	return base.Add(te.Offset), true
}

func pickAstro(astro *geo.AstroTimes, field func(*geo.AstroTimes) time.Time) time.Time {
	if astro == nil {
		return time.Time{}
	}
	return field(astro)
}
