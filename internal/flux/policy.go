package flux

import "time"

// Phase names the side of the day window a decision was made in.
type Phase string

const (
	PhaseDay   Phase = "day"
	PhaseNight Phase = "night"
)

// Decision is the target temperature chosen for a moment.
type Decision struct {
	Target int
	Phase  Phase
}

// Policy chooses the target temperature for the current moment.
type Policy interface {
	Decide(now time.Time, current int) Decision
}

// DayNightPolicy selects MaxTemp during the day and MinTemp at night.
type DayNightPolicy struct {
	cfg Config
}

// NewDayNightPolicy creates the default policy for a schedule.
func NewDayNightPolicy(cfg Config) *DayNightPolicy {
	return &DayNightPolicy{cfg: cfg}
}

// Decide returns the target for now.
func (p *DayNightPolicy) Decide(now time.Time, _ int) Decision {
	morning, night := p.cfg.Window.Bounds(now)
	if IsNight(p.cfg.Window.Clock(now), morning, night) {
		return Decision{Target: p.cfg.MinTemp, Phase: PhaseNight}
	}
	return Decision{Target: p.cfg.MaxTemp, Phase: PhaseDay}
}

// Direction returns the signed step that moves current toward target,
// or 0 when it is already there.
func Direction(current, target, step int) int {
	switch {
	case target > current:
		return step
	case target < current:
		return -step
	default:
		return 0
	}
}
