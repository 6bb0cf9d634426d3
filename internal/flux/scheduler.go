package flux

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/gammad/internal/gamma"
)

// Applier pushes a setting to every selected output.
type Applier interface {
	Apply(setting gamma.Setting) error
}

// EventKind tells listeners why they were called.
type EventKind string

const (
	EventStarted EventKind = "started"
	EventReached EventKind = "reached"
)

// Event describes the scheduler state at a notable moment.
type Event struct {
	Kind    EventKind
	Time    time.Time
	Setting gamma.Setting
	Target  int
	Phase   Phase
}

// Listener is notified when the loop starts and whenever it reaches a target.
type Listener interface {
	OnFluxEvent(ctx context.Context, ev Event)
}

// State is the mutable part of the loop.
type State struct {
	Current   int
	Target    int
	Direction int
	Phase     Phase
}

// Holding reports whether the loop is at its target.
func (s State) Holding() bool {
	return s.Direction == 0 || s.Current == s.Target
}

// Scheduler runs the stepping loop. It is single-threaded: the only
// suspension points are the step and re-evaluation sleeps.
type Scheduler struct {
	cfg       Config
	applier   Applier
	policy    Policy
	listeners []Listener

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPolicy overrides the default day/night policy.
func WithPolicy(p Policy) Option {
	return func(s *Scheduler) { s.policy = p }
}

// WithListener adds an event listener.
func WithListener(l Listener) Option {
	return func(s *Scheduler) { s.listeners = append(s.listeners, l) }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithSleeper replaces the context-aware sleep.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Scheduler) { s.sleep = sleep }
}

// New creates a scheduler.
func New(cfg Config, applier Applier, opts ...Option) (*Scheduler, error) {
	if cfg.StepDistance <= 0 {
		return nil, fmt.Errorf("step distance must be greater than 0, got %d", cfg.StepDistance)
	}
	if cfg.Window == nil {
		return nil, fmt.Errorf("day window is required")
	}

	s := &Scheduler{
		cfg:     cfg,
		applier: applier,
		now:     time.Now,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.policy == nil {
		s.policy = NewDayNightPolicy(cfg)
	}
	return s, nil
}

// Init seeds the state from an estimated temperature.
func (s *Scheduler) Init(estimated int) State {
	st := State{Current: RoundToStep(estimated, s.cfg.StepDistance)}
	s.retarget(&st)
	return st
}

// Run steps toward the active target forever, returning only when ctx is
// cancelled.
func (s *Scheduler) Run(ctx context.Context, estimated int) error {
	st := s.Init(estimated)

	log.Info().
		Int("estimated", estimated).
		Int("current", st.Current).
		Int("target", st.Target).
		Str("phase", string(st.Phase)).
		Int("min", s.cfg.MinTemp).
		Int("max", s.cfg.MaxTemp).
		Msg("Flux started")

	// Already at the first target: push the current temperature once so the
	// configured brightness takes effect.
	if st.Holding() {
		s.apply(st.Current)
		if err := s.sleep(ctx, s.cfg.StepInterval); err != nil {
			return s.stopped()
		}
	}
	s.notify(ctx, EventStarted, st)

	for {
		log.Debug().
			Int("step", st.Direction).
			Int("current", st.Current).
			Int("target", st.Target).
			Int("max", s.cfg.MaxTemp).
			Int("min", s.cfg.MinTemp).
			Msg("Flux re-evaluated")

		moved := false
		for !st.Holding() {
			st.Current = stepToward(st.Current, st.Target, st.Direction)
			s.apply(st.Current)
			moved = true

			if err := s.sleep(ctx, s.cfg.StepInterval); err != nil {
				return s.stopped()
			}
		}

		if moved {
			log.Info().
				Int("temperature", st.Current).
				Str("phase", string(st.Phase)).
				Msg("Flux target reached")
			s.notify(ctx, EventReached, st)
		}

		s.retarget(&st)

		if err := s.sleep(ctx, s.cfg.ReevalInterval); err != nil {
			return s.stopped()
		}
	}
}

func (s *Scheduler) retarget(st *State) {
	d := s.policy.Decide(s.now(), st.Current)
	st.Target = d.Target
	st.Phase = d.Phase
	st.Direction = Direction(st.Current, st.Target, s.cfg.StepDistance)
}

func (s *Scheduler) apply(temperature int) {
	setting := gamma.Setting{Temperature: temperature, Brightness: s.cfg.Brightness}
	if err := s.applier.Apply(setting); err != nil {
		log.Warn().Err(err).Int("temperature", temperature).Msg("Failed to apply flux step")
	}
}

func (s *Scheduler) notify(ctx context.Context, kind EventKind, st State) {
	ev := Event{
		Kind:    kind,
		Time:    s.now(),
		Setting: gamma.Setting{Temperature: st.Current, Brightness: s.cfg.Brightness},
		Target:  st.Target,
		Phase:   st.Phase,
	}
	for _, l := range s.listeners {
		l.OnFluxEvent(ctx, ev)
	}
}

func (s *Scheduler) stopped() error {
	log.Info().Msg("Flux stopping")
	return nil
}

// stepToward advances by direction without passing target.
func stepToward(current, target, direction int) int {
	next := current + direction
	if (direction > 0 && next > target) || (direction < 0 && next < target) {
		return target
	}
	return next
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
