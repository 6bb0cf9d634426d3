// Package policy lets a Lua script choose the flux target temperature.
//
// The script defines a global function target(s) that receives a table
//
//	{now, clock, morning, night, min, max, current, default, phase}
//
// and returns a temperature in Kelvin. Any failure falls back to the
// built-in day/night decision.
package policy

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/gammad/internal/flux"
	"github.com/dokzlo13/gammad/internal/geo"
)

// Script is a flux.Policy backed by a Lua function.
type Script struct {
	mu       sync.Mutex
	L        *lua.LState
	fn       *lua.LFunction
	cfg      flux.Config
	fallback flux.Policy
	path     string
	now      func() time.Time
}

// Load executes the script at path and looks up its target function.
// calc may be nil; the geo module then reports enabled=false.
func Load(path string, cfg flux.Config, calc *geo.Calculator) (*Script, error) {
	s := newScript(cfg, calc, path)
	if err := s.L.DoFile(path); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to execute Lua script: %w", err)
	}
	if err := s.bind(); err != nil {
		s.Close()
		return nil, err
	}

	log.Info().Str("path", path).Msg("Lua target policy loaded")
	return s, nil
}

// LoadString is Load for an in-memory script.
func LoadString(source string, cfg flux.Config, calc *geo.Calculator) (*Script, error) {
	s := newScript(cfg, calc, "<string>")
	if err := s.L.DoString(source); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to execute Lua script: %w", err)
	}
	if err := s.bind(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func newScript(cfg flux.Config, calc *geo.Calculator, path string) *Script {
	s := &Script{
		L:        lua.NewState(),
		cfg:      cfg,
		fallback: flux.NewDayNightPolicy(cfg),
		path:     path,
		now:      time.Now,
	}
	s.L.PreloadModule("log", logModule{}.Loader)
	s.L.PreloadModule("geo", geoModule{calc: calc, now: func() time.Time { return s.now() }}.Loader)
	return s
}

func (s *Script) bind() error {
	fn, ok := s.L.GetGlobal("target").(*lua.LFunction)
	if !ok {
		return fmt.Errorf("lua script %s does not define a target(s) function", s.path)
	}
	s.fn = fn
	return nil
}

// Close releases the Lua state.
func (s *Script) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.L.Close()
}

// Decide calls target(s). The result is rounded to the step distance and
// clamped to [MinTemp, MaxTemp]; script errors yield the default decision.
func (s *Script) Decide(now time.Time, current int) flux.Decision {
	def := s.fallback.Decide(now, current)
	morning, night := s.cfg.Window.Bounds(now)

	s.mu.Lock()
	defer s.mu.Unlock()

	arg := s.L.NewTable()
	s.L.SetField(arg, "now", lua.LNumber(now.Unix()))
	s.L.SetField(arg, "clock", lua.LNumber(s.cfg.Window.Clock(now)))
	s.L.SetField(arg, "morning", lua.LNumber(morning))
	s.L.SetField(arg, "night", lua.LNumber(night))
	s.L.SetField(arg, "min", lua.LNumber(s.cfg.MinTemp))
	s.L.SetField(arg, "max", lua.LNumber(s.cfg.MaxTemp))
	s.L.SetField(arg, "current", lua.LNumber(current))
	s.L.SetField(arg, "default", lua.LNumber(def.Target))
	s.L.SetField(arg, "phase", lua.LString(def.Phase))

	err := s.L.CallByParam(lua.P{Fn: s.fn, NRet: 1, Protect: true}, arg)
	if err != nil {
		log.Warn().Err(err).Str("path", s.path).Int("default", def.Target).Msg("Lua target policy failed, using default")
		return def
	}
	ret := s.L.Get(-1)
	s.L.Pop(1)

	num, ok := ret.(lua.LNumber)
	if !ok || math.IsNaN(float64(num)) || math.IsInf(float64(num), 0) {
		log.Warn().
			Str("path", s.path).
			Str("returned", ret.Type().String()).
			Int("default", def.Target).
			Msg("Lua target policy returned a non-number, using default")
		return def
	}

	// MinTemp and MaxTemp are step multiples, so rounding stays in range
	clamped := min(max(float64(num), float64(s.cfg.MinTemp)), float64(s.cfg.MaxTemp))
	target := flux.RoundToStep(int(math.Round(clamped)), s.cfg.StepDistance)

	log.Debug().
		Float64("returned", float64(num)).
		Int("target", target).
		Int("default", def.Target).
		Msg("Lua target policy decided")

	return flux.Decision{Target: target, Phase: def.Phase}
}
