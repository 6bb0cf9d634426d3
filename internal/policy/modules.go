package policy

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/gammad/internal/geo"
)

// logModule provides logging functions to Lua
type logModule struct{}

func (m logModule) Loader(L *lua.LState) int {
	mod := L.NewTable()

	L.SetField(mod, "debug", L.NewFunction(m.emit(func() *zerolog.Event { return log.Debug() })))
	L.SetField(mod, "info", L.NewFunction(m.emit(func() *zerolog.Event { return log.Info() })))
	L.SetField(mod, "warn", L.NewFunction(m.emit(func() *zerolog.Event { return log.Warn() })))
	L.SetField(mod, "error", L.NewFunction(m.emit(func() *zerolog.Event { return log.Error() })))

	L.Push(mod)
	return 1
}

func (m logModule) emit(level func() *zerolog.Event) lua.LGFunction {
	return func(L *lua.LState) int {
		msg := L.CheckString(1)

		event := level().Str("source", "lua")
		if tbl, ok := L.Get(2).(*lua.LTable); ok {
			tbl.ForEach(func(key, value lua.LValue) {
				event = event.Interface(lua.LVAsString(key), luaToGo(value))
			})
		}
		event.Msg(msg)
		return 0
	}
}

// geoModule exposes the sun times of the configured location
type geoModule struct {
	calc *geo.Calculator
	now  func() time.Time
}

func (m geoModule) Loader(L *lua.LState) int {
	mod := L.NewTable()
	L.SetField(mod, "enabled", lua.LBool(m.calc != nil))
	L.SetField(mod, "today", L.NewFunction(m.today))
	L.Push(mod)
	return 1
}

// today() -> {dawn, sunrise, noon, sunset, dusk} as Unix timestamps, or nil
// without coordinates. Events that do not occur today are omitted.
func (m geoModule) today(L *lua.LState) int {
	if m.calc == nil {
		L.Push(lua.LNil)
		return 1
	}

	times := m.calc.GetTimes(m.now())
	result := L.NewTable()
	for name, t := range map[string]time.Time{
		"dawn":    times.Dawn,
		"sunrise": times.Sunrise,
		"noon":    times.Noon,
		"sunset":  times.Sunset,
		"dusk":    times.Dusk,
	} {
		if !t.IsZero() {
			L.SetField(result, name, lua.LNumber(t.Unix()))
		}
	}

	L.Push(result)
	return 1
}

// luaToGo converts a Lua value to a Go value
func luaToGo(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LString:
		return string(val)
	case lua.LNumber:
		return float64(val)
	case lua.LBool:
		return bool(val)
	case *lua.LTable:
		obj := make(map[string]any)
		val.ForEach(func(k, v lua.LValue) {
			obj[lua.LVAsString(k)] = luaToGo(v)
		})
		return obj
	case *lua.LNilType:
		return nil
	default:
		return v.String()
	}
}
