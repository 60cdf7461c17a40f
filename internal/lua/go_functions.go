package lua

import (
	"errors"

	log "github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"

	"neopixel-controller/internal/effects"
	"neopixel-controller/internal/palette"
)

// ErrNoOutput is raised when a script draws while it is being probed at load time.
var ErrNoOutput = errors.New("no output while probing")

// registerGoFunctions exposes the drawing API to the given Lua state. px may be
// nil while probing, in which case drawing raises an error.
func registerGoFunctions(L *lua.LState, px effects.Pixels, p effects.Params) {
	api := &scriptAPI{px: px, params: p}

	L.SetGlobal("num_leds", L.NewFunction(api.numLeds))
	L.SetGlobal("set_pixel", L.NewFunction(api.setPixel))
	L.SetGlobal("fill", L.NewFunction(api.fill))
	L.SetGlobal("color", L.NewFunction(api.color))
	L.SetGlobal("brightness", L.NewFunction(api.brightness))
	L.SetGlobal("wheel", L.NewFunction(luaWheel))
	L.SetGlobal("print", L.NewFunction(luaPrint))
}

type scriptAPI struct {
	px     effects.Pixels
	params effects.Params
}

func luaPrint(L *lua.LState) int {
	log.Printf("[LUA] %s", L.ToString(1))
	return 0
}

func (a *scriptAPI) pixels(L *lua.LState) effects.Pixels {
	if a.px == nil {
		L.RaiseError("%v", ErrNoOutput)
	}
	return a.px
}

func (a *scriptAPI) numLeds(L *lua.LState) int {
	n := 0
	if a.px != nil {
		n = a.px.Len()
	}
	L.Push(lua.LNumber(n))
	return 1
}

// set_pixel(i, r, g, b) with a zero based index. Colors are scaled by the brightness.
func (a *scriptAPI) setPixel(L *lua.LState) int {
	px := a.pixels(L)
	i := L.CheckInt(1)
	px.Set(i, rgbArgs(L, 2).Scale(a.params.Brightness))
	return 0
}

func (a *scriptAPI) fill(L *lua.LState) int {
	px := a.pixels(L)
	px.Fill(rgbArgs(L, 1).Scale(a.params.Brightness))
	return 0
}

// color() returns the configured color, or nothing when the effect has none.
func (a *scriptAPI) color(L *lua.LState) int {
	if !a.params.HasColor {
		return 0
	}
	return pushRGB(L, a.params.Color)
}

func (a *scriptAPI) brightness(L *lua.LState) int {
	L.Push(lua.LNumber(a.params.Brightness))
	return 1
}

func luaWheel(L *lua.LState) int {
	return pushRGB(L, palette.Wheel(uint8(L.CheckInt(1)&255)))
}

func rgbArgs(L *lua.LState, first int) palette.RGB {
	return palette.RGB{
		R: channel(L.CheckInt(first)),
		G: channel(L.CheckInt(first + 1)),
		B: channel(L.CheckInt(first + 2)),
	}
}

func pushRGB(L *lua.LState, c palette.RGB) int {
	L.Push(lua.LNumber(c.R))
	L.Push(lua.LNumber(c.G))
	L.Push(lua.LNumber(c.B))
	return 3
}

func channel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
