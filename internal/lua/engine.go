// Package lua lets users add effects as Lua scripts. A script defines a global
// function frame(n) that draws frame n; the Go side writes each frame and
// waits for the configured speed in between, so cancellation works exactly as
// for the built-in effects.
package lua

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"

	"neopixel-controller/internal/core"
	"neopixel-controller/internal/effects"
)

const frameFunc = "frame"

// Script is one compiled-on-demand effect script.
type Script struct {
	Name       string
	Code       string
	NeedsColor bool
}

// Probe runs the script body once in a throwaway state to validate it and read
// its needs_color flag.
func Probe(name, code string) (*Script, error) {
	L := lua.NewState()
	defer L.Close()
	registerGoFunctions(L, nil, effects.Params{})

	if err := L.DoString(code); err != nil {
		return nil, fmt.Errorf("script '%s': %w", name, err)
	}
	if L.GetGlobal(frameFunc).Type() != lua.LTFunction {
		return nil, fmt.Errorf("script '%s' does not define %s(n)", name, frameFunc)
	}
	return &Script{
		Name:       name,
		Code:       code,
		NeedsColor: lua.LVAsBool(L.GetGlobal("needs_color")),
	}, nil
}

// Effect wraps the script as a registry variant.
func (s *Script) Effect() effects.Effect {
	return effects.Effect{
		Mode:       core.Mode(s.Name),
		NeedsColor: s.NeedsColor,
		Run:        s.Run,
	}
}

// Run executes the script in a fresh state until ctx is cancelled.
func (s *Script) Run(ctx context.Context, px effects.Pixels, p effects.Params) error {
	log.Printf("[Lua] Starting script '%s'...", s.Name)
	defer log.Printf("[Lua] Script '%s' finished.", s.Name)

	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)
	registerGoFunctions(L, px, p)

	if err := L.DoString(s.Code); err != nil {
		return s.wrap(ctx, err)
	}
	fn := L.GetGlobal(frameFunc)

	for n := 0; ; n++ {
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, lua.LNumber(n)); err != nil {
			return s.wrap(ctx, err)
		}
		if err := effects.Show(ctx, px, p.Speed); err != nil {
			return err
		}
	}
}

func (s *Script) wrap(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("script '%s': %w", s.Name, err)
}

// LoadEffects probes every script of the library and returns the valid ones.
// Broken scripts are logged and skipped.
func LoadEffects(lib *Library) ([]effects.Effect, error) {
	names, err := lib.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts in '%s': %w", lib.Dir(), err)
	}

	var out []effects.Effect
	for _, name := range names {
		code, err := lib.Code(name)
		if err != nil {
			log.Printf("[Lua] Could not read script '%s': %v", name, err)
			continue
		}
		script, err := Probe(name, code)
		if err != nil {
			log.Printf("[Lua] Skipping %v", err)
			continue
		}
		log.Printf("[Lua] Loaded script effect '%s' (needs color: %v).", name, script.NeedsColor)
		out = append(out, script.Effect())
	}
	return out, nil
}
