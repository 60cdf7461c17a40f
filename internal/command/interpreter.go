// Package command turns the text tokens received from peers into changes of the
// rendering settings.
package command

import (
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"neopixel-controller/internal/core"
	"neopixel-controller/internal/palette"
)

// Peer-facing replies.
const (
	MsgBrightnessRange   = "Brightness value must be between 0% and 100%."
	MsgBrightnessInvalid = "Invalid brightness value."
	MsgSpeedRange        = "Speed value must be between 20 and 1000."
	MsgUnknownCommand    = "Unknown command."
)

// EffectSet tells the interpreter which effect modes exist.
type EffectSet interface {
	Has(mode core.Mode) bool
}

// Interpreter resolves tokens against the settings.
type Interpreter struct {
	effects  EffectSet
	notifier core.Notifier
}

// NewInterpreter creates an Interpreter. Replies to numeric and unknown tokens go to n.
func NewInterpreter(effects EffectSet, n core.Notifier) *Interpreter {
	return &Interpreter{effects: effects, notifier: n}
}

// Interpret applies token to cfg and reports whether the rendering mode changed.
//
// Resolution order: control directive, mode, color name, brightness ("N%"),
// speed (bare integer). Anything else is rejected without touching cfg.
func (i *Interpreter) Interpret(token string, cfg *core.Settings) bool {
	token = strings.ToLower(strings.TrimSpace(token))
	mode := core.Mode(token)

	switch {
	case mode.IsDirective():
		changed := cfg.Mode != mode
		cfg.PreviousMode = cfg.Mode
		cfg.Mode = mode
		return changed

	case i.isMode(mode):
		changed := cfg.Mode != mode
		cfg.Mode = mode
		return changed

	case isColor(token):
		// Switching between two colors keeps the rendering mode, so it is not a change.
		changed := cfg.Mode != core.ModeColor
		cfg.Mode = core.ModeColor
		cfg.Color = token
		return changed

	case strings.HasSuffix(token, "%"):
		return i.brightness(strings.TrimSuffix(token, "%"), cfg)
	}

	if val, err := strconv.Atoi(token); err == nil {
		if !core.ValidSpeed(val) {
			i.notify(MsgSpeedRange)
			return false
		}
		cfg.Speed = val
		i.notify(fmt.Sprintf("Speed set to %d", val))
		return true
	}

	log.Printf("[Command] Unknown command '%s'.", token)
	i.notify(MsgUnknownCommand)
	return false
}

func (i *Interpreter) brightness(raw string, cfg *core.Settings) bool {
	val, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		i.notify(MsgBrightnessInvalid)
		return false
	}
	if !core.ValidBrightness(val) {
		i.notify(MsgBrightnessRange)
		return false
	}
	cfg.Brightness = val
	i.notify(fmt.Sprintf("Brightness set to %d%%", val))
	return true
}

func (i *Interpreter) isMode(m core.Mode) bool {
	if m.IsStatic() {
		return true
	}
	return i.effects != nil && i.effects.Has(m)
}

func isColor(name string) bool {
	_, ok := palette.Lookup(name)
	return ok
}

func (i *Interpreter) notify(text string) {
	if i.notifier != nil {
		i.notifier.Notify(text)
	}
}
