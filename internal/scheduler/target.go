package scheduler

import (
	"neopixel-controller/internal/core"
	"neopixel-controller/internal/effects"
)

// Target is the part of the settings that determines what the strip shows.
// Fields that the mode ignores are left zero, so a change to them does not
// restart the animation.
type Target struct {
	Mode       core.Mode `json:"mode"`
	Color      string    `json:"color,omitempty"`
	Brightness int       `json:"brightness"`
	Speed      int       `json:"speed,omitempty"`
}

// TargetOf derives the render target from cfg.
func TargetOf(cfg core.Settings, reg *effects.Registry) Target {
	t := Target{Mode: cfg.Mode}
	switch cfg.Mode {
	case core.ModeOff:
	case core.ModeOn:
		t.Brightness = cfg.Brightness
	case core.ModeColor:
		t.Color = cfg.Color
		t.Brightness = cfg.Brightness
	default:
		t.Brightness = cfg.Brightness
		t.Speed = cfg.Speed
		if reg != nil && reg.NeedsColor(cfg.Mode) {
			t.Color = cfg.Color
		}
	}
	return t
}
