package core

// Mode is the currently selected rendering behavior, or a pending control directive.
type Mode string

const (
	ModeOff   Mode = "off"
	ModeOn    Mode = "on"
	ModeColor Mode = "color"

	ModeRainbow      Mode = "rainbow"
	ModeRainbowCycle Mode = "rainbow_cycle"
	ModeRainbowSolid Mode = "rainbow_solid"
	ModeTheatreChase Mode = "theatre_chase"
	ModeFadeInOut    Mode = "fade_in_out"
	ModeColorWipe    Mode = "color_wipe"
	ModeBreathe      Mode = "breathe"
	ModeSparkle      Mode = "sparkle"
	ModeFire         Mode = "fire"
	ModeMeteorRain   Mode = "meteor_rain"
)

// Control directives. They act once and then hand the previous mode back.
const (
	DirectiveReset Mode = "reset"
	DirectiveSave  Mode = "save"
	DirectiveMode  Mode = "mode"
	DirectiveInfo  Mode = "info"
)

var directives = []Mode{DirectiveReset, DirectiveSave, DirectiveMode, DirectiveInfo}

// Directives returns the control directive tokens.
func Directives() []Mode {
	out := make([]Mode, len(directives))
	copy(out, directives)
	return out
}

// IsDirective reports whether m is one of the control directives.
func (m Mode) IsDirective() bool {
	for _, d := range directives {
		if m == d {
			return true
		}
	}
	return false
}

// IsStatic reports whether m is rendered once by the scheduler instead of by an animation task.
func (m Mode) IsStatic() bool {
	return m == ModeOff || m == ModeOn || m == ModeColor
}

func (m Mode) String() string {
	return string(m)
}
