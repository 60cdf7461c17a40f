package core

import "fmt"

// Brightness and speed bounds accepted from peers.
const (
	MinBrightness = 0
	MaxBrightness = 100
	MinSpeed      = 20
	MaxSpeed      = 1000
)

// Settings holds the persisted rendering configuration.
//
// PreviousMode is only set while a control directive is being processed and is
// cleared again once the directive hands the mode back.
type Settings struct {
	Mode         Mode   `json:"mode"`
	Color        string `json:"color"`
	Brightness   int    `json:"brightness"`
	Speed        int    `json:"speed"`
	PreviousMode Mode   `json:"old-mode,omitempty"`
}

// DefaultSettings returns the factory configuration.
func DefaultSettings() Settings {
	return Settings{
		Mode:       ModeOff,
		Color:      "red",
		Brightness: 100,
		Speed:      20,
	}
}

// Clone returns a snapshot of the settings.
func (s *Settings) Clone() Settings {
	return *s
}

// RestorePreviousMode hands the mode back to the one stashed by a control directive.
// It returns the restored mode and false when nothing was stashed.
func (s *Settings) RestorePreviousMode() (Mode, bool) {
	if s.PreviousMode == "" {
		return s.Mode, false
	}
	s.Mode = s.PreviousMode
	s.PreviousMode = ""
	return s.Mode, true
}

// Summary is the human readable report sent to peers after a mode change.
func (s *Settings) Summary() string {
	return fmt.Sprintf("Mode: %s\nColor: %s\nBrightness: %d\nSpeed: %d", s.Mode, s.Color, s.Brightness, s.Speed)
}

// ValidBrightness reports whether b is within the accepted brightness range.
func ValidBrightness(b int) bool {
	return b >= MinBrightness && b <= MaxBrightness
}

// ValidSpeed reports whether v is within the accepted frame delay range.
func ValidSpeed(v int) bool {
	return v >= MinSpeed && v <= MaxSpeed
}
