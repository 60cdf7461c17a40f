package scheduler

import (
	"testing"

	"neopixel-controller/internal/core"
	"neopixel-controller/internal/effects"
)

func TestTargetOfIgnoresUnusedFields(t *testing.T) {
	reg := effects.NewRegistry()
	base := core.Settings{Color: "red", Brightness: 40, Speed: 100}

	tests := []struct {
		mode core.Mode
		want Target
	}{
		{core.ModeOff, Target{Mode: core.ModeOff}},
		{core.ModeOn, Target{Mode: core.ModeOn, Brightness: 40}},
		{core.ModeColor, Target{Mode: core.ModeColor, Color: "red", Brightness: 40}},
		{core.ModeFire, Target{Mode: core.ModeFire, Brightness: 40, Speed: 100}},
		{core.ModeBreathe, Target{Mode: core.ModeBreathe, Color: "red", Brightness: 40, Speed: 100}},
	}
	for _, tt := range tests {
		cfg := base
		cfg.Mode = tt.mode
		if got := TargetOf(cfg, reg); got != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.mode, got, tt.want)
		}
	}
}

func TestStateString(t *testing.T) {
	for st, want := range map[State]string{Idle: "idle", Animating: "animating", Preempting: "preempting", State(9): "unknown"} {
		if got := st.String(); got != want {
			t.Errorf("%d: got %q, want %q", st, got, want)
		}
	}
}
