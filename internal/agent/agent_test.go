package agent

import (
	"path/filepath"
	"testing"
	"time"

	"neopixel-controller/internal/config"
	"neopixel-controller/internal/core"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Device.NumLEDs = 4
	cfg.Device.SettingsFile = filepath.Join(dir, "settings.json")
	cfg.SchedulesFile = filepath.Join(dir, "schedules.json")
	cfg.ScriptsDir = filepath.Join(dir, "scripts")
	cfg.Indicator.BlinkPeriod = time.Nanosecond
	return cfg
}

func TestAgentProcessesQueuedCommands(t *testing.T) {
	a, err := NewAgent(testConfig(t))
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		a.Run()
		close(done)
	}()

	for _, token := range []string{"rainbow", "40%"} {
		if err := a.queue.TryPut(token); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for a.Status().Handled < 2 {
		if time.Now().After(deadline) {
			t.Fatal("commands were not handled")
		}
		time.Sleep(5 * time.Millisecond)
	}

	st := a.Status()
	if st.Settings.Mode != core.ModeRainbow || st.Settings.Brightness != 40 || !st.Dirty {
		t.Errorf("unexpected status %+v", st)
	}
	if st.Scheduler != "animating" || st.Rendering == nil {
		t.Errorf("expected a running animation, got %+v", st)
	}

	a.Shutdown()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
}

func TestRegistryIncludesScripts(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewAgent(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Shutdown()

	if err := a.scripts.Save("glow", "function frame(n) fill(0, 0, 255) end"); err != nil {
		t.Fatal(err)
	}
	reg := BuildRegistry(a.scripts)
	if !reg.Has("glow") {
		t.Error("script effect not registered")
	}
	if len(a.effectNames()) != 10 {
		t.Errorf("agent registry should only hold built-ins, got %v", a.effectNames())
	}
}
