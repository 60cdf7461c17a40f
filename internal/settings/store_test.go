package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"neopixel-controller/internal/core"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return Open(filepath.Join(t.TempDir(), "settings.json"), core.DefaultSettings())
}

func TestOpenMissingFileUsesDefaults(t *testing.T) {
	s := newStore(t)
	if got := s.Snapshot(); got != core.DefaultSettings() {
		t.Errorf("expected defaults, got %+v", got)
	}
	if s.IsDirty() {
		t.Error("fresh store should not be dirty")
	}
}

func TestOpenCorruptFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	s := Open(path, core.DefaultSettings())
	if got := s.Snapshot(); got != core.DefaultSettings() {
		t.Errorf("expected defaults, got %+v", got)
	}
}

func TestPersistLoadRoundTrip(t *testing.T) {
	cases := []core.Settings{
		core.DefaultSettings(),
		{Mode: core.ModeFire, Color: "blue", Brightness: 0, Speed: 1000},
		{Mode: core.ModeColor, Color: "warm", Brightness: 42, Speed: 20},
		{Mode: core.DirectiveMode, Color: "teal", Brightness: 100, Speed: 500, PreviousMode: core.ModeRainbow},
	}
	for _, want := range cases {
		s := newStore(t)
		s.Update(func(cfg *core.Settings) { *cfg = want })
		if err := s.Persist(); err != nil {
			t.Fatalf("Persist: %v", err)
		}

		reloaded := Open(s.Path(), core.DefaultSettings())
		if reloaded.Fingerprint() != Fingerprint(want) {
			t.Errorf("fingerprint mismatch after round trip of %+v: got %+v", want, reloaded.Snapshot())
		}
		if reloaded.IsDirty() {
			t.Errorf("reloaded store should be clean for %+v", want)
		}
	}
}

func TestIsDirtyTracksPersist(t *testing.T) {
	s := newStore(t)
	s.Update(func(cfg *core.Settings) { cfg.Mode = core.ModeRainbow })
	if !s.IsDirty() {
		t.Fatal("expected dirty after mutation")
	}
	if err := s.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if s.IsDirty() {
		t.Error("expected clean after persist")
	}
}

func TestApplyDefaultsClearsDirtyWithoutPersisting(t *testing.T) {
	s := newStore(t)
	s.Update(func(cfg *core.Settings) {
		cfg.Mode = core.ModeFire
		cfg.Brightness = 10
	})
	if err := s.Persist(); err != nil {
		t.Fatal(err)
	}
	s.Update(func(cfg *core.Settings) { cfg.Speed = 999 })

	s.ApplyDefaults()

	if s.IsDirty() {
		t.Error("expected clean right after ApplyDefaults")
	}
	if got := s.Snapshot(); got != core.DefaultSettings() {
		t.Errorf("expected defaults, got %+v", got)
	}
	saved, err := s.LoadSaved()
	if err != nil {
		t.Fatal(err)
	}
	if saved.Mode != core.ModeFire {
		t.Errorf("ApplyDefaults must not touch the file, saved mode %q", saved.Mode)
	}
}

func TestPersistFailureKeepsMemory(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "missing-dir", "settings.json"), core.DefaultSettings())
	s.Update(func(cfg *core.Settings) { cfg.Mode = core.ModeOn })

	if err := s.Persist(); err == nil {
		t.Fatal("expected persist into a missing directory to fail")
	}
	if s.Snapshot().Mode != core.ModeOn {
		t.Error("in-memory settings must survive a failed persist")
	}
	if !s.IsDirty() {
		t.Error("store must stay dirty after a failed persist")
	}
}

func TestLoadSanitizesOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	data := []byte(`{"mode":"rainbow","color":"red","brightness":400,"speed":5}`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	got := Open(path, core.DefaultSettings()).Snapshot()
	if got.Mode != core.ModeRainbow || got.Brightness != 100 || got.Speed != 20 {
		t.Errorf("unexpected sanitized settings: %+v", got)
	}
}

func TestPendingDirectivePersistsPreviousMode(t *testing.T) {
	s := newStore(t)
	s.Update(func(cfg *core.Settings) {
		*cfg = core.Settings{Mode: core.DirectiveSave, Color: "teal", Brightness: 100, Speed: 500, PreviousMode: core.ModeRainbow}
	})
	if err := s.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}
	if len(fields) != 4 || fields["mode"] != "rainbow" {
		t.Errorf("expected the four field record with mode rainbow, got %s", data)
	}

	want := core.Settings{Mode: core.ModeRainbow, Color: "teal", Brightness: 100, Speed: 500}
	if got := Open(s.Path(), core.DefaultSettings()).Snapshot(); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestFingerprintIgnoresDirectiveBookkeeping(t *testing.T) {
	pending := core.Settings{Mode: core.DirectiveInfo, Color: "red", Brightness: 100, Speed: 20, PreviousMode: core.ModeFire}
	settled := core.Settings{Mode: core.ModeFire, Color: "red", Brightness: 100, Speed: 20}
	if Fingerprint(pending) != Fingerprint(settled) {
		t.Error("a pending directive should fingerprint as the mode it restores")
	}
	if Fingerprint(settled) == Fingerprint(core.DefaultSettings()) {
		t.Error("different modes should not share a fingerprint")
	}
}
