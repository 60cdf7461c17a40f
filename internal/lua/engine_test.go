package lua

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"neopixel-controller/internal/effects"
	"neopixel-controller/internal/palette"
	"neopixel-controller/internal/strip"
)

const gradientScript = `
needs_color = true
function frame(n)
  local r, g, b = color()
  for i = 0, num_leds() - 1 do
    set_pixel(i, r, g, b)
  end
end
`

func TestProbeReadsNeedsColor(t *testing.T) {
	s, err := Probe("gradient", gradientScript)
	if err != nil {
		t.Fatal(err)
	}
	if !s.NeedsColor {
		t.Error("expected needs_color to be picked up")
	}
	if e := s.Effect(); e.Mode != "gradient" || !e.NeedsColor {
		t.Errorf("unexpected effect %+v", e)
	}
}

func TestProbeRejectsBrokenScripts(t *testing.T) {
	for name, code := range map[string]string{
		"syntax":   "function frame(n",
		"noframe":  "x = 1",
		"drawload": "set_pixel(0, 1, 2, 3)\nfunction frame(n) end",
	} {
		if _, err := Probe(name, code); err == nil {
			t.Errorf("%s: expected probe error", name)
		}
	}
}

func TestScriptRunsFramesUntilCancelled(t *testing.T) {
	s, err := Probe("gradient", gradientScript)
	if err != nil {
		t.Fatal(err)
	}

	driver := strip.NewMemoryDriver()
	px := strip.New(driver, 4)
	ctx, cancel := context.WithCancel(context.Background())
	driver.OnWrite = func(frame []byte) {
		if driver.Writes() >= 3 {
			cancel()
		}
	}

	params := effects.Params{Brightness: 1, Color: palette.RGB{R: 10, G: 20, B: 30}, HasColor: true, Speed: time.Millisecond}
	err = s.Run(ctx, px, params)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := px.At(3); got != (palette.RGB{R: 10, G: 20, B: 30}) {
		t.Errorf("unexpected pixel %v", got)
	}
	if driver.Writes() != 3 {
		t.Errorf("expected 3 frames, got %d", driver.Writes())
	}
}

func TestScriptRuntimeErrorStopsEffect(t *testing.T) {
	s, err := Probe("broken", "function frame(n) if n == 2 then error('boom') end end")
	if err != nil {
		t.Fatal(err)
	}
	px := strip.New(strip.NewMemoryDriver(), 1)
	err = s.Run(context.Background(), px, effects.Params{})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected script error, got %v", err)
	}
}

func TestLibraryRoundTripAndLoad(t *testing.T) {
	lib := NewLibrary(filepath.Join(t.TempDir(), "scripts"))

	if names, err := lib.List(); err != nil || len(names) != 0 {
		t.Fatalf("missing directory should list nothing: %v %v", names, err)
	}
	if err := lib.Save("gradient", gradientScript); err != nil {
		t.Fatal(err)
	}
	if err := lib.Save("broken.lua", "function"); err != nil {
		t.Fatal(err)
	}

	names, err := lib.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "broken" || names[1] != "gradient" {
		t.Errorf("unexpected names %v", names)
	}

	loaded, err := LoadEffects(lib)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 || loaded[0].Mode != "gradient" {
		t.Errorf("expected only gradient to load, got %+v", loaded)
	}

	if err := lib.Delete("broken"); err != nil {
		t.Fatal(err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	for _, bad := range []string{"../evil", "a/b.lua", ".lua", "..lua"} {
		if _, err := sanitizeFilename(bad); err == nil {
			t.Errorf("%q should be rejected", bad)
		}
	}
	if got, err := sanitizeFilename("plasma"); err != nil || got != "plasma.lua" {
		t.Errorf("unexpected %q %v", got, err)
	}
}
