// Package palette holds the named colors understood by the controller and the
// small amount of color math shared by the effects.
package palette

import (
	"fmt"
	"sort"
)

// RGB is a 24-bit pixel color.
type RGB struct {
	R, G, B uint8
}

var (
	Black = RGB{0, 0, 0}
	White = RGB{255, 255, 255}
)

var named = map[string]RGB{
	"black":   Black,
	"white":   White,
	"red":     {255, 0, 0},
	"pink":    {255, 20, 147},
	"magenta": {255, 0, 255},
	"purple":  {128, 0, 128},
	"blue":    {0, 0, 255},
	"cyan":    {0, 255, 255},
	"teal":    {0, 128, 128},
	"green":   {0, 255, 0},
	"yellow":  {255, 255, 0},
	"orange":  {255, 165, 0},
	"warm":    {255, 223, 180},
}

// Lookup resolves a color name.
func Lookup(name string) (RGB, bool) {
	c, ok := named[name]
	return c, ok
}

// Names returns the known color names in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(named))
	for n := range named {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Scale multiplies every channel by f, clamped to [0, 1].
func (c RGB) Scale(f float64) RGB {
	if f <= 0 {
		return Black
	}
	if f >= 1 {
		return c
	}
	return RGB{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
	}
}

// Hex formats the color as #RRGGBB.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Level converts a 0-100 brightness percentage into a scale factor.
func Level(percent int) float64 {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return float64(percent) / 100
}

// Wheel walks red -> green -> blue -> red over pos 0..255.
func Wheel(pos uint8) RGB {
	switch {
	case pos < 85:
		return RGB{pos * 3, 255 - pos*3, 0}
	case pos < 170:
		pos -= 85
		return RGB{255 - pos*3, 0, pos * 3}
	default:
		pos -= 170
		return RGB{0, pos * 3, 255 - pos*3}
	}
}

// Heat maps a 0..255 temperature onto a red-yellow-white gradient.
func Heat(h uint8) RGB {
	switch {
	case h <= 85:
		return RGB{h * 3, 0, 0}
	case h <= 170:
		return RGB{255, (h - 85) * 3, 0}
	default:
		return RGB{255, 255, (h - 170) * 3}
	}
}
