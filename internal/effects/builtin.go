package effects

import (
	"context"
	"math"
	"math/rand/v2"

	"neopixel-controller/internal/core"
	"neopixel-controller/internal/palette"
)

var builtins = []Effect{
	{Mode: core.ModeRainbow, Run: rainbow},
	{Mode: core.ModeRainbowCycle, Run: rainbowCycle},
	{Mode: core.ModeRainbowSolid, Run: rainbowSolid},
	{Mode: core.ModeTheatreChase, NeedsColor: true, Run: theatreChase},
	{Mode: core.ModeFadeInOut, NeedsColor: true, Run: fadeInOut},
	{Mode: core.ModeColorWipe, NeedsColor: true, Run: colorWipe},
	{Mode: core.ModeBreathe, NeedsColor: true, Run: breathe},
	{Mode: core.ModeSparkle, NeedsColor: true, Run: sparkle},
	{Mode: core.ModeFire, Run: fire},
	{Mode: core.ModeMeteorRain, NeedsColor: true, Run: meteorRain},
}

func rainbow(ctx context.Context, px Pixels, p Params) error {
	n := px.Len()
	for j := 0; ; j = (j + 1) & 255 {
		for i := 0; i < n; i++ {
			px.Set(i, palette.Wheel(uint8(i+j)).Scale(p.Brightness))
		}
		if err := Show(ctx, px, p.Speed); err != nil {
			return err
		}
	}
}

func rainbowCycle(ctx context.Context, px Pixels, p Params) error {
	n := px.Len()
	if n == 0 {
		return ErrNoPixels
	}
	for j := 0; ; j = (j + 1) & 255 {
		for i := 0; i < n; i++ {
			px.Set(i, palette.Wheel(uint8(i*256/n+j)).Scale(p.Brightness))
		}
		if err := Show(ctx, px, p.Speed); err != nil {
			return err
		}
	}
}

func rainbowSolid(ctx context.Context, px Pixels, p Params) error {
	for j := 0; ; j = (j + 1) & 255 {
		px.Fill(palette.Wheel(uint8(j)).Scale(p.Brightness))
		if err := Show(ctx, px, p.Speed); err != nil {
			return err
		}
	}
}

func theatreChase(ctx context.Context, px Pixels, p Params) error {
	n := px.Len()
	c := p.Color.Scale(p.Brightness)
	for {
		for q := 0; q < 3; q++ {
			for i := q; i < n; i += 3 {
				px.Set(i, c)
			}
			if err := Show(ctx, px, p.Speed); err != nil {
				return err
			}
			for i := q; i < n; i += 3 {
				px.Set(i, palette.Black)
			}
		}
	}
}

func fadeInOut(ctx context.Context, px Pixels, p Params) error {
	level := func(l int) error {
		px.Fill(p.Color.Scale(float64(l) / 100 * p.Brightness))
		return Show(ctx, px, p.Speed)
	}
	for {
		for l := 0; l <= 100; l++ {
			if err := level(l); err != nil {
				return err
			}
		}
		for l := 100; l >= 0; l-- {
			if err := level(l); err != nil {
				return err
			}
		}
	}
}

func colorWipe(ctx context.Context, px Pixels, p Params) error {
	n := px.Len()
	if n == 0 {
		return ErrNoPixels
	}
	c := p.Color.Scale(p.Brightness)
	for {
		for _, fill := range []palette.RGB{c, palette.Black} {
			for i := 0; i < n; i++ {
				px.Set(i, fill)
				if err := Show(ctx, px, p.Speed); err != nil {
					return err
				}
			}
		}
	}
}

func breathe(ctx context.Context, px Pixels, p Params) error {
	level := func(l int) error {
		f := (math.Sin(float64(l)*math.Pi/100-math.Pi/2) + 1) / 2 * p.Brightness
		px.Fill(p.Color.Scale(f))
		return Show(ctx, px, p.Speed)
	}
	for {
		for l := 0; l <= 100; l++ {
			if err := level(l); err != nil {
				return err
			}
		}
		for l := 100; l >= 0; l-- {
			if err := level(l); err != nil {
				return err
			}
		}
	}
}

const sparkleCount = 15

func sparkle(ctx context.Context, px Pixels, p Params) error {
	n := px.Len()
	c := p.Color.Scale(p.Brightness)
	count := min(sparkleCount, n)
	lit := make(map[int]struct{}, count)

	for {
		px.Fill(palette.Black)
		clear(lit)
		for len(lit) < count {
			lit[rand.IntN(n)] = struct{}{}
		}
		for i := range lit {
			px.Set(i, c)
		}
		if err := Show(ctx, px, p.Speed); err != nil {
			return err
		}

		for i := range lit {
			px.Set(i, palette.Black)
		}
		if err := Show(ctx, px, p.Speed); err != nil {
			return err
		}
	}
}

// Fire simulation tuning.
const (
	fireCooling  = 55
	fireSparking = 40
)

func fire(ctx context.Context, px Pixels, p Params) error {
	n := px.Len()
	if n == 0 {
		return ErrNoPixels
	}
	heat := make([]int, n)

	for {
		for i := range heat {
			heat[i] = max(0, heat[i]-rand.IntN(fireCooling*10/n+3))
		}
		for i := n - 1; i > 1; i-- {
			heat[i] = (heat[i-1] + 2*heat[i-2]) / 3
		}
		if rand.IntN(256) < fireSparking {
			spark := rand.IntN(min(8, n))
			heat[spark] = min(255, heat[spark]+160+rand.IntN(96))
		}

		for i, h := range heat {
			px.Set(i, palette.Heat(uint8(h)).Scale(p.Brightness))
		}
		if err := Show(ctx, px, p.Speed); err != nil {
			return err
		}
	}
}

// Meteor tuning.
const (
	meteorSize  = 15
	meteorDecay = 0.7
)

func meteorRain(ctx context.Context, px Pixels, p Params) error {
	n := px.Len()
	c := p.Color.Scale(p.Brightness)

	for {
		px.Fill(palette.Black)
		for start := 0; start < n+meteorSize; start++ {
			for i := 0; i < n; i++ {
				px.Set(i, px.At(i).Scale(meteorDecay))
			}
			for j := 0; j < meteorSize; j++ {
				if k := start - j; k >= 0 && k < n {
					px.Set(k, c)
				}
			}
			if err := Show(ctx, px, p.Speed); err != nil {
				return err
			}
		}
	}
}
