// Package effects defines the animation contract and the built-in animations.
//
// An animation renders an endless sequence of frames. After every frame it
// parks in Show, which is where cancellation is observed.
package effects

import (
	"context"
	"errors"
	"time"

	"neopixel-controller/internal/core"
	"neopixel-controller/internal/palette"
)

var (
	ErrUnknownEffect = errors.New("unknown effect")
	ErrColorRequired = errors.New("effect requires a color")
	ErrNoPixels      = errors.New("strip has no pixels")
)

// Pixels is the output surface an animation draws on.
type Pixels interface {
	Len() int
	Set(i int, c palette.RGB)
	At(i int) palette.RGB
	Fill(c palette.RGB)
	Show() error
}

// Params are frozen when an animation starts.
type Params struct {
	Brightness float64 // 0..1
	Color      palette.RGB
	HasColor   bool
	Speed      time.Duration // delay between frames
}

// RunFunc renders frames until ctx is cancelled or the output fails.
type RunFunc func(ctx context.Context, px Pixels, p Params) error

// Effect is one registered animation variant.
type Effect struct {
	Mode       core.Mode
	NeedsColor bool
	Run        RunFunc
}

// Show writes the current frame and parks for delay. It returns ctx.Err()
// when the animation has been asked to stop.
func Show(ctx context.Context, px Pixels, delay time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := px.Show(); err != nil {
		return err
	}
	if delay <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
