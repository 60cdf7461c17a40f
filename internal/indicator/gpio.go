package indicator

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

type gpioOutput struct {
	line *gpiocdev.Line
}

// NewGPIOOutput requests offset on the named GPIO chip (e.g. "gpiochip0") as an output.
func NewGPIOOutput(chip string, offset int) (Output, error) {
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("neopixeld"))
	if err != nil {
		return nil, fmt.Errorf("failed to request %s line %d: %w", chip, offset, err)
	}
	return &gpioOutput{line: line}, nil
}

func (g *gpioOutput) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	return g.line.SetValue(v)
}

func (g *gpioOutput) Close() error {
	return g.line.Close()
}

// Discard is an Output that only remembers the last level.
type Discard struct {
	On bool
}

func (d *Discard) Set(on bool) error {
	d.On = on
	return nil
}

func (d *Discard) Close() error { return nil }
