package strip

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"

	"neopixel-controller/internal/palette"
)

const consoleGlyph = "●"

// consoleDriver previews the strip as a row of colored glyphs on a terminal.
type consoleDriver struct {
	mu  sync.Mutex
	out io.Writer
	tty bool
	sb  strings.Builder
}

// NewConsoleDriver previews frames on out. When out is not a terminal every
// frame is logged at debug level instead.
func NewConsoleDriver(out io.Writer) Driver {
	tty := false
	if f, ok := out.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return &consoleDriver{out: out, tty: tty}
}

func (d *consoleDriver) Write(pixels []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.tty {
		log.Debugf("[Strip] frame of %d LEDs, first pixel %s", len(pixels)/3, firstPixel(pixels).Hex())
		return len(pixels), nil
	}

	d.sb.Reset()
	d.sb.WriteString("\r")
	for i := 0; i+2 < len(pixels); i += 3 {
		c := palette.RGB{R: pixels[i], G: pixels[i+1], B: pixels[i+2]}
		d.sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render(consoleGlyph))
	}
	if _, err := io.WriteString(d.out, d.sb.String()); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

func (d *consoleDriver) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tty {
		_, err := io.WriteString(d.out, "\n")
		return err
	}
	return nil
}

func firstPixel(pixels []byte) palette.RGB {
	if len(pixels) < 3 {
		return palette.Black
	}
	return palette.RGB{R: pixels[0], G: pixels[1], B: pixels[2]}
}
