package strip

import (
	"fmt"
	"os"

	"periph.io/x/conn/v3/physic"
)

// Driver kinds accepted by OpenDriver.
const (
	DriverSPI     = "spi"
	DriverConsole = "console"
	DriverNone    = "none"
)

// Options selects and configures the output driver.
type Options struct {
	Driver       string
	SPIPort      string
	FrequencyKHz int
	NumLEDs      int
}

// OpenDriver creates the driver named by opts.Driver.
func OpenDriver(opts Options) (Driver, error) {
	switch opts.Driver {
	case DriverSPI:
		return NewSPIDriver(opts.SPIPort, opts.NumLEDs, physic.Frequency(opts.FrequencyKHz)*physic.KiloHertz)
	case DriverConsole:
		return NewConsoleDriver(os.Stdout), nil
	case DriverNone, "":
		return NewMemoryDriver(), nil
	default:
		return nil, fmt.Errorf("unknown strip driver %q", opts.Driver)
	}
}
