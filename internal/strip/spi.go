package strip

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// spiDriver encodes frames as the WS2812 NRZ bit stream over an SPI port.
type spiDriver struct {
	port spi.PortCloser
	dev  *nrzled.Dev
}

// NewSPIDriver opens the named SPI port (e.g. "SPI0.0") for n LEDs.
func NewSPIDriver(portName string, n int, freq physic.Frequency) (Driver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port '%s': %w", portName, err)
	}

	opts := nrzled.DefaultOpts
	opts.NumPixels = n
	opts.Channels = 3
	if freq > 0 {
		opts.Freq = freq
	}

	dev, err := nrzled.NewSPI(port, &opts)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to create NRZ LED device on '%s': %w", portName, err)
	}

	log.Printf("[Strip] Driving %d LEDs on %s at %s.", n, portName, opts.Freq)
	return &spiDriver{port: port, dev: dev}, nil
}

func (d *spiDriver) Write(pixels []byte) (int, error) {
	return d.dev.Write(pixels)
}

func (d *spiDriver) Halt() error {
	haltErr := d.dev.Halt()
	if err := d.port.Close(); err != nil && haltErr == nil {
		return err
	}
	return haltErr
}
