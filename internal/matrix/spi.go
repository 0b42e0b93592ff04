package matrix

import (
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// refreshRate is the per-pixel refresh clock the NRZ encoder is driven at.
const refreshRate physic.Frequency = 800

var hostOnce sync.Once

// SPIDriver streams frames to chained panels over spidev using the NRZ
// one-wire encoding.
type SPIDriver struct {
	port spi.PortCloser
	dev  *nrzled.Dev
}

// NewSPI opens the named SPI port ("" picks the first registered one) and
// prepares an NRZ encoder for the given pixel count.
func NewSPI(portName string, pixels int) (*SPIDriver, error) {
	if pixels <= 0 {
		return nil, errors.Errorf("invalid pixel count: %d", pixels)
	}
	var hostErr error
	hostOnce.Do(func() { _, hostErr = host.Init() })
	if hostErr != nil {
		return nil, errors.Wrap(hostErr, "host init")
	}
	port, err := spireg.Open(portName)
	if err != nil {
		return nil, errors.Wrap(err, "open spi port")
	}
	dev, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: pixels,
		Channels:  3,
		Freq:      ((refreshRate * 3) + 100) * physic.KiloHertz,
	})
	if err != nil {
		_ = port.Close()
		return nil, errors.Wrap(err, "nrzled")
	}
	return &SPIDriver{port: port, dev: dev}, nil
}

func (d *SPIDriver) Write(rgb []byte) error {
	if _, err := d.dev.Write(rgb); err != nil {
		return errors.Wrap(err, "spi write")
	}
	return nil
}

func (d *SPIDriver) Close() error {
	if err := d.dev.Halt(); err != nil {
		_ = d.port.Close()
		return err
	}
	return d.port.Close()
}
