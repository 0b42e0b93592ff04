// Package opensign facilitates easy RGB matrix sign animations. A Canvas
// holds the text and graphics to convey; a Sign owns the matrix and moves
// the canvas around it.
package opensign

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/Maker-Melissa/OpenSign/internal/compose"
	"github.com/Maker-Melissa/OpenSign/internal/matrix"
)

// Options configure the sign hardware. Zero fields fall back to a single
// 32x16 panel on an Adafruit HAT at full brightness.
type Options struct {
	Rows        int
	Columns     int
	ChainLength int
	Parallel    int
	Brightness  int // 0..100

	GPIOMapping string
	PWMBits     int
	PanelType   string
	RGBSequence string

	ShowRefresh          bool
	GPIOSlowdown         int
	DisableHardwarePulse bool
	PWMLSBNanoseconds    int
	RowAddrType          int
	Multiplexing         int
	PixelMapper          string

	// Driver selects the output: "spi", "term" or "sim". Empty tries SPI
	// and falls back to the terminal when no port is available.
	Driver string
	// SPIPort names the spidev port; empty picks the first registered one.
	SPIPort string

	// FrameObserver, when set, receives every presented frame as packed
	// RGB bytes in strip order. The slice is only valid during the call.
	FrameObserver func(rgb []byte)
}

func (o Options) matrixOptions() matrix.Options {
	return matrix.Options{
		Rows:                 o.Rows,
		Cols:                 o.Columns,
		ChainLength:          o.ChainLength,
		Parallel:             o.Parallel,
		Brightness:           o.Brightness,
		GPIOMapping:          o.GPIOMapping,
		PWMBits:              o.PWMBits,
		PanelType:            o.PanelType,
		RGBSequence:          o.RGBSequence,
		GPIOSlowdown:         o.GPIOSlowdown,
		PWMLSBNanoseconds:    o.PWMLSBNanoseconds,
		RowAddrType:          o.RowAddrType,
		Multiplexing:         o.Multiplexing,
		PixelMapper:          o.PixelMapper,
		ShowRefresh:          o.ShowRefresh,
		DisableHardwarePulse: o.DisableHardwarePulse,
	}
}

// Sign controls the display and the graphics effects.
type Sign struct {
	m   *matrix.Matrix
	bg  compose.Background
	pos image.Point
}

// New opens the configured driver and returns a ready sign.
func New(opts Options) (*Sign, error) {
	mo := opts.matrixOptions()
	if err := mo.Normalize(); err != nil {
		return nil, err
	}

	var drv matrix.Driver
	switch opts.Driver {
	case "sim":
		drv = matrix.NewSim(mo.Pixels())
	case "term":
		drv = matrix.NewTerm(mo.Pixels())
	case "spi":
		d, err := matrix.NewSPI(opts.SPIPort, mo.Pixels())
		if err != nil {
			return nil, err
		}
		drv = d
	case "":
		d, err := matrix.NewSPI(opts.SPIPort, mo.Pixels())
		if err != nil {
			log.Warn().Err(err).Msg("no SPI port; rendering to the terminal")
			drv = matrix.NewTerm(mo.Pixels())
		} else {
			drv = d
		}
	default:
		return nil, errors.Errorf("unknown driver %q", opts.Driver)
	}

	m, err := matrix.New(drv, mo)
	if err != nil {
		_ = drv.Close()
		return nil, err
	}
	if opts.FrameObserver != nil {
		m.SetObserver(opts.FrameObserver)
	}
	return newSign(m), nil
}

func newSign(m *matrix.Matrix) *Sign {
	return &Sign{
		m:  m,
		bg: compose.SolidBackground(color.NRGBA{}),
	}
}

// Width returns the display width in pixels.
func (s *Sign) Width() int { return s.m.Width() }

// Height returns the display height in pixels.
func (s *Sign) Height() int { return s.m.Height() }

// Close blanks the display and releases the driver.
func (s *Sign) Close() error { return s.m.Close() }

// SetBackgroundColor sets the background to a solid color.
func (s *Sign) SetBackgroundColor(c color.Color) {
	s.bg = compose.SolidBackground(toNRGBA(c))
}

// SetBackgroundImage sets the background to the image at path. The file is
// decoded once; use an absolute path when started from an init script.
func (s *Sign) SetBackgroundImage(path string) error {
	bg, err := compose.ImageBackground(path)
	if err != nil {
		return err
	}
	s.bg = bg
	return nil
}

// SetPosition instantly moves the canvas to (x, y). (0, 0) is the top-left
// corner of the display.
func (s *Sign) SetPosition(c *Canvas, x, y int) error {
	return s.draw(c, x, y, 1.0)
}

// Show displays the canvas at its current position.
func (s *Sign) Show(c *Canvas) error {
	return s.draw(c, s.pos.X, s.pos.Y, 1.0)
}

// Hide blanks the canvas at its current position, leaving the background.
func (s *Sign) Hide(c *Canvas) error {
	return s.draw(c, s.pos.X, s.pos.Y, 0)
}

// draw presents a canvas frame, folding the canvas's own opacity and shadow
// settings into the composition, and records the position.
func (s *Sign) draw(c *Canvas, x, y int, opacity float64) error {
	return s.drawImage(c.Image(), x, y, opacity*c.Opacity(), c.ShadowIntensity(), c.ShadowOffset())
}

// drawImage presents an arbitrary foreground image with explicit settings.
func (s *Sign) drawImage(img *image.NRGBA, x, y int, opacity, shadowIntensity float64, shadowOffset int) error {
	s.pos = image.Pt(x, y)
	frame := compose.Frame(s.m.Width(), s.m.Height(), s.bg, img, x, y, compose.Params{
		Opacity:         opacity,
		ShadowIntensity: shadowIntensity,
		ShadowOffset:    shadowOffset,
	})
	s.m.SetImage(frame, 0, 0)
	return s.m.Swap()
}

// centered returns the position that centers the canvas on the display.
func (s *Sign) centered(c *Canvas) (int, int) {
	return (s.m.Width() - c.Width()) / 2, (s.m.Height() - c.Height()) / 2
}
