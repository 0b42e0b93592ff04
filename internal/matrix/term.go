package matrix

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/display"
	"periph.io/x/extra/devices/screen"
)

// TermDriver renders frames as ANSI colors on the terminal. It is the
// fallback when no SPI port is available.
type TermDriver struct {
	drawer display.Drawer
	img    *image.NRGBA
}

// NewTerm returns a terminal driver for the given pixel count.
func NewTerm(pixels int) *TermDriver {
	d := screen.New(pixels)
	return &TermDriver{
		drawer: d,
		img:    image.NewNRGBA(d.Bounds()),
	}
}

func (d *TermDriver) Write(rgb []byte) error {
	n := len(rgb) / 3
	b := d.img.Bounds()
	if n > b.Dx()*b.Dy() {
		n = b.Dx() * b.Dy()
	}
	for i := 0; i < n; i++ {
		x := b.Min.X + i%b.Dx()
		y := b.Min.Y + i/b.Dx()
		d.img.SetNRGBA(x, y, color.NRGBA{R: rgb[i*3], G: rgb[i*3+1], B: rgb[i*3+2], A: 0xFF})
	}
	if err := d.drawer.Draw(d.drawer.Bounds(), d.img, image.Point{}); err != nil {
		return errors.Wrap(err, "term draw")
	}
	return nil
}

func (d *TermDriver) Close() error { return d.drawer.Halt() }
