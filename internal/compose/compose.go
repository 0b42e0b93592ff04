// Package compose builds matrix-sized frames out of a background and a
// foreground canvas, applying opacity and shadow on the way.
package compose

import (
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/pkg/errors"
)

// Background is either a solid color or a decoded image. The zero value is
// solid black.
type Background struct {
	color color.NRGBA
	img   image.Image
}

// SolidBackground returns a background filled with c.
func SolidBackground(c color.NRGBA) Background {
	c.A = 0xFF
	return Background{color: c}
}

// ImageBackground decodes the image at path once and uses it as the
// background. The path must be absolute when running from an init script.
func ImageBackground(path string) (Background, error) {
	f, err := os.Open(path)
	if err != nil {
		return Background{}, errors.Wrapf(err, "background image %s", path)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return Background{}, errors.Wrapf(err, "decode background %s", path)
	}
	return Background{img: img}, nil
}

// Params control how the foreground is merged over the background.
type Params struct {
	Opacity         float64 // 0..1, clamped
	ShadowIntensity float64 // 0..1
	ShadowOffset    int     // pixels toward the lower right
}

// Frame composes a w x h frame: background, then the foreground's shadow,
// then the foreground itself at (x, y) with the given opacity.
func Frame(w, h int, bg Background, fg *image.NRGBA, x, y int, p Params) *image.NRGBA {
	combined := image.NewNRGBA(image.Rect(0, 0, w, h))
	if bg.img != nil {
		draw.Draw(combined, combined.Bounds(), bg.img, bg.img.Bounds().Min, draw.Over)
	} else {
		fill(combined, bg.color)
	}

	// Place the foreground into a frame-sized layer, clipping anything that
	// hangs off the top-left edge.
	srcX, srcY := 0, 0
	if x < 0 {
		srcX, x = -x, 0
	}
	if y < 0 {
		srcY, y = -y, 0
	}
	layer := image.NewNRGBA(image.Rect(0, 0, w, h))
	if fg != nil && srcX < fg.Bounds().Dx() && srcY < fg.Bounds().Dy() {
		srcPt := fg.Bounds().Min.Add(image.Pt(srcX, srcY))
		draw.Draw(layer, image.Rect(x, y, w, h), fg, srcPt, draw.Over)
	}

	opacity := clamp01(p.Opacity)

	if p.ShadowIntensity > 0 {
		level := round255(clamp01(p.ShadowIntensity) * opacity)
		off := p.ShadowOffset
		for py := 0; py < h; py++ {
			for px := 0; px < w; px++ {
				a := alphaAt(layer, px-off, py-off)
				if a > level {
					a = level
				}
				if a == 0 {
					continue
				}
				darken(combined, px, py, a)
			}
		}
	}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	op := round255(opacity)
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			lo := layer.PixOffset(px, py)
			a := uint32(layer.Pix[lo+3])
			if a > uint32(op) {
				a = uint32(op)
			}
			co := combined.PixOffset(px, py)
			oo := out.PixOffset(px, py)
			for c := 0; c < 3; c++ {
				f := uint32(layer.Pix[lo+c])
				b := uint32(combined.Pix[co+c])
				out.Pix[oo+c] = byte((f*a + b*(255-a)) / 255)
			}
			out.Pix[oo+3] = 0xFF
		}
	}
	return out
}

// LoopImage attaches a copy of src offset by (dx, dy) so looping motion can
// wrap seamlessly.
func LoopImage(src *image.NRGBA, dx, dy int) *image.NRGBA {
	b := src.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx()+dx, b.Dy()+dy))
	draw.Draw(out, b.Sub(b.Min), src, b.Min, draw.Over)
	draw.Draw(out, b.Sub(b.Min).Add(image.Pt(dx, dy)), src, b.Min, draw.Over)
	return out
}

func fill(img *image.NRGBA, c color.NRGBA) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
}

func alphaAt(img *image.NRGBA, x, y int) byte {
	if !(image.Pt(x, y).In(img.Bounds())) {
		return 0
	}
	return img.Pix[img.PixOffset(x, y)+3]
}

// darken pulls a pixel toward black by m/255.
func darken(img *image.NRGBA, x, y int, m byte) {
	o := img.PixOffset(x, y)
	k := uint32(255 - m)
	for c := 0; c < 3; c++ {
		img.Pix[o+c] = byte(uint32(img.Pix[o+c]) * k / 255)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round255(v float64) byte {
	n := int(v*255 + 0.5)
	if n < 0 {
		n = 0
	}
	if n > 255 {
		n = 255
	}
	return byte(n)
}
