package opensign

import (
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ErrFontNotFound is returned when a font name was never added to the pool.
var ErrFontNotFound = errors.New("font name not found")

// Canvas is an empty surface that text and graphics are added to. It grows
// automatically as content is added; display it on the sign and use the
// animation methods to convey it.
type Canvas struct {
	fonts   map[string]font.Face
	current font.Face

	img    *image.NRGBA
	cursor image.Point

	color       color.NRGBA
	strokeWidth int
	strokeColor *color.NRGBA

	shadowIntensity float64
	shadowOffset    int
	opacity         float64
}

// NewCanvas returns an empty canvas with the default style: red text, no
// stroke, no shadow, fully opaque.
func NewCanvas() *Canvas {
	return &Canvas{
		fonts:   map[string]font.Face{},
		img:     image.NewNRGBA(image.Rect(0, 0, 0, 0)),
		color:   color.NRGBA{R: 0xFF, A: 0xFF},
		opacity: 1.0,
	}
}

// AddFont loads a TrueType font at the given point size into the pool under
// name. The first font added becomes the current font; pass use to switch
// to it explicitly.
func (c *Canvas) AddFont(name, path string, points float64, use bool) error {
	if points <= 0 {
		return errors.Errorf("font %s: point size must be positive", name)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "font %s", name)
	}
	ft, err := opentype.Parse(raw)
	if err != nil {
		return errors.Wrapf(err, "parse font %s", name)
	}
	face, err := opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    points,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return errors.Wrapf(err, "face %s", name)
	}
	c.fonts[name] = face
	if use || c.current == nil {
		c.current = face
	}
	return nil
}

// SetFont switches the current font to a previously added one.
func (c *Canvas) SetFont(name string) error {
	face, ok := c.fonts[name]
	if !ok {
		return ErrFontNotFound
	}
	c.current = face
	return nil
}

// SetColor sets the current text color.
func (c *Canvas) SetColor(col color.Color) { c.color = toNRGBA(col) }

// SetStroke sets the text outline width in pixels and its color. A nil
// color removes the stroke color override.
func (c *Canvas) SetStroke(width int, col color.Color) {
	if width < 0 {
		width = 0
	}
	c.strokeWidth = width
	if col == nil {
		c.strokeColor = nil
		return
	}
	sc := toNRGBA(col)
	c.strokeColor = &sc
}

// SetShadow makes the canvas cast a shadow of its content. Intensity 0
// turns the shadow off; offset is in pixels toward the lower right.
func (c *Canvas) SetShadow(intensity float64, offset int) {
	c.shadowIntensity = clampUnit(intensity)
	if offset < 0 {
		offset = 0
	}
	c.shadowOffset = offset
}

// TextOption overrides a single AddText setting for one call.
type TextOption func(*textSettings)

type textSettings struct {
	color       *color.NRGBA
	fontName    string
	strokeWidth *int
	strokeColor *color.NRGBA
	xOffset     int
	yOffset     int
}

// WithColor overrides the text color for one AddText call.
func WithColor(col color.Color) TextOption {
	return func(s *textSettings) {
		nc := toNRGBA(col)
		s.color = &nc
	}
}

// WithFont overrides the font by pool name for one AddText call.
func WithFont(name string) TextOption {
	return func(s *textSettings) { s.fontName = name }
}

// WithStroke overrides the stroke width and color for one AddText call.
func WithStroke(width int, col color.Color) TextOption {
	return func(s *textSettings) {
		s.strokeWidth = &width
		if col != nil {
			sc := toNRGBA(col)
			s.strokeColor = &sc
		}
	}
}

// WithNudge shifts the drawn text by (dx, dy) pixels without moving the
// cursor.
func WithNudge(dx, dy int) TextOption {
	return func(s *textSettings) { s.xOffset, s.yOffset = dx, dy }
}

// AddText draws text at the cursor using the current style, enlarging the
// canvas as needed. Embedded newlines wrap to the next line.
func (c *Canvas) AddText(text string, opts ...TextOption) error {
	var s textSettings
	for _, o := range opts {
		o(&s)
	}

	face := c.current
	if s.fontName != "" {
		f, ok := c.fonts[s.fontName]
		if !ok {
			return ErrFontNotFound
		}
		face = f
	}
	if face == nil {
		face = basicfont.Face7x13
	}

	col := c.color
	if s.color != nil {
		col = *s.color
	}
	width := c.strokeWidth
	if s.strokeWidth != nil {
		width = *s.strokeWidth
		if width < 0 {
			width = 0
		}
	}
	strokeCol := c.strokeColor
	if s.strokeColor != nil {
		strokeCol = s.strokeColor
	}

	metrics := face.Metrics()
	lineX := c.cursor.X
	y := c.cursor.Y

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		textW := font.MeasureString(face, line).Ceil() + 2*width
		textH := metrics.Height.Ceil() + 2*width
		c.enlarge(textW, textH)

		dot := fixed.P(lineX+s.xOffset+width, y+s.yOffset+width+metrics.Ascent.Ceil())
		if width > 0 {
			sc := col
			if strokeCol != nil {
				sc = *strokeCol
			}
			c.strokeText(face, line, dot, width, sc)
		}
		d := font.Drawer{
			Dst:  c.img,
			Src:  image.NewUniform(col),
			Face: face,
			Dot:  dot,
		}
		d.DrawString(line)

		c.cursor.X += textW
		if i < len(lines)-1 {
			y += textH
			c.cursor.X = 0
			c.cursor.Y += textH
		}
	}
	return nil
}

// strokeText draws line repeatedly around dot to outline it.
func (c *Canvas) strokeText(face font.Face, line string, dot fixed.Point26_6, width int, col color.NRGBA) {
	src := image.NewUniform(col)
	for dy := -width; dy <= width; dy++ {
		for dx := -width; dx <= width; dx++ {
			if dx*dx+dy*dy > width*width {
				continue
			}
			d := font.Drawer{
				Dst:  c.img,
				Src:  src,
				Face: face,
				Dot:  dot.Add(fixed.P(dx, dy)),
			}
			d.DrawString(line)
		}
	}
}

// AddImage decodes the image at path and places it at the cursor, enlarging
// the canvas as needed. The cursor advances past the image.
func (c *Canvas) AddImage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "image %s", path)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return errors.Wrapf(err, "decode image %s", path)
	}
	b := img.Bounds()
	c.enlarge(b.Dx(), b.Dy())
	at := image.Rect(c.cursor.X, c.cursor.Y, c.cursor.X+b.Dx(), c.cursor.Y+b.Dy())
	draw.Draw(c.img, at, img, b.Min, draw.Over)
	c.cursor.X += b.Dx()
	return nil
}

// Clear drops the canvas content but keeps the style settings.
func (c *Canvas) Clear() {
	c.img = image.NewNRGBA(image.Rect(0, 0, 0, 0))
	c.cursor = image.Point{}
}

// enlarge grows the canvas so that content of the given size fits at the
// cursor. Existing content is preserved.
func (c *Canvas) enlarge(width, height int) {
	b := c.img.Bounds()
	newW, newH := b.Dx(), b.Dy()
	if c.cursor.X+width >= newW {
		newW = c.cursor.X + width
	}
	if c.cursor.Y+height >= newH {
		newH = c.cursor.Y + height
	}
	if newW == b.Dx() && newH == b.Dy() {
		return
	}
	grown := image.NewNRGBA(image.Rect(0, 0, newW, newH))
	draw.Draw(grown, b, c.img, b.Min, draw.Over)
	c.img = grown
}

// Image returns the canvas content. The caller must not mutate it while an
// animation is running.
func (c *Canvas) Image() *image.NRGBA { return c.img }

// Width returns the current canvas width in pixels.
func (c *Canvas) Width() int { return c.img.Bounds().Dx() }

// Height returns the current canvas height in pixels.
func (c *Canvas) Height() int { return c.img.Bounds().Dy() }

// Cursor returns the current cursor position.
func (c *Canvas) Cursor() (x, y int) { return c.cursor.X, c.cursor.Y }

// SetCursor moves the cursor. (0, 0) is the top-left corner.
func (c *Canvas) SetCursor(x, y int) {
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	c.cursor = image.Pt(x, y)
}

// Opacity returns the canvas opacity where 0 is transparent and 1 opaque.
func (c *Canvas) Opacity() float64 { return c.opacity }

// SetOpacity clamps and sets the canvas opacity.
func (c *Canvas) SetOpacity(v float64) { c.opacity = clampUnit(v) }

// ShadowIntensity returns the shadow opacity, 0 when off.
func (c *Canvas) ShadowIntensity() float64 { return c.shadowIntensity }

// ShadowOffset returns the shadow offset in pixels.
func (c *Canvas) ShadowOffset() int { return c.shadowOffset }

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
