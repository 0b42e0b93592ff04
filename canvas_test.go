package opensign

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

func TestRGB(t *testing.T) {
	cases := []struct {
		hex  uint32
		want color.NRGBA
	}{
		{0x000000, color.NRGBA{A: 0xFF}},
		{0xFF0000, color.NRGBA{R: 0xFF, A: 0xFF}},
		{0x00FF00, color.NRGBA{G: 0xFF, A: 0xFF}},
		{0x0000FF, color.NRGBA{B: 0xFF, A: 0xFF}},
		{0x123456, color.NRGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xFF}},
		{0xFFFFFF, color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, RGB(tc.hex))
	}
}

func TestNewCanvasDefaults(t *testing.T) {
	c := NewCanvas()
	assert.Equal(t, 0, c.Width())
	assert.Equal(t, 0, c.Height())
	assert.Equal(t, 1.0, c.Opacity())
	assert.Equal(t, 0.0, c.ShadowIntensity())
	x, y := c.Cursor()
	assert.Zero(t, x)
	assert.Zero(t, y)
}

func TestAddTextGrowsCanvas(t *testing.T) {
	c := NewCanvas()
	require.NoError(t, c.AddText("Hi"))

	wantW := font.MeasureString(basicfont.Face7x13, "Hi").Ceil()
	assert.Equal(t, wantW, c.Width())
	assert.Equal(t, basicfont.Face7x13.Metrics().Height.Ceil(), c.Height())
	x, _ := c.Cursor()
	assert.Equal(t, wantW, x)
}

func TestAddTextAppends(t *testing.T) {
	c := NewCanvas()
	require.NoError(t, c.AddText("a"))
	w1 := c.Width()
	require.NoError(t, c.AddText("b"))
	assert.Greater(t, c.Width(), w1)
}

func TestAddTextMultiline(t *testing.T) {
	c := NewCanvas()
	require.NoError(t, c.AddText("one\ntwo"))

	lineH := basicfont.Face7x13.Metrics().Height.Ceil()
	assert.GreaterOrEqual(t, c.Height(), 2*lineH)
	x, y := c.Cursor()
	assert.Equal(t, lineH, y)
	assert.Equal(t, font.MeasureString(basicfont.Face7x13, "two").Ceil(), x)
}

func TestAddTextStrokePadding(t *testing.T) {
	c := NewCanvas()
	require.NoError(t, c.AddText("x", WithStroke(2, RGB(0xFFFFFF))))
	wantW := font.MeasureString(basicfont.Face7x13, "x").Ceil() + 4
	assert.Equal(t, wantW, c.Width())
}

func TestAddTextUnknownFont(t *testing.T) {
	c := NewCanvas()
	err := c.AddText("hello", WithFont("missing"))
	assert.ErrorIs(t, err, ErrFontNotFound)
}

func TestSetFontUnknown(t *testing.T) {
	c := NewCanvas()
	assert.ErrorIs(t, c.SetFont("missing"), ErrFontNotFound)
}

func TestAddFontRejectsBadInput(t *testing.T) {
	c := NewCanvas()
	assert.Error(t, c.AddFont("zero", "/tmp/whatever.ttf", 0, false))
	assert.Error(t, c.AddFont("gone", filepath.Join(t.TempDir(), "nope.ttf"), 12, false))
}

func writePNG(t *testing.T, w, h int, col color.NRGBA) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, col)
		}
	}
	path := filepath.Join(t.TempDir(), "img.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestAddImage(t *testing.T) {
	path := writePNG(t, 3, 2, color.NRGBA{R: 255, A: 255})
	c := NewCanvas()
	require.NoError(t, c.AddImage(path))
	assert.Equal(t, 3, c.Width())
	assert.Equal(t, 2, c.Height())
	x, _ := c.Cursor()
	assert.Equal(t, 3, x)

	// A second image lands next to the first.
	require.NoError(t, c.AddImage(path))
	assert.Equal(t, 6, c.Width())
	assert.Equal(t, byte(255), c.Image().NRGBAAt(4, 0).R)
}

func TestAddImageMissingFile(t *testing.T) {
	c := NewCanvas()
	assert.Error(t, c.AddImage(filepath.Join(t.TempDir(), "nope.png")))
}

func TestClearKeepsStyle(t *testing.T) {
	c := NewCanvas()
	c.SetColor(RGB(0x00FF00))
	c.SetShadow(0.7, 2)
	require.NoError(t, c.AddText("hello"))
	c.Clear()

	assert.Equal(t, 0, c.Width())
	assert.Equal(t, 0, c.Height())
	x, y := c.Cursor()
	assert.Zero(t, x)
	assert.Zero(t, y)
	assert.Equal(t, color.NRGBA{G: 0xFF, A: 0xFF}, c.color)
	assert.Equal(t, 0.7, c.ShadowIntensity())
	assert.Equal(t, 2, c.ShadowOffset())
}

func TestOpacityAndShadowClamp(t *testing.T) {
	c := NewCanvas()
	c.SetOpacity(1.5)
	assert.Equal(t, 1.0, c.Opacity())
	c.SetOpacity(-2)
	assert.Equal(t, 0.0, c.Opacity())
	c.SetShadow(3, -1)
	assert.Equal(t, 1.0, c.ShadowIntensity())
	assert.Equal(t, 0, c.ShadowOffset())
}

func TestSetCursorClamps(t *testing.T) {
	c := NewCanvas()
	c.SetCursor(-3, 5)
	x, y := c.Cursor()
	assert.Equal(t, 0, x)
	assert.Equal(t, 5, y)
}
