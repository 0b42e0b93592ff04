package matrix

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"
	"periph.io/x/devices/v3/nrzled"
)

func TestOptionsNormalizeDefaults(t *testing.T) {
	var o Options
	require.NoError(t, o.Normalize())
	assert.Equal(t, 16, o.Rows)
	assert.Equal(t, 32, o.Cols)
	assert.Equal(t, 1, o.ChainLength)
	assert.Equal(t, 1, o.Parallel)
	assert.Equal(t, 100, o.Brightness)
	assert.Equal(t, "rgb", o.RGBSequence)
	assert.Equal(t, 32, o.Width())
	assert.Equal(t, 16, o.Height())
	assert.Equal(t, 512, o.Pixels())
}

func TestOptionsNormalizeRejectsBadValues(t *testing.T) {
	o := Options{RGBSequence: "rx"}
	assert.Error(t, o.Normalize())

	o = Options{RGBSequence: "rgx"}
	assert.Error(t, o.Normalize())

	o = Options{RGBSequence: "rrb"}
	assert.Error(t, o.Normalize())

	o = Options{RGBSequence: "GGG"}
	assert.Error(t, o.Normalize())

	o = Options{PixelMapper: "spiral"}
	assert.Error(t, o.Normalize())
}

func TestLayoutIndex(t *testing.T) {
	l := Layout{W: 4, H: 3}
	assert.Equal(t, 0, l.Index(0, 0))
	assert.Equal(t, 5, l.Index(1, 1))
	assert.Equal(t, 11, l.Index(3, 2))
	assert.Equal(t, 12, l.Count())
}

func TestLayoutIndexSerpentine(t *testing.T) {
	l := Layout{W: 4, H: 3, Serpentine: true}
	// Even rows run left to right, odd rows flip.
	assert.Equal(t, 0, l.Index(0, 0))
	assert.Equal(t, 7, l.Index(0, 1))
	assert.Equal(t, 4, l.Index(3, 1))
	assert.Equal(t, 9, l.Index(1, 2))
}

func newTestMatrix(t *testing.T, opts Options) (*Matrix, *Sim) {
	t.Helper()
	require.NoError(t, opts.Normalize())
	sim := NewSim(opts.Pixels())
	m, err := New(sim, opts)
	require.NoError(t, err)
	return m, sim
}

func TestSwapEncodesRGBSequence(t *testing.T) {
	m, sim := newTestMatrix(t, Options{Rows: 1, Cols: 2, RGBSequence: "grb"})
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	m.SetImage(img, 0, 0)
	require.NoError(t, m.Swap())

	last := sim.Last()
	require.Len(t, last, 6)
	assert.Equal(t, []byte{100, 200, 50}, last[:3])
	assert.Equal(t, []byte{0, 0, 0}, last[3:])
}

func TestSwapAppliesBrightness(t *testing.T) {
	m, sim := newTestMatrix(t, Options{Rows: 1, Cols: 1, Brightness: 50})
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	m.SetImage(img, 0, 0)
	require.NoError(t, m.Swap())

	last := sim.Last()
	require.Len(t, last, 3)
	assert.Equal(t, byte(127), last[0])
}

func TestSwapDoubleBuffers(t *testing.T) {
	m, sim := newTestMatrix(t, Options{Rows: 2, Cols: 2})
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(1, 1, color.NRGBA{R: 255, A: 255})
	m.SetImage(img, 0, 0)
	require.NoError(t, m.Swap())
	assert.Equal(t, 1, sim.Frames())

	// Presented frame shows the pixel.
	front := m.Front()
	r, _, _, _ := front.At(1, 1).RGBA()
	assert.NotZero(t, r)
}

func TestSwapSerpentineMapping(t *testing.T) {
	m, sim := newTestMatrix(t, Options{Rows: 2, Cols: 3, PixelMapper: "serpentine"})
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(0, 1, color.NRGBA{B: 255, A: 255}) // odd row flips to strip index 5
	m.SetImage(img, 0, 0)
	require.NoError(t, m.Swap())

	last := sim.Last()
	require.Len(t, last, 18)
	assert.Equal(t, byte(255), last[5*3+2])
	assert.Equal(t, byte(0), last[3*3+2])
}

func TestMatrixObserver(t *testing.T) {
	m, _ := newTestMatrix(t, Options{Rows: 1, Cols: 1})
	var seen int
	m.SetObserver(func(rgb []byte) {
		seen++
		assert.Len(t, rgb, 3)
	})
	require.NoError(t, m.Swap())
	require.NoError(t, m.Swap())
	assert.Equal(t, 2, seen)
}

func TestMatrixClearBlanks(t *testing.T) {
	m, sim := newTestMatrix(t, Options{Rows: 1, Cols: 2})
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	m.SetImage(img, 0, 0)
	require.NoError(t, m.Swap())
	require.NoError(t, m.Clear())
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0}, sim.Last())
}

func TestSPIDriverWrite(t *testing.T) {
	buf := bytes.Buffer{}
	dev, err := nrzled.NewSPI(spitest.NewRecordRaw(&buf), &nrzled.Opts{
		NumPixels: 2,
		Channels:  3,
		Freq:      2500 * physic.KiloHertz,
	})
	require.NoError(t, err)

	d := &SPIDriver{dev: dev}
	require.NoError(t, d.Write([]byte{255, 0, 0, 0, 255, 0}))
	assert.NotZero(t, buf.Len())
}

func TestNewSPIRejectsBadCount(t *testing.T) {
	_, err := NewSPI("", 0)
	assert.Error(t, err)
}
