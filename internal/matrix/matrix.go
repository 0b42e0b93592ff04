package matrix

import (
	"image"
	"image/draw"
	"sync"

	"github.com/pkg/errors"
)

// Matrix is a double-buffered RGB display. SetImage draws into the back
// buffer; Swap presents it to the driver and recycles the previous front
// buffer, so a frame is never torn mid-write.
type Matrix struct {
	opts   Options
	layout Layout
	drv    Driver

	mu       sync.Mutex
	front    *image.NRGBA
	back     *image.NRGBA
	strip    []byte // scratch frame in strip order
	observer func(rgb []byte)

	// channel offsets derived from RGBSequence
	chR, chG, chB int
}

// New wraps a driver with the display geometry in opts.
func New(drv Driver, opts Options) (*Matrix, error) {
	if err := opts.Normalize(); err != nil {
		return nil, err
	}
	if drv == nil {
		return nil, errors.New("matrix: driver is nil")
	}
	m := &Matrix{
		opts:   opts,
		layout: layoutFor(opts),
		drv:    drv,
		front:  image.NewNRGBA(image.Rect(0, 0, opts.Width(), opts.Height())),
		back:   image.NewNRGBA(image.Rect(0, 0, opts.Width(), opts.Height())),
		strip:  make([]byte, opts.Pixels()*3),
	}
	for i := 0; i < 3; i++ {
		switch opts.RGBSequence[i] | 0x20 {
		case 'r':
			m.chR = i
		case 'g':
			m.chG = i
		case 'b':
			m.chB = i
		}
	}
	return m, nil
}

// Width returns the display width in pixels.
func (m *Matrix) Width() int { return m.opts.Width() }

// Height returns the display height in pixels.
func (m *Matrix) Height() int { return m.opts.Height() }

// Options returns the geometry the matrix was built with.
func (m *Matrix) Options() Options { return m.opts }

// SetImage draws src into the back buffer with its top-left corner at (x, y).
func (m *Matrix) SetImage(src image.Image, x, y int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := src.Bounds()
	r := image.Rect(x, y, x+b.Dx(), y+b.Dy())
	draw.Draw(m.back, r, src, b.Min, draw.Src)
}

// Swap presents the back buffer and makes the old front buffer the new
// back buffer.
func (m *Matrix) Swap() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.encode(m.back)
	if err := m.drv.Write(m.strip); err != nil {
		return errors.Wrap(err, "matrix: present frame")
	}
	if m.observer != nil {
		m.observer(m.strip)
	}
	m.front, m.back = m.back, m.front
	return nil
}

// SetObserver registers a callback invoked with every presented frame in
// strip order. The slice is only valid during the call.
func (m *Matrix) SetObserver(fn func(rgb []byte)) {
	m.mu.Lock()
	m.observer = fn
	m.mu.Unlock()
}

// Front returns the most recently presented frame. The returned image is
// only valid until the next Swap.
func (m *Matrix) Front() *image.NRGBA {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.front
}

// Clear blanks the display immediately.
func (m *Matrix) Clear() error {
	m.mu.Lock()
	for i := range m.back.Pix {
		m.back.Pix[i] = 0
	}
	m.mu.Unlock()
	return m.Swap()
}

// Close blanks the display and releases the driver.
func (m *Matrix) Close() error {
	if err := m.Clear(); err != nil {
		_ = m.drv.Close()
		return err
	}
	return m.drv.Close()
}

// encode converts the frame to strip order, applying the RGB sequence and
// global brightness. Caller holds mu.
func (m *Matrix) encode(img *image.NRGBA) {
	bright := uint32(m.opts.Brightness)
	w, h := m.layout.W, m.layout.H
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			r := uint32(row[x*4+0]) * bright / 100
			g := uint32(row[x*4+1]) * bright / 100
			b := uint32(row[x*4+2]) * bright / 100
			off := m.layout.Index(x, y) * 3
			m.strip[off+m.chR] = byte(r)
			m.strip[off+m.chG] = byte(g)
			m.strip[off+m.chB] = byte(b)
		}
	}
}
