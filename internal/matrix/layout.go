package matrix

// Layout maps logical (x, y) display coordinates to the linear LED index
// the chain is wired in.
type Layout struct {
	W, H       int
	Serpentine bool // flip every odd row along X
}

// Index maps x,y -> linear LED index (0..W*H-1).
func (l Layout) Index(x, y int) int {
	xx := x
	if l.Serpentine && y%2 == 1 {
		xx = l.W - 1 - x
	}
	return y*l.W + xx
}

// Count is the total number of LEDs.
func (l Layout) Count() int { return l.W * l.H }

func layoutFor(o Options) Layout {
	return Layout{
		W:          o.Width(),
		H:          o.Height(),
		Serpentine: o.PixelMapper == "serpentine",
	}
}
