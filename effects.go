package opensign

import (
	"context"
	"image"
	"image/draw"
	"math"
	"time"

	"github.com/Maker-Melissa/OpenSign/internal/compose"
)

// stepWait sleeps out the remainder of a frame slice measured from start,
// or returns early when ctx is canceled.
func stepWait(ctx context.Context, start time.Time, d time.Duration) error {
	rem := d - time.Since(start)
	if rem <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	t := time.NewTimer(rem)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ScrollFromTo scrolls the canvas from one position to another over
// duration, one pixel of the longest axis per frame.
func (s *Sign) ScrollFromTo(ctx context.Context, c *Canvas, duration time.Duration, startX, startY, endX, endY int) error {
	steps := abs(endX - startX)
	if dy := abs(endY - startY); dy > steps {
		steps = dy
	}
	if steps == 0 {
		return nil
	}
	incX := float64(endX-startX) / float64(steps)
	incY := float64(endY-startY) / float64(steps)
	stepD := duration / time.Duration(steps)
	for i := 0; i <= steps; i++ {
		start := time.Now()
		x := startX + int(math.Round(float64(i)*incX))
		y := startY + int(math.Round(float64(i)*incY))
		if err := s.draw(c, x, y, 1.0); err != nil {
			return err
		}
		if err := stepWait(ctx, start, stepD); err != nil {
			return err
		}
	}
	return nil
}

// ScrollInFromLeft scrolls the canvas in from the left edge; the final
// position is centered plus xOffset.
func (s *Sign) ScrollInFromLeft(ctx context.Context, c *Canvas, duration time.Duration, xOffset int) error {
	cx, cy := s.centered(c)
	return s.ScrollFromTo(ctx, c, duration, -c.Width(), cy, cx+xOffset, cy)
}

// ScrollInFromRight scrolls the canvas in from the right edge; the final
// position is centered plus xOffset.
func (s *Sign) ScrollInFromRight(ctx context.Context, c *Canvas, duration time.Duration, xOffset int) error {
	cx, cy := s.centered(c)
	return s.ScrollFromTo(ctx, c, duration, s.Width(), cy, cx+xOffset, cy)
}

// ScrollInFromTop scrolls the canvas in from the top edge; the final
// position is centered plus yOffset.
func (s *Sign) ScrollInFromTop(ctx context.Context, c *Canvas, duration time.Duration, yOffset int) error {
	cx, cy := s.centered(c)
	return s.ScrollFromTo(ctx, c, duration, cx, -c.Height(), cx, cy+yOffset)
}

// ScrollInFromBottom scrolls the canvas in from the bottom edge; the final
// position is centered plus yOffset.
func (s *Sign) ScrollInFromBottom(ctx context.Context, c *Canvas, duration time.Duration, yOffset int) error {
	cx, cy := s.centered(c)
	return s.ScrollFromTo(ctx, c, duration, cx, s.Height(), cx, cy+yOffset)
}

// ScrollOutToLeft scrolls the canvas off the left edge from its current
// position.
func (s *Sign) ScrollOutToLeft(ctx context.Context, c *Canvas, duration time.Duration) error {
	return s.ScrollFromTo(ctx, c, duration, s.pos.X, s.pos.Y, -c.Width(), s.pos.Y)
}

// ScrollOutToRight scrolls the canvas off the right edge from its current
// position.
func (s *Sign) ScrollOutToRight(ctx context.Context, c *Canvas, duration time.Duration) error {
	return s.ScrollFromTo(ctx, c, duration, s.pos.X, s.pos.Y, s.Width(), s.pos.Y)
}

// ScrollOutToTop scrolls the canvas off the top edge from its current
// position.
func (s *Sign) ScrollOutToTop(ctx context.Context, c *Canvas, duration time.Duration) error {
	return s.ScrollFromTo(ctx, c, duration, s.pos.X, s.pos.Y, s.pos.X, -c.Height())
}

// ScrollOutToBottom scrolls the canvas off the bottom edge from its current
// position.
func (s *Sign) ScrollOutToBottom(ctx context.Context, c *Canvas, duration time.Duration) error {
	return s.ScrollFromTo(ctx, c, duration, s.pos.X, s.pos.Y, s.pos.X, s.Height())
}

// Blink toggles the canvas on and off count times over duration.
func (s *Sign) Blink(ctx context.Context, c *Canvas, count int, duration time.Duration) error {
	if count <= 0 {
		return nil
	}
	delay := duration / time.Duration(count*2)
	for i := 0; i < count; i++ {
		start := time.Now()
		if err := s.Hide(c); err != nil {
			return err
		}
		if err := stepWait(ctx, start, delay); err != nil {
			return err
		}
		start = time.Now()
		if err := s.Show(c); err != nil {
			return err
		}
		if err := stepWait(ctx, start, delay); err != nil {
			return err
		}
	}
	return nil
}

// Flash fades the canvas out and back in count times over duration.
func (s *Sign) Flash(ctx context.Context, c *Canvas, count int, duration time.Duration) error {
	if count <= 0 {
		return nil
	}
	delay := duration / time.Duration(count*2)
	steps := 50 / count
	if steps < 1 {
		steps = 1
	}
	for i := 0; i < count; i++ {
		if err := s.FadeOut(ctx, c, delay, steps); err != nil {
			return err
		}
		if err := s.FadeIn(ctx, c, delay, steps); err != nil {
			return err
		}
	}
	return nil
}

// FadeIn ramps the canvas opacity up at the centered position. More steps
// is smoother, but too many slows the animation down.
func (s *Sign) FadeIn(ctx context.Context, c *Canvas, duration time.Duration, steps int) error {
	if steps <= 0 {
		steps = 50
	}
	cx, cy := s.centered(c)
	delay := duration / time.Duration(steps+1)
	for o := 0; o <= steps; o++ {
		start := time.Now()
		if err := s.draw(c, cx, cy, float64(o)/float64(steps)); err != nil {
			return err
		}
		if err := stepWait(ctx, start, delay); err != nil {
			return err
		}
	}
	return nil
}

// FadeOut ramps the canvas opacity down at its current position.
func (s *Sign) FadeOut(ctx context.Context, c *Canvas, duration time.Duration, steps int) error {
	if steps <= 0 {
		steps = 50
	}
	delay := duration / time.Duration(steps+1)
	for o := 0; o <= steps; o++ {
		start := time.Now()
		if err := s.draw(c, s.pos.X, s.pos.Y, float64(steps-o)/float64(steps)); err != nil {
			return err
		}
		if err := stepWait(ctx, start, delay); err != nil {
			return err
		}
	}
	return nil
}

// JoinInHorizontally slides the two halves of the canvas together from the
// left and right edges, ending centered.
func (s *Sign) JoinInHorizontally(ctx context.Context, c *Canvas, duration time.Duration) error {
	cx, cy := s.centered(c)
	img := c.Image()
	iw, ih := c.Width(), c.Height()
	left := subImage(img, image.Rect(0, 0, iw/2+1, ih))
	right := subImage(img, image.Rect(iw/2+1, 0, iw, ih))
	distance := s.Width() / 2
	if distance == 0 {
		return nil
	}
	stepD := duration / time.Duration(distance)
	for i := 0; i <= distance; i++ {
		start := time.Now()
		effect := image.NewNRGBA(image.Rect(0, 0, s.Width()+iw, ih))
		pasteAt(effect, left, i, 0)
		pasteAt(effect, right, s.Width()+iw/2-i+1, 0)
		if err := s.drawImage(effect, cx-s.Width()/2, cy, c.Opacity(), c.ShadowIntensity(), c.ShadowOffset()); err != nil {
			return err
		}
		if err := stepWait(ctx, start, stepD); err != nil {
			return err
		}
	}
	s.pos = image.Pt(cx, cy)
	return nil
}

// JoinInVertically slides the two halves of the canvas together from the
// top and bottom edges, ending centered.
func (s *Sign) JoinInVertically(ctx context.Context, c *Canvas, duration time.Duration) error {
	cx, cy := s.centered(c)
	img := c.Image()
	iw, ih := c.Width(), c.Height()
	top := subImage(img, image.Rect(0, 0, iw, ih/2+1))
	bottom := subImage(img, image.Rect(0, ih/2+1, iw, ih))
	distance := s.Height() / 2
	if distance == 0 {
		return nil
	}
	stepD := duration / time.Duration(distance)
	for i := 0; i <= distance; i++ {
		start := time.Now()
		effect := image.NewNRGBA(image.Rect(0, 0, iw, s.Height()+ih))
		pasteAt(effect, top, 0, i)
		pasteAt(effect, bottom, 0, s.Height()+ih/2-i+1)
		if err := s.drawImage(effect, cx, cy-s.Height()/2, c.Opacity(), c.ShadowIntensity(), c.ShadowOffset()); err != nil {
			return err
		}
		if err := stepWait(ctx, start, stepD); err != nil {
			return err
		}
	}
	s.pos = image.Pt(cx, cy)
	return nil
}

// SplitOutHorizontally slides the two halves of the canvas apart toward the
// left and right edges.
func (s *Sign) SplitOutHorizontally(ctx context.Context, c *Canvas, duration time.Duration) error {
	curX, curY := s.pos.X, s.pos.Y
	img := c.Image()
	iw, ih := c.Width(), c.Height()
	left := subImage(img, image.Rect(0, 0, iw/2+1, ih))
	right := subImage(img, image.Rect(iw/2+1, 0, iw, ih))
	distance := s.Width() / 2
	if distance == 0 {
		return nil
	}
	stepD := duration / time.Duration(distance)
	for i := 0; i <= distance; i++ {
		start := time.Now()
		effect := image.NewNRGBA(image.Rect(0, 0, s.Width()+iw, ih))
		pasteAt(effect, left, distance-i, 0)
		pasteAt(effect, right, distance+iw/2+i+1, 0)
		if err := s.drawImage(effect, curX-s.Width()/2, curY, c.Opacity(), c.ShadowIntensity(), c.ShadowOffset()); err != nil {
			return err
		}
		if err := stepWait(ctx, start, stepD); err != nil {
			return err
		}
	}
	s.pos = image.Pt(curX-s.Width()/2, curY)
	return nil
}

// SplitOutVertically slides the two halves of the canvas apart toward the
// top and bottom edges.
func (s *Sign) SplitOutVertically(ctx context.Context, c *Canvas, duration time.Duration) error {
	curX, curY := s.pos.X, s.pos.Y
	img := c.Image()
	iw, ih := c.Width(), c.Height()
	top := subImage(img, image.Rect(0, 0, iw, ih/2))
	bottom := subImage(img, image.Rect(0, ih/2, iw, ih))
	distance := s.Height() / 2
	if distance == 0 {
		return nil
	}
	stepD := duration / time.Duration(distance)
	for i := 0; i <= distance; i++ {
		start := time.Now()
		effect := image.NewNRGBA(image.Rect(0, 0, iw, s.Height()+ih))
		pasteAt(effect, top, 0, distance-i)
		pasteAt(effect, bottom, 0, distance+ih/2+i+1)
		if err := s.drawImage(effect, curX, curY-s.Height()/2, c.Opacity(), c.ShadowIntensity(), c.ShadowOffset()); err != nil {
			return err
		}
		if err := stepWait(ctx, start, stepD); err != nil {
			return err
		}
	}
	s.pos = image.Pt(curX, curY-s.Height()/2)
	return nil
}

// LoopLeft moves the canvas left count times over duration; it re-enters
// from the right and ends back at the starting position.
func (s *Sign) LoopLeft(ctx context.Context, c *Canvas, duration time.Duration, count int) error {
	if count <= 0 {
		return nil
	}
	curX, curY := s.pos.X, s.pos.Y
	distance := maxInt(c.Width(), s.Width())
	if distance == 0 {
		return nil
	}
	loopImg := compose.LoopImage(c.Image(), distance, 0)
	stepD := duration / time.Duration(distance*count)
	for n := 0; n < count; n++ {
		for i := 0; i < distance; i++ {
			start := time.Now()
			curX--
			if curX < -c.Width() {
				curX += distance
			}
			if err := s.drawImage(loopImg, curX, curY, c.Opacity(), c.ShadowIntensity(), c.ShadowOffset()); err != nil {
				return err
			}
			if err := stepWait(ctx, start, stepD); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoopRight moves the canvas right count times over duration; it re-enters
// from the left and ends back at the starting position.
func (s *Sign) LoopRight(ctx context.Context, c *Canvas, duration time.Duration, count int) error {
	if count <= 0 {
		return nil
	}
	curX, curY := s.pos.X, s.pos.Y
	distance := maxInt(c.Width(), s.Width())
	if distance == 0 {
		return nil
	}
	loopImg := compose.LoopImage(c.Image(), distance, 0)
	stepD := duration / time.Duration(distance*count)
	for n := 0; n < count; n++ {
		for i := 0; i < distance; i++ {
			start := time.Now()
			curX++
			if curX > 0 {
				curX -= distance
			}
			if err := s.drawImage(loopImg, curX, curY, c.Opacity(), c.ShadowIntensity(), c.ShadowOffset()); err != nil {
				return err
			}
			if err := stepWait(ctx, start, stepD); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoopUp moves the canvas up count times over duration; it re-enters from
// the bottom and ends back at the starting position.
func (s *Sign) LoopUp(ctx context.Context, c *Canvas, duration time.Duration, count int) error {
	if count <= 0 {
		return nil
	}
	curX, curY := s.pos.X, s.pos.Y
	distance := maxInt(c.Height(), s.Height())
	if distance == 0 {
		return nil
	}
	loopImg := compose.LoopImage(c.Image(), 0, distance)
	stepD := duration / time.Duration(distance*count)
	for n := 0; n < count; n++ {
		for i := 0; i < distance; i++ {
			start := time.Now()
			curY--
			if curY < -c.Height() {
				curY += distance
			}
			if err := s.drawImage(loopImg, curX, curY, c.Opacity(), c.ShadowIntensity(), c.ShadowOffset()); err != nil {
				return err
			}
			if err := stepWait(ctx, start, stepD); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoopDown moves the canvas down count times over duration; it re-enters
// from the top and ends back at the starting position.
func (s *Sign) LoopDown(ctx context.Context, c *Canvas, duration time.Duration, count int) error {
	if count <= 0 {
		return nil
	}
	curX, curY := s.pos.X, s.pos.Y
	distance := maxInt(c.Height(), s.Height())
	if distance == 0 {
		return nil
	}
	loopImg := compose.LoopImage(c.Image(), 0, distance)
	stepD := duration / time.Duration(distance*count)
	for n := 0; n < count; n++ {
		for i := 0; i < distance; i++ {
			start := time.Now()
			curY++
			if curY > 0 {
				curY -= distance
			}
			if err := s.drawImage(loopImg, curX, curY, c.Opacity(), c.ShadowIntensity(), c.ShadowOffset()); err != nil {
				return err
			}
			if err := stepWait(ctx, start, stepD); err != nil {
				return err
			}
		}
	}
	return nil
}

func subImage(img *image.NRGBA, r image.Rectangle) *image.NRGBA {
	return img.SubImage(r).(*image.NRGBA)
}

func pasteAt(dst *image.NRGBA, src *image.NRGBA, x, y int) {
	b := src.Bounds()
	draw.Draw(dst, image.Rect(x, y, x+b.Dx(), y+b.Dy()), src, b.Min, draw.Over)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
