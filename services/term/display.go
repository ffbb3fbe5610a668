package term

import (
	"image/color"

	"ember/hal"

	"tinygo.org/x/drivers"
)

// fbDisplay adapts an RGB565 framebuffer to tinyterm's Displayer. Geometry
// is read once; the framebuffer is not expected to change size.
type fbDisplay struct {
	fb     hal.Framebuffer
	w, h   int
	stride int
}

func newFBDisplay(fb hal.Framebuffer) *fbDisplay {
	d := &fbDisplay{fb: fb}
	if fb.Format() == hal.PixelFormatRGB565 {
		d.w, d.h, d.stride = fb.Width(), fb.Height(), fb.StrideBytes()
	}
	return d
}

func (d *fbDisplay) Size() (x, y int16) {
	return int16(d.w), int16(d.h)
}

func (d *fbDisplay) offset(x, y int) (int, bool) {
	if x < 0 || x >= d.w || y < 0 || y >= d.h {
		return 0, false
	}
	off := y*d.stride + x*2
	return off, off+1 < len(d.fb.Buffer())
}

func (d *fbDisplay) SetPixel(x, y int16, c color.RGBA) {
	off, ok := d.offset(int(x), int(y))
	if !ok {
		return
	}
	pixel := rgb565(c)
	buf := d.fb.Buffer()
	buf[off] = byte(pixel)
	buf[off+1] = byte(pixel >> 8)
}

func (d *fbDisplay) Display() error {
	return d.fb.Present()
}

func (d *fbDisplay) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	x0, x1 := clamp(int(x), d.w), clamp(int(x)+int(width), d.w)
	y0, y1 := clamp(int(y), d.h), clamp(int(y)+int(height), d.h)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}

	pixel := rgb565(c)
	lo, hi := byte(pixel), byte(pixel>>8)
	buf := d.fb.Buffer()
	for py := y0; py < y1; py++ {
		row := buf[py*d.stride+x0*2 : py*d.stride+x1*2]
		for i := 0; i+1 < len(row); i += 2 {
			row[i] = lo
			row[i+1] = hi
		}
	}
	return nil
}

// ScrollUp moves the picture up by lines rows and clears the rows exposed
// at the bottom.
func (d *fbDisplay) ScrollUp(lines int16, bg color.RGBA) error {
	n := int(lines)
	if n <= 0 {
		return nil
	}
	if n >= d.h {
		return d.FillRectangle(0, 0, int16(d.w), int16(d.h), bg)
	}
	buf := d.fb.Buffer()
	copy(buf[:(d.h-n)*d.stride], buf[n*d.stride:d.h*d.stride])
	return d.FillRectangle(0, int16(d.h-n), int16(d.w), int16(n), bg)
}

// SetScroll is a no-op: the console always scrolls in software.
func (d *fbDisplay) SetScroll(int16) {}

func (d *fbDisplay) SetRotation(rotation drivers.Rotation) error {
	if rotation != drivers.Rotation0 {
		return hal.ErrNotImplemented
	}
	return nil
}

func rgb565(c color.RGBA) uint16 {
	return uint16(c.R>>3)<<11 | uint16(c.G>>2)<<5 | uint16(c.B>>3)
}

func clamp(v, hi int) int {
	switch {
	case v < 0:
		return 0
	case v > hi:
		return hi
	}
	return v
}
