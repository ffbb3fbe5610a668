// Package term renders console text onto the HAL framebuffer with tinyterm.
package term

import (
	"bytes"
	"sync"

	"ember/hal"

	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

// cursorBack is the VT100 sequence tinyterm understands for moving one
// column left.
var cursorBack = []byte("\x1b[D")

// Console is an io.Writer that draws onto a framebuffer.
type Console struct {
	mu sync.Mutex
	fb hal.Framebuffer
	d  *fbDisplay
	t  *tinyterm.Terminal
}

// New returns a console on disp, or nil if disp has no framebuffer.
func New(disp hal.Display) *Console {
	if disp == nil {
		return nil
	}
	fb := disp.Framebuffer()
	if fb == nil {
		return nil
	}
	c := &Console{fb: fb, d: newFBDisplay(fb)}
	c.Reset()
	return c
}

// Reset clears the screen and homes the cursor.
func (c *Console) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = tinyterm.NewTerminal(c.d)
	c.t.Configure(&tinyterm.Config{
		Font:              &proggy.TinySZ8pt7b,
		FontHeight:        10,
		FontOffset:        6,
		UseSoftwareScroll: true,
	})
	c.fb.ClearRGB(0, 0, 0)
	_ = c.fb.Present()
}

// Write draws p and presents the frame.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.t.Write(expandBackspace(p)); err != nil {
		return 0, err
	}
	c.t.Display()
	return len(p), nil
}

// expandBackspace rewrites BS as a cursor-left sequence; tinyterm would
// otherwise draw it as a glyph.
func expandBackspace(p []byte) []byte {
	if bytes.IndexByte(p, '\b') < 0 {
		return p
	}
	return bytes.ReplaceAll(p, []byte{'\b'}, cursorBack)
}
