//go:build !tinygo && cgo

package hal

import (
	"context"
	"errors"
	"image"

	"ember/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.org/x/sync/errgroup"
)

// windowKeys are the non-text keys forwarded as scan codes. Extended keys
// are sent with the 0xE0 prefix.
var windowKeys = []struct {
	key      ebiten.Key
	code     uint8
	extended bool
}{
	{ebiten.KeyEscape, scanEscape, false},
	{ebiten.KeyBackspace, scanBackspace, false},
	{ebiten.KeyTab, scanTab, false},
	{ebiten.KeyEnter, scanEnter, false},
	{ebiten.KeyControlLeft, scanCtrl, false},
	{ebiten.KeyShiftLeft, scanShiftL, false},
	{ebiten.KeyShiftRight, scanShiftR, false},
	{ebiten.KeyAltLeft, scanAlt, false},
	{ebiten.KeyCapsLock, scanCapsLock, false},
	{ebiten.KeyF1, scanF1, false},
	{ebiten.KeyArrowUp, 0x48, true},
	{ebiten.KeyArrowLeft, 0x4B, true},
	{ebiten.KeyArrowRight, 0x4D, true},
	{ebiten.KeyArrowDown, 0x50, true},
}

// RunWindow opens a desktop window that shows the framebuffer and forwards
// key presses to the simulated keyboard. It blocks until the window closes,
// run returns or ctx is done.
func RunWindow(ctx context.Context, run func(context.Context, HAL) error) error {
	h := New().(*hostHAL)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := h.m.RunClock(gctx, 0); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return run(gctx, h)
	})

	ebiten.SetWindowTitle("ember (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(h.fb.width*2, h.fb.height*2)
	ebiten.SetTPS(60)
	err := ebiten.RunGame(&hostGame{ctx: gctx, h: h})
	cancel()
	if werr := g.Wait(); werr != nil && !errors.Is(werr, context.Canceled) {
		return werr
	}
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

type hostGame struct {
	ctx     context.Context
	h       *hostHAL
	img     *image.RGBA
	fbImg   *ebiten.Image
	scratch []byte
	frame   uint64
	chars   []rune
}

func (g *hostGame) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}

	m := g.h.m
	for _, k := range windowKeys {
		if inpututil.IsKeyJustPressed(k.key) {
			if k.extended {
				m.Key(scanExtended)
			}
			m.Key(k.code)
		}
		if inpututil.IsKeyJustReleased(k.key) {
			if k.extended {
				m.Key(scanExtended)
			}
			m.Key(k.code | scanBreak)
		}
	}

	g.chars = ebiten.AppendInputChars(g.chars[:0])
	for _, r := range g.chars {
		if r < 0x80 {
			m.TypeText(string(rune(r)))
		}
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	fb := g.h.fb
	if g.img == nil || g.img.Bounds().Dx() != fb.width || g.img.Bounds().Dy() != fb.height {
		g.img = image.NewRGBA(image.Rect(0, 0, fb.width, fb.height))
		g.scratch = make([]byte, len(fb.buf))
		if g.fbImg != nil {
			g.fbImg.Deallocate()
		}
		g.fbImg = ebiten.NewImage(fb.width, fb.height)
		g.frame = ^uint64(0)
	}

	if frame, ok := fb.snapshotRGB565(g.scratch, g.frame); ok {
		g.frame = frame
		src := g.scratch
		dst := g.img.Pix
		for i := 0; i+1 < len(src) && i/2*4+3 < len(dst); i += 2 {
			r, gg, b := rgb888From565(uint16(src[i]) | uint16(src[i+1])<<8)
			j := (i / 2) * 4
			dst[j+0] = r
			dst[j+1] = gg
			dst[j+2] = b
			dst[j+3] = 0xFF
		}
		g.fbImg.WritePixels(g.img.Pix)
	}
	screen.DrawImage(g.fbImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.fb.width, g.h.fb.height
}
