package device

import (
	"image"
	"image/color"
	"sync"
)

// Panel is the draw surface the emote engine flushes to. DrawBitmap pushes a
// rendered region; once the transfer has landed the panel fires the
// registered transfer-done callback. The callback runs on the panel's
// transfer context and must not block.
type Panel interface {
	DrawBitmap(x0, y0, x1, y1 int, pix []color.RGBA) error
	SetPower(on bool) error
	SetOrientation(swapXy, mirrorX, mirrorY bool) error
	SetTransferDoneCallback(fn func())
	Resolution() (width, height int)
	Close() error
}

// SimPanel is the in-memory panel used in simulation mode and in tests. It
// keeps the last flushed frame and fires the transfer-done callback
// synchronously after each draw.
type SimPanel struct {
	lock    sync.Mutex
	width   int
	height  int
	frame   *image.RGBA
	on      bool
	swapXy  bool
	mirrorX bool
	mirrorY bool

	drawCount    int
	transferDone func()
}

func NewSimPanel(width, height int) *SimPanel {
	return &SimPanel{
		width:  width,
		height: height,
		frame:  image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

func (p *SimPanel) DrawBitmap(x0, y0, x1, y1 int, pix []color.RGBA) error {
	p.lock.Lock()
	i := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if i < len(pix) {
				p.frame.SetRGBA(x, y, pix[i])
			}
			i++
		}
	}
	p.drawCount++
	transferDone := p.transferDone
	p.lock.Unlock()

	if transferDone != nil {
		transferDone()
	}
	return nil
}

func (p *SimPanel) SetPower(on bool) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.on = on
	return nil
}

func (p *SimPanel) SetOrientation(swapXy, mirrorX, mirrorY bool) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.swapXy = swapXy
	p.mirrorX = mirrorX
	p.mirrorY = mirrorY
	return nil
}

func (p *SimPanel) SetTransferDoneCallback(fn func()) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.transferDone = fn
}

func (p *SimPanel) Resolution() (int, int) {
	return p.width, p.height
}

func (p *SimPanel) Close() error {
	return nil
}

func (p *SimPanel) IsOn() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.on
}

func (p *SimPanel) Orientation() (swapXy, mirrorX, mirrorY bool) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.swapXy, p.mirrorX, p.mirrorY
}

func (p *SimPanel) DrawCount() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.drawCount
}

func (p *SimPanel) Frame() *image.RGBA {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.frame
}
