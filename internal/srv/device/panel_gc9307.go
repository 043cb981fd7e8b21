package device

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/mjoret/emovi/apimodel"
	"github.com/mjoret/emovi/internal/srv/config"
	gc9307 "github.com/photonicat/periph.io-gc9307"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// GC9307Panel drives the color LCD over SPI.
type GC9307Panel struct {
	lock  sync.Mutex
	dev   gc9307.Device
	param config.DisplayParam
	port  spi.PortCloser

	transferDone func()
}

func NewGC9307Panel(param config.DisplayParam) (*GC9307Panel, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w: %v", apimodel.ErrHardware, err)
	}

	port, err := spireg.Open(param.SpiPort)
	if err != nil {
		return nil, fmt.Errorf("open spi port %s: %w: %v", param.SpiPort, apimodel.ErrHardware, err)
	}

	conn, err := port.Connect(100000*physic.KiloHertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("connect spi: %w: %v", apimodel.ErrHardware, err)
	}

	panel := &GC9307Panel{
		param: param,
		port:  port,
	}
	panel.dev = gc9307.New(conn,
		gpioreg.ByName(param.ResetPin),
		gpioreg.ByName(param.DcPin),
		gpioreg.ByName(param.CsPin),
		gpioreg.ByName(param.BacklightPin))
	panel.configure(rotationFor(param.SwapXy, param.MirrorX, param.MirrorY))

	return panel, nil
}

func (p *GC9307Panel) configure(rotation gc9307.Rotation) {
	p.dev.Configure(gc9307.Config{
		Width:        int16(p.param.Width),
		Height:       int16(p.param.Height),
		Rotation:     rotation,
		RowOffset:    0,
		ColumnOffset: int16(p.param.ColumnOffset),
		FrameRate:    gc9307.FRAMERATE_60,
		VSyncLines:   gc9307.MAX_VSYNC_SCANLINES,
		UseCS:        false,
	})
}

func rotationFor(swapXy, mirrorX, mirrorY bool) gc9307.Rotation {
	// The controller only exposes swap/mirror; fold them onto the closest
	// rotation the driver understands.
	switch {
	case swapXy && mirrorX:
		return gc9307.ROTATION_270
	case swapXy:
		return gc9307.ROTATION_90
	case mirrorX && mirrorY:
		return gc9307.ROTATION_180
	default:
		return gc9307.NO_ROTATION
	}
}

func (p *GC9307Panel) DrawBitmap(x0, y0, x1, y1 int, pix []color.RGBA) error {
	p.lock.Lock()
	err := p.dev.FillRectangleWithBuffer(int16(x0), int16(y0), int16(x1-x0), int16(y1-y0), pix)
	transferDone := p.transferDone
	p.lock.Unlock()

	if err != nil {
		return fmt.Errorf("draw bitmap: %w: %v", apimodel.ErrHardware, err)
	}
	if transferDone != nil {
		transferDone()
	}
	return nil
}

func (p *GC9307Panel) SetPower(on bool) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.dev.EnableBacklight(on)
	return nil
}

func (p *GC9307Panel) SetOrientation(swapXy, mirrorX, mirrorY bool) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.configure(rotationFor(swapXy, mirrorX, mirrorY))
	return nil
}

func (p *GC9307Panel) SetTransferDoneCallback(fn func()) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.transferDone = fn
}

func (p *GC9307Panel) Resolution() (int, int) {
	return p.param.Width, p.param.Height
}

func (p *GC9307Panel) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	logrus.Infof("Close gc9307 panel")
	return p.port.Close()
}
