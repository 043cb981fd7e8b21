package device

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/mjoret/emovi/apimodel"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

// SSD1306Panel drives the small monochrome OLED variant of the device over
// I2C. The controller treats it like any other panel; the driver dithers the
// RGBA flush down to 1 bit.
type SSD1306Panel struct {
	lock   sync.Mutex
	dev    *ssd1306.Dev
	i2cBus i2c.BusCloser
	width  int
	height int

	transferDone func()
}

func NewSSD1306Panel() (*SSD1306Panel, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w: %v", apimodel.ErrHardware, err)
	}

	// Open a handle to the first available I²C bus:
	i2cBus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w: %v", apimodel.ErrHardware, err)
	}

	dev, err := ssd1306.NewI2C(i2cBus, &ssd1306.DefaultOpts)
	if err != nil {
		i2cBus.Close()
		return nil, fmt.Errorf("init oled: %w: %v", apimodel.ErrHardware, err)
	}

	bounds := dev.Bounds()
	return &SSD1306Panel{
		dev:    dev,
		i2cBus: i2cBus,
		width:  bounds.Dx(),
		height: bounds.Dy(),
	}, nil
}

func (p *SSD1306Panel) DrawBitmap(x0, y0, x1, y1 int, pix []color.RGBA) error {
	img := image.NewRGBA(image.Rect(x0, y0, x1, y1))
	i := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if i < len(pix) {
				img.SetRGBA(x, y, pix[i])
			}
			i++
		}
	}

	p.lock.Lock()
	err := p.dev.Draw(img.Bounds(), img, image.Pt(x0, y0))
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

func (p *SSD1306Panel) SetPower(on bool) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if on {
		// Forces display on, calling Draw() is not enough
		if err := p.dev.SetContrast(1); err != nil {
			return fmt.Errorf("power on: %w: %v", apimodel.ErrHardware, err)
		}
		return nil
	}
	if err := p.dev.Halt(); err != nil {
		return fmt.Errorf("power off: %w: %v", apimodel.ErrHardware, err)
	}
	return nil
}

func (p *SSD1306Panel) SetOrientation(swapXy, mirrorX, mirrorY bool) error {
	// The ssd1306 driver fixes orientation at init time.
	if swapXy || mirrorX || mirrorY {
		logrus.Debugf("ssd1306 panel ignores orientation request")
	}
	return nil
}

func (p *SSD1306Panel) SetTransferDoneCallback(fn func()) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.transferDone = fn
}

func (p *SSD1306Panel) Resolution() (int, int) {
	return p.width, p.height
}

func (p *SSD1306Panel) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	logrus.Infof("Close ssd1306 panel")
	return p.i2cBus.Close()
}
