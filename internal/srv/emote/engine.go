package emote

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mjoret/emovi/apimodel"
	"github.com/sirupsen/logrus"
	qrcode "github.com/skip2/go-qrcode"
)

type MessageKind int

const (
	MSG_SYSTEM MessageKind = iota
	MSG_SPEAK
)

// FlushCallback receives a rendered region ready for the panel. It must not
// depend on anything the transfer acknowledgement path blocks on.
type FlushCallback func(x0, y0, x1, y1 int, pix []color.RGBA)

type Config struct {
	Width  int
	Height int
	Fps    int
}

// Engine renders the emotion animation and its overlay layers onto a
// double-buffered surface at a fixed frame rate. At most one flush is in
// flight at a time: a new frame is not started until the previous transfer
// has been acknowledged through NotifyFlushDone.
type Engine struct {
	lock sync.Mutex
	cfg  Config

	flushCb  FlushCallback
	inFlight atomic.Bool

	front *image.RGBA
	back  *image.RGBA

	emotion     string
	listenCount int
	lastTouch   image.Point
	touchTicks  int

	objects map[string]*Object
	assets  map[string][]*image.RGBA
	qrImage image.Image

	frameTick   int
	frameTicker *time.Ticker
	started     bool
	askDone     chan bool
	done        chan bool
}

func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("engine resolution %dx%d: %w", cfg.Width, cfg.Height, apimodel.ErrInvalidArgument)
	}
	if cfg.Fps <= 0 {
		cfg.Fps = 30
	}

	engine := &Engine{
		cfg:        cfg,
		touchTicks: cfg.Fps,
		front:      image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height)),
		back:       image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height)),
		objects:    make(map[string]*Object),
		assets:     make(map[string][]*image.RGBA),
		askDone:    make(chan bool),
		done:       make(chan bool),
	}
	for _, name := range []string{"eye_anim", "toast_label", "speech_label", "qr_code"} {
		engine.objects[name] = newObject(name)
	}
	engine.objects["qr_code"].SetVisible(false)
	return engine, nil
}

func (e *Engine) SetFlushCallback(cb FlushCallback) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.flushCb = cb
}

func (e *Engine) Start() {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.started {
		return
	}
	e.started = true
	logrus.Infof("Start emote engine %dx%d @%dfps", e.cfg.Width, e.cfg.Height, e.cfg.Fps)

	e.frameTicker = time.NewTicker(time.Second / time.Duration(e.cfg.Fps))
	go func() {
		for loop := true; loop; {
			select {
			case <-e.frameTicker.C:
				e.renderFrame()
			case <-e.askDone:
				loop = false
			}
		}
		e.done <- true
	}()
}

func (e *Engine) Stop() {
	e.lock.Lock()
	if !e.started {
		e.lock.Unlock()
		return
	}
	e.started = false
	e.frameTicker.Stop()
	e.lock.Unlock()

	logrus.Infof("Stop emote engine")
	e.askDone <- true
	<-e.done
}

// NotifyFlushDone acknowledges the in-flight transfer and releases the next
// frame. Safe from any goroutine, including the panel's transfer context; it
// never takes the engine lock.
func (e *Engine) NotifyFlushDone() {
	e.inFlight.Store(false)
}

// renderFrame produces one frame and hands it to the flush callback. Skipped
// entirely while a previous flush is unacknowledged.
func (e *Engine) renderFrame() {
	if !e.inFlight.CompareAndSwap(false, true) {
		return
	}

	e.lock.Lock()
	if e.flushCb == nil {
		e.lock.Unlock()
		e.inFlight.Store(false)
		return
	}
	e.frameTick++
	if e.touchTicks < e.cfg.Fps {
		e.touchTicks++
	}
	drawFrame(e.back, e)
	e.front, e.back = e.back, e.front
	buf := bufferOf(e.front)
	cb := e.flushCb
	width, height := e.cfg.Width, e.cfg.Height
	e.lock.Unlock()

	cb(0, 0, width, height, buf)
}

func (e *Engine) SetEmotion(name string) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.emotion != name {
		logrus.Debugf("Engine emotion: %s", name)
		e.emotion = name
		e.frameTick = 0
	}
}

func (e *Engine) Emotion() string {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.emotion
}

func (e *Engine) PostMessage(kind MessageKind, text string) {
	switch kind {
	case MSG_SYSTEM:
		e.objects["toast_label"].SetText(text)
	case MSG_SPEAK:
		e.objects["speech_label"].SetText(text)
		e.objects["speech_label"].SetVisible(true)
	}
}

// NotifyListening signals that the device started listening for speech.
func (e *Engine) NotifyListening() {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.listenCount++
	logrus.Debugf("Engine listening")
}

func (e *Engine) ListenCount() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.listenCount
}

// SetQRCode renders the payload into the qr_code overlay and shows it.
func (e *Engine) SetQRCode(data string) error {
	size := e.cfg.Width
	if e.cfg.Height < size {
		size = e.cfg.Height
	}
	size = size * 3 / 4

	qr, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("qr payload: %w", err)
	}

	e.lock.Lock()
	e.qrImage = qr.Image(size)
	e.lock.Unlock()
	e.objects["qr_code"].SetVisible(true)
	return nil
}

// ObjectByName exposes a named layer of the engine. Returns nil for unknown
// names.
func (e *Engine) ObjectByName(name string) *Object {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.objects[name]
}

// HandleTouch receives normalized touch input from the poller. A press makes
// the procedural face glance toward the touched point for about a second.
func (e *Engine) HandleTouch(pressed bool, x, y int) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if pressed {
		e.lastTouch = image.Pt(x, y)
		e.touchTicks = 0
	}
}

// gazeOffset is the horizontal eye shift toward the last touch, zero once the
// glance has expired. Caller holds the engine lock.
func (e *Engine) gazeOffset() int {
	if e.touchTicks >= e.cfg.Fps {
		return 0
	}
	if e.lastTouch.X < e.cfg.Width/2 {
		return -2
	}
	return 2
}

func bufferOf(img *image.RGBA) []color.RGBA {
	bounds := img.Bounds()
	buf := make([]color.RGBA, bounds.Dx()*bounds.Dy())
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			buf[i] = img.RGBAAt(x, y)
			i++
		}
	}
	return buf
}
