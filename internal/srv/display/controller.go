package display

import (
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/mjoret/emovi/apimodel"
	"github.com/mjoret/emovi/internal/srv/config"
	"github.com/mjoret/emovi/internal/srv/device"
	"github.com/mjoret/emovi/internal/srv/emote"
	"github.com/mjoret/emovi/internal/srv/event"
	"github.com/sirupsen/logrus"
)

const qrPrompt = "Scan QR code with the companion app"

// Controller owns the panel, the touch poller and the emote engine, and
// maps application events onto engine commands. All mutating operations
// require a completed Init; producers may call them from concurrent
// contexts, the controller serializes them.
type Controller struct {
	lock        sync.Mutex
	initialized bool

	serverConfig *config.ServerConfig
	board        *device.Board
	bus          *event.Bus

	panel        device.Panel
	touchSampler device.TouchSampler
	touchDevice  *device.Touch
	touchPress   *device.TouchPress
	engine       *emote.Engine
	width        int
	height       int

	activityChannel chan event.ActivityEvent
	touchAskDone    chan bool
	touchDone       chan bool

	qrSub   *event.Subscription
	staSubs []*event.Subscription
}

func NewController(serverConfig *config.ServerConfig, board *device.Board, bus *event.Bus) *Controller {
	return &Controller{
		serverConfig:    serverConfig,
		board:           board,
		bus:             bus,
		touchPress:      device.NewTouchPress(),
		activityChannel: make(chan event.ActivityEvent, 8),
		touchAskDone:    make(chan bool),
		touchDone:       make(chan bool),
	}
}

// Init brings the display up in order: handles, blank + settle + power,
// orientation, backlight, engine, flush wiring, assets, initial message,
// touch poller, event subscriptions. A failure before the orientation step
// aborts; everything after degrades gracefully so the display can still
// show without touch or without the animation system. A second call is a
// warning no-op.
func (c *Controller) Init() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.initialized {
		logrus.Warnf("Display already initialized")
		return nil
	}

	logrus.Infof("Initializing display")
	displayParam := c.serverConfig.ServerParam.DisplayParam

	panelHandle, err := c.board.Handle("panel")
	if err != nil {
		return fmt.Errorf("display bring-up: %w", err)
	}
	panel, ok := panelHandle.(device.Panel)
	if !ok {
		return fmt.Errorf("display bring-up: panel handle type: %w", apimodel.ErrHardware)
	}

	if touchHandle, err := c.board.Handle("touch"); err == nil {
		if sampler, ok := touchHandle.(device.TouchSampler); ok {
			c.touchSampler = sampler
		}
	} else {
		logrus.Warnf("Touch device unavailable, running without touch: %v", err)
	}

	width, height := panel.Resolution()

	// Blank the panel and let it settle before powering on, otherwise the
	// power-on garbage pixels flash through.
	blank := make([]color.RGBA, width*height)
	if err := panel.DrawBitmap(0, 0, width, height, blank); err != nil {
		return fmt.Errorf("blank panel: %w", err)
	}
	time.Sleep(time.Duration(displayParam.SettleDelayMs) * time.Millisecond)

	if err := panel.SetPower(true); err != nil {
		return fmt.Errorf("panel power on: %w", err)
	}
	if err := panel.SetOrientation(displayParam.SwapXy, displayParam.MirrorX, displayParam.MirrorY); err != nil {
		return fmt.Errorf("panel orientation: %w", err)
	}

	c.panel = panel
	c.width = width
	c.height = height

	// Backlight is cosmetic, a failure must not abort the bring-up.
	if backlightHandle, err := c.board.Handle("backlight"); err == nil {
		if backlight, ok := backlightHandle.(*device.Backlight); ok {
			backlight.Start()
		}
	} else {
		logrus.Warnf("Backlight unavailable: %v", err)
	}

	engine, err := emote.NewEngine(emote.Config{
		Width:  width,
		Height: height,
		Fps:    c.serverConfig.ServerParam.EmoteParam.Fps,
	})
	if err != nil {
		logrus.Errorf("Failed to initialize emote engine: %v", err)
	} else {
		c.engine = engine
	}

	if c.engine != nil {
		// The acknowledgement path runs on the panel transfer context and
		// must stay lock-free; NotifyFlushDone honors that.
		panel.SetTransferDoneCallback(c.engine.NotifyFlushDone)
		c.engine.SetFlushCallback(func(x0, y0, x1, y1 int, pix []color.RGBA) {
			if err := panel.DrawBitmap(x0, y0, x1, y1, pix); err != nil {
				logrus.Warnf("Panel draw failed: %v", err)
			}
		})

		if err := c.engine.LoadAssets(c.serverConfig.ServerParam.EmoteParam.AssetDir); err != nil {
			logrus.Warnf("Unable to load animation assets: %v", err)
		}

		c.engine.PostMessage(emote.MSG_SYSTEM, "Initializing...")
		if label := c.engine.ObjectByName("toast_label"); label != nil {
			// Top middle of the screen, keeping the configured y coordinate
			_, y := label.Pos()
			label.SetAlign(emote.ALIGN_TOP_MID, 0, y)
			label.SetLongMode(emote.LONG_SCROLL)
			label.SetScrollStep(4)
			label.SetScrollSpeed(100)
		}
		c.engine.Start()
	}

	if c.touchSampler != nil && c.engine != nil {
		pollPeriod := time.Duration(c.serverConfig.ServerParam.TouchParam.PollMs) * time.Millisecond
		if pollPeriod <= 0 {
			pollPeriod = 15 * time.Millisecond
		}
		c.touchDevice = device.NewTouch(c.touchSampler, pollPeriod)
		c.touchDevice.Start()
		go c.touchLoop()
	}

	c.qrSub = c.bus.Subscribe(event.NetworkTopic, event.NetworkEventQRDisplay, c.handleNetworkEvent)
	c.staSubs = append(c.staSubs,
		c.bus.Subscribe(event.NetworkTopic, event.NetworkEventStaConnected, c.handleNetworkEvent),
		c.bus.Subscribe(event.NetworkTopic, event.NetworkEventStaDisconnected, c.handleNetworkEvent))

	c.initialized = true
	c.setEmotion(EMOTION_IDLE)

	logrus.Infof("Display initialized successfully")
	return nil
}

// Close tears the controller down for tests and clean shutdown. Idempotent.
func (c *Controller) Close() {
	c.lock.Lock()
	if !c.initialized {
		c.lock.Unlock()
		return
	}
	c.initialized = false

	c.bus.Unsubscribe(c.qrSub)
	for _, sub := range c.staSubs {
		c.bus.Unsubscribe(sub)
	}
	c.staSubs = nil

	touchDevice := c.touchDevice
	engine := c.engine
	panel := c.panel
	c.lock.Unlock()

	if touchDevice != nil {
		touchDevice.StopSendingEvent()
		c.touchAskDone <- true
		<-c.touchDone
	}
	if engine != nil {
		engine.Stop()
	}
	if panel != nil {
		if err := panel.SetPower(false); err != nil {
			logrus.Warnf("Panel power off failed: %v", err)
		}
		if err := panel.Close(); err != nil {
			logrus.Warnf("Panel close failed: %v", err)
		}
	}
	logrus.Infof("Display closed")
}

func (c *Controller) touchLoop() {
	for loop := true; loop; {
		select {
		case ev := <-c.touchDevice.EventChannel():
			logrus.Debugf("Touch event: %d, x=%d, y=%d, track_id=%d, strength=%d",
				ev.TouchEventType, ev.X, ev.Y, ev.TrackId, ev.Strength)
			pressed := ev.TouchEventType == event.PRESS_EVENT_TYPE
			c.engine.HandleTouch(pressed, ev.X, ev.Y)
			if activity, changed := c.touchPress.OnTouchEvent(ev); changed {
				select {
				case c.activityChannel <- activity:
				default:
					logrus.Debugf("Drop activity event, consumer lagging")
				}
			}
		case <-c.touchAskDone:
			loop = false
		}
	}
	c.touchDone <- true
}

// ActivityChannel delivers press/release activity edges for the idle
// policy.
func (c *Controller) ActivityChannel() chan event.ActivityEvent {
	return c.activityChannel
}

func (c *Controller) SetText(channel TextChannel, text string) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.initialized {
		return fmt.Errorf("set text: %w", apimodel.ErrInvalidState)
	}

	switch channel {
	case TEXT_CHANNEL_USER:
		// User text is not displayed through the engine currently
	case TEXT_CHANNEL_ASSISTANT:
		if text != "" && c.engine != nil {
			c.engine.PostMessage(emote.MSG_SPEAK, text)
		}
	case TEXT_CHANNEL_SYSTEM:
		if c.engine != nil {
			c.engine.PostMessage(emote.MSG_SYSTEM, text)
		}
	default:
		return fmt.Errorf("text channel %d: %w", channel, apimodel.ErrInvalidArgument)
	}

	return nil
}

func (c *Controller) SetEmotion(name string) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.initialized {
		return fmt.Errorf("set emotion: %w", apimodel.ErrInvalidState)
	}
	logrus.Debugf("Set emotion: %q", name)

	canonical, ok := matchEmotion(name)
	if !ok {
		return fmt.Errorf("emotion %q: %w", name, apimodel.ErrInvalidArgument)
	}
	c.setEmotion(canonical)
	return nil
}

func (c *Controller) setEmotion(canonical string) {
	if c.engine != nil {
		c.engine.SetEmotion(canonical)
	}
}

// Emotion reports the engine's current emotion.
func (c *Controller) Emotion() string {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.engine == nil {
		return ""
	}
	return c.engine.Emotion()
}

func (c *Controller) OnSystemStateChanged(state SystemState) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.initialized {
		return fmt.Errorf("system state change: %w", apimodel.ErrInvalidState)
	}

	switch state {
	case SYSTEM_STATE_LISTENING:
		c.setEmotion(EMOTION_IDLE)
		if c.engine != nil {
			c.engine.NotifyListening()
		}
	case SYSTEM_STATE_SLEEP:
		c.setEmotion(EMOTION_SLEEPY)
	case SYSTEM_STATE_ACTIVE:
		// Handled implicitly through other display updates
	default:
		return fmt.Errorf("system state %d: %w", state, apimodel.ErrInvalidArgument)
	}

	return nil
}

// SendEvent is a reserved extension point, currently observability only.
func (c *Controller) SendEvent(name, message string) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.initialized {
		return fmt.Errorf("send event: %w", apimodel.ErrInvalidState)
	}

	logrus.Infof("Send event: %q, message: %q", name, message)
	return nil
}

func (c *Controller) handleNetworkEvent(topic string, eventId int, payload interface{}) {
	logrus.Infof("Display network event: %s/%d", topic, eventId)

	switch eventId {
	case event.NetworkEventQRDisplay:
		text, _ := payload.(string)
		logrus.Infof("Provisioning QR data: %s", text)

		if err := c.SetText(TEXT_CHANNEL_SYSTEM, qrPrompt); err != nil {
			logrus.Warnf("QR prompt not shown: %v", err)
		}
		if c.engine != nil {
			if eyes := c.engine.ObjectByName("eye_anim"); eyes != nil {
				eyes.SetVisible(false)
			}
			if err := c.engine.SetQRCode(text); err != nil {
				logrus.Warnf("QR code not shown: %v", err)
			}
		}
		// A QR code is shown at most once per boot
		c.bus.Unsubscribe(c.qrSub)
	case event.NetworkEventStaConnected:
		c.SetText(TEXT_CHANNEL_SYSTEM, "WiFi connected")
		c.SetEmotion(EMOTION_IDLE)
	case event.NetworkEventStaDisconnected:
		c.SetText(TEXT_CHANNEL_SYSTEM, "WiFi connecting...")
		c.SetEmotion(EMOTION_IDLE)
	}
}
