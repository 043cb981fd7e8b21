package display

import (
	"errors"
	"testing"
	"time"

	"github.com/mjoret/emovi/apimodel"
	"github.com/mjoret/emovi/internal/srv/config"
	"github.com/mjoret/emovi/internal/srv/device"
	"github.com/mjoret/emovi/internal/srv/event"
)

func newTestConfig() *config.ServerConfig {
	return &config.ServerConfig{
		ServerParam: &config.ServerParam{
			DisplayParam: config.DisplayParam{
				Driver:        "sim",
				Width:         172,
				Height:        320,
				SettleDelayMs: 1,
			},
			TouchParam: config.TouchParam{PollMs: 1},
			EmoteParam: config.EmoteParam{Fps: 60},
		},
	}
}

func newTestController(t *testing.T) (*Controller, *device.SimPanel, *device.SimSampler, *event.Bus) {
	t.Helper()

	serverConfig := newTestConfig()
	board := device.NewBoard()
	panel := device.NewSimPanel(172, 320)
	sampler := device.NewSimSampler()
	board.RegisterDevice("panel", panel, serverConfig.ServerParam.DisplayParam)
	board.RegisterDevice("touch", sampler, serverConfig.ServerParam.TouchParam)
	bus := event.NewBus()

	controller := NewController(serverConfig, board, bus)
	t.Cleanup(func() {
		controller.Close()
		bus.Close()
	})
	return controller, panel, sampler, bus
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestMutatingOperationsBeforeInit(t *testing.T) {
	controller, panel, _, _ := newTestController(t)

	if err := controller.SetText(TEXT_CHANNEL_ASSISTANT, "hello"); !errors.Is(err, apimodel.ErrInvalidState) {
		t.Errorf("SetText before init: got %v, want ErrInvalidState", err)
	}
	if err := controller.SetEmotion("happy"); !errors.Is(err, apimodel.ErrInvalidState) {
		t.Errorf("SetEmotion before init: got %v, want ErrInvalidState", err)
	}
	if err := controller.OnSystemStateChanged(SYSTEM_STATE_LISTENING); !errors.Is(err, apimodel.ErrInvalidState) {
		t.Errorf("OnSystemStateChanged before init: got %v, want ErrInvalidState", err)
	}
	if err := controller.SendEvent("boot", "msg"); !errors.Is(err, apimodel.ErrInvalidState) {
		t.Errorf("SendEvent before init: got %v, want ErrInvalidState", err)
	}

	// No side effect reached the hardware
	if panel.IsOn() {
		t.Error("panel powered on without init")
	}
	if panel.DrawCount() != 0 {
		t.Errorf("panel draw count = %d, want 0", panel.DrawCount())
	}

	// Emotion validation works without init
	if !IsEmotionValid("happy") {
		t.Error("IsEmotionValid should not require init")
	}
}

func TestInitBringsUpPanel(t *testing.T) {
	controller, panel, _, _ := newTestController(t)

	if err := controller.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !panel.IsOn() {
		t.Error("panel should be powered on")
	}
	if panel.DrawCount() < 1 {
		t.Error("panel should have been blanked before power on")
	}
	if got := controller.Emotion(); got != EMOTION_IDLE {
		t.Errorf("emotion after init = %q, want %q", got, EMOTION_IDLE)
	}
}

func TestInitTwiceIsNonFatal(t *testing.T) {
	controller, _, _, _ := newTestController(t)

	if err := controller.Init(); err != nil {
		t.Fatalf("first Init: %v", err)
	}
	engine := controller.engine
	if err := controller.Init(); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	if controller.engine != engine {
		t.Error("second Init must not re-run the bring-up")
	}
}

func TestInitWithoutPanelFails(t *testing.T) {
	serverConfig := newTestConfig()
	board := device.NewBoard()
	bus := event.NewBus()
	t.Cleanup(bus.Close)

	controller := NewController(serverConfig, board, bus)
	if err := controller.Init(); !errors.Is(err, apimodel.ErrNotFound) {
		t.Errorf("Init without panel: got %v, want ErrNotFound", err)
	}
	if err := controller.SetEmotion("happy"); !errors.Is(err, apimodel.ErrInvalidState) {
		t.Errorf("controller must stay uninitialized after a failed Init, got %v", err)
	}
}

func TestInitWithoutTouchDegradesGracefully(t *testing.T) {
	serverConfig := newTestConfig()
	board := device.NewBoard()
	panel := device.NewSimPanel(172, 320)
	board.RegisterDevice("panel", panel, serverConfig.ServerParam.DisplayParam)
	bus := event.NewBus()

	controller := NewController(serverConfig, board, bus)
	t.Cleanup(func() {
		controller.Close()
		bus.Close()
	})

	if err := controller.Init(); err != nil {
		t.Fatalf("Init without touch should succeed: %v", err)
	}
	if controller.touchDevice != nil {
		t.Error("touch poller must not start without a sampler")
	}
}

func TestSetEmotion(t *testing.T) {
	controller, _, _, _ := newTestController(t)
	if err := controller.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := controller.SetEmotion("Happy"); err != nil {
		t.Errorf("SetEmotion(Happy): %v", err)
	}
	if got := controller.Emotion(); got != EMOTION_HAPPY {
		t.Errorf("emotion = %q, want %q", got, EMOTION_HAPPY)
	}

	if err := controller.SetEmotion("SAD!!"); err != nil {
		t.Errorf("SetEmotion(SAD!!): %v", err)
	}
	if got := controller.Emotion(); got != EMOTION_SAD {
		t.Errorf("emotion = %q, want %q", got, EMOTION_SAD)
	}

	// Too short to match "happy" as a prefix, and current emotion stays put
	if err := controller.SetEmotion("ha"); !errors.Is(err, apimodel.ErrInvalidArgument) {
		t.Errorf("SetEmotion(ha): got %v, want ErrInvalidArgument", err)
	}
	if err := controller.SetEmotion("zzz"); !errors.Is(err, apimodel.ErrInvalidArgument) {
		t.Errorf("SetEmotion(zzz): got %v, want ErrInvalidArgument", err)
	}
	if got := controller.Emotion(); got != EMOTION_SAD {
		t.Errorf("rejected emotion mutated state: %q", got)
	}
}

func TestSetText(t *testing.T) {
	controller, _, _, _ := newTestController(t)
	if err := controller.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	speech := controller.engine.ObjectByName("speech_label")
	toast := controller.engine.ObjectByName("toast_label")

	// Empty assistant text is a no-op
	if err := controller.SetText(TEXT_CHANNEL_ASSISTANT, ""); err != nil {
		t.Errorf("SetText(assistant, empty): %v", err)
	}
	if got := speech.Text(); got != "" {
		t.Errorf("empty assistant text dispatched a message: %q", got)
	}

	if err := controller.SetText(TEXT_CHANNEL_ASSISTANT, "hello"); err != nil {
		t.Errorf("SetText(assistant, hello): %v", err)
	}
	if got := speech.Text(); got != "hello" {
		t.Errorf("speech label = %q, want %q", got, "hello")
	}

	toastBefore := toast.Text()
	speechBefore := speech.Text()

	// User text is never forwarded to rendering
	if err := controller.SetText(TEXT_CHANNEL_USER, "secret"); err != nil {
		t.Errorf("SetText(user): %v", err)
	}
	if toast.Text() != toastBefore || speech.Text() != speechBefore {
		t.Error("user text must not reach a rendering target")
	}

	if err := controller.SetText(TEXT_CHANNEL_SYSTEM, "status"); err != nil {
		t.Errorf("SetText(system): %v", err)
	}
	if got := toast.Text(); got != "status" {
		t.Errorf("toast label = %q, want %q", got, "status")
	}

	if err := controller.SetText(TextChannel(42), "x"); !errors.Is(err, apimodel.ErrInvalidArgument) {
		t.Errorf("SetText(unknown channel): got %v, want ErrInvalidArgument", err)
	}
}

func TestOnSystemStateChanged(t *testing.T) {
	controller, _, _, _ := newTestController(t)
	if err := controller.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := controller.SetEmotion("happy"); err != nil {
		t.Fatalf("SetEmotion: %v", err)
	}

	if err := controller.OnSystemStateChanged(SYSTEM_STATE_LISTENING); err != nil {
		t.Errorf("OnSystemStateChanged(listening): %v", err)
	}
	if got := controller.Emotion(); got != EMOTION_IDLE {
		t.Errorf("emotion after listening = %q, want %q", got, EMOTION_IDLE)
	}
	if got := controller.engine.ListenCount(); got != 1 {
		t.Errorf("listen notifications = %d, want 1", got)
	}

	if err := controller.OnSystemStateChanged(SYSTEM_STATE_SLEEP); err != nil {
		t.Errorf("OnSystemStateChanged(sleep): %v", err)
	}
	if got := controller.Emotion(); got != EMOTION_SLEEPY {
		t.Errorf("emotion after sleep = %q, want %q", got, EMOTION_SLEEPY)
	}

	if err := controller.OnSystemStateChanged(SystemState(99)); !errors.Is(err, apimodel.ErrInvalidArgument) {
		t.Errorf("OnSystemStateChanged(99): got %v, want ErrInvalidArgument", err)
	}
	if got := controller.Emotion(); got != EMOTION_SLEEPY {
		t.Errorf("rejected state mutated emotion: %q", got)
	}
	if got := controller.engine.ListenCount(); got != 1 {
		t.Errorf("rejected state dispatched a listen notification: %d", got)
	}
}

func TestWifiEventsUpdateStatus(t *testing.T) {
	controller, _, _, bus := newTestController(t)
	if err := controller.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	toast := controller.engine.ObjectByName("toast_label")

	if got := controller.Emotion(); got != EMOTION_IDLE {
		t.Fatalf("emotion after init = %q, want %q", got, EMOTION_IDLE)
	}

	bus.Post(event.NetworkTopic, event.NetworkEventStaDisconnected, nil)
	waitFor(t, "connecting status", func() bool { return toast.Text() == "WiFi connecting..." })
	if got := controller.Emotion(); got != EMOTION_IDLE {
		t.Errorf("emotion after disconnect = %q, want %q", got, EMOTION_IDLE)
	}

	bus.Post(event.NetworkTopic, event.NetworkEventStaConnected, nil)
	waitFor(t, "connected status", func() bool { return toast.Text() == "WiFi connected" })
	if got := controller.Emotion(); got != EMOTION_IDLE {
		t.Errorf("emotion after connect = %q, want %q", got, EMOTION_IDLE)
	}
}

func TestQRDisplayedAtMostOnce(t *testing.T) {
	controller, _, _, bus := newTestController(t)
	if err := controller.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	toast := controller.engine.ObjectByName("toast_label")
	eyes := controller.engine.ObjectByName("eye_anim")
	qr := controller.engine.ObjectByName("qr_code")

	bus.Post(event.NetworkTopic, event.NetworkEventQRDisplay, "WIFI:T:WPA;S:emovi;;")
	waitFor(t, "QR overlay", func() bool {
		return toast.Text() == qrPrompt && qr.Visible() && !eyes.Visible()
	})

	// Undo the handler's effects, then deliver a second QR event. The
	// handler unsubscribed itself, so nothing may change again. A connected
	// event on the same topic acts as the fence.
	eyes.SetVisible(true)
	bus.Post(event.NetworkTopic, event.NetworkEventQRDisplay, "WIFI:T:WPA;S:other;;")
	bus.Post(event.NetworkTopic, event.NetworkEventStaConnected, nil)
	waitFor(t, "fence event", func() bool { return toast.Text() == "WiFi connected" })

	if !eyes.Visible() {
		t.Error("second QR event was handled, expected exactly one")
	}
}

func TestTouchActivity(t *testing.T) {
	controller, _, sampler, _ := newTestController(t)
	if err := controller.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	sampler.SetContact(true, 10, 20)
	select {
	case activity := <-controller.ActivityChannel():
		if !activity.Active {
			t.Error("press should begin activity")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no activity event after press")
	}

	sampler.SetContact(false, 0, 0)
	select {
	case activity := <-controller.ActivityChannel():
		if activity.Active {
			t.Error("release should end activity")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no activity event after release")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	controller, panel, _, _ := newTestController(t)
	if err := controller.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	controller.Close()
	if panel.IsOn() {
		t.Error("panel should be powered off after Close")
	}
	controller.Close()

	if err := controller.SetEmotion("happy"); !errors.Is(err, apimodel.ErrInvalidState) {
		t.Errorf("SetEmotion after Close: got %v, want ErrInvalidState", err)
	}
}
