package emote

import (
	"bytes"
	"errors"
	"image/color"
	"testing"

	"github.com/mjoret/emovi/apimodel"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(Config{Width: 32, Height: 32, Fps: 30})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func TestNewEngineRejectsBadResolution(t *testing.T) {
	if _, err := NewEngine(Config{Width: 0, Height: 32}); !errors.Is(err, apimodel.ErrInvalidArgument) {
		t.Errorf("zero width: got %v, want ErrInvalidArgument", err)
	}
	if _, err := NewEngine(Config{Width: 32, Height: -1}); !errors.Is(err, apimodel.ErrInvalidArgument) {
		t.Errorf("negative height: got %v, want ErrInvalidArgument", err)
	}
}

func TestSingleFlushInFlight(t *testing.T) {
	engine := newTestEngine(t)

	flushes := 0
	lastLen := 0
	engine.SetFlushCallback(func(x0, y0, x1, y1 int, pix []color.RGBA) {
		flushes++
		lastLen = len(pix)
	})

	engine.renderFrame()
	if flushes != 1 {
		t.Fatalf("flushes = %d, want 1", flushes)
	}
	if lastLen != 32*32 {
		t.Errorf("flush buffer length = %d, want %d", lastLen, 32*32)
	}

	// Unacknowledged: the next frame must not start
	engine.renderFrame()
	engine.renderFrame()
	if flushes != 1 {
		t.Fatalf("flushes = %d before acknowledgement, want 1", flushes)
	}

	engine.NotifyFlushDone()
	engine.renderFrame()
	if flushes != 2 {
		t.Fatalf("flushes = %d after acknowledgement, want 2", flushes)
	}
}

func TestRenderWithoutCallbackReleasesToken(t *testing.T) {
	engine := newTestEngine(t)

	engine.renderFrame()

	flushes := 0
	engine.SetFlushCallback(func(x0, y0, x1, y1 int, pix []color.RGBA) {
		flushes++
	})
	engine.renderFrame()
	if flushes != 1 {
		t.Errorf("flushes = %d, want 1", flushes)
	}
}

func TestPostMessageRouting(t *testing.T) {
	engine := newTestEngine(t)

	engine.PostMessage(MSG_SYSTEM, "booting")
	if got := engine.ObjectByName("toast_label").Text(); got != "booting" {
		t.Errorf("toast label = %q, want %q", got, "booting")
	}

	engine.PostMessage(MSG_SPEAK, "hello")
	speech := engine.ObjectByName("speech_label")
	if got := speech.Text(); got != "hello" {
		t.Errorf("speech label = %q, want %q", got, "hello")
	}
	if !speech.Visible() {
		t.Error("speech label should become visible")
	}
}

func TestObjectByNameUnknown(t *testing.T) {
	engine := newTestEngine(t)
	if engine.ObjectByName("nope") != nil {
		t.Error("unknown object name should return nil")
	}
}

func TestSetQRCode(t *testing.T) {
	engine := newTestEngine(t)

	if engine.ObjectByName("qr_code").Visible() {
		t.Fatal("QR overlay should start hidden")
	}
	if err := engine.SetQRCode("WIFI:T:WPA;S:emovi;;"); err != nil {
		t.Fatalf("SetQRCode: %v", err)
	}
	if !engine.ObjectByName("qr_code").Visible() {
		t.Error("QR overlay should be visible")
	}
	engine.lock.Lock()
	hasImage := engine.qrImage != nil
	engine.lock.Unlock()
	if !hasImage {
		t.Error("QR image was not rendered")
	}
}

func TestSetEmotionRestartsAnimation(t *testing.T) {
	engine := newTestEngine(t)

	engine.frameTick = 7
	engine.SetEmotion("happy")
	if engine.frameTick != 0 {
		t.Errorf("frameTick = %d after emotion change, want 0", engine.frameTick)
	}
	if got := engine.Emotion(); got != "happy" {
		t.Errorf("emotion = %q, want %q", got, "happy")
	}

	// Re-setting the same emotion must not restart the animation
	engine.frameTick = 3
	engine.SetEmotion("happy")
	if engine.frameTick != 3 {
		t.Errorf("frameTick = %d, want 3", engine.frameTick)
	}
}

func TestTouchGlance(t *testing.T) {
	steady := newTestEngine(t)
	glancing := newTestEngine(t)

	if got := steady.gazeOffset(); got != 0 {
		t.Fatalf("gaze offset without touch = %d, want 0", got)
	}

	glancing.HandleTouch(true, 0, 16)
	if got := glancing.gazeOffset(); got != -2 {
		t.Fatalf("gaze offset after left touch = %d, want -2", got)
	}
	glancing.HandleTouch(true, 31, 16)
	if got := glancing.gazeOffset(); got != 2 {
		t.Fatalf("gaze offset after right touch = %d, want 2", got)
	}

	// The glance must reach the rendered frame
	drawFrame(steady.back, steady)
	drawFrame(glancing.back, glancing)
	if bytes.Equal(steady.back.Pix, glancing.back.Pix) {
		t.Error("a recent touch should shift the eyes in the frame")
	}

	// And it expires after a second of frames
	glancing.touchTicks = glancing.cfg.Fps
	if got := glancing.gazeOffset(); got != 0 {
		t.Errorf("gaze offset after expiry = %d, want 0", got)
	}
	drawFrame(glancing.back, glancing)
	if !bytes.Equal(steady.back.Pix, glancing.back.Pix) {
		t.Error("an expired glance should render the steady frame")
	}

	// A release does not start a glance
	steady.HandleTouch(false, 0, 16)
	if got := steady.gazeOffset(); got != 0 {
		t.Errorf("gaze offset after release = %d, want 0", got)
	}
}

func TestNotifyListening(t *testing.T) {
	engine := newTestEngine(t)

	engine.NotifyListening()
	engine.NotifyListening()
	if got := engine.ListenCount(); got != 2 {
		t.Errorf("listen count = %d, want 2", got)
	}
}
