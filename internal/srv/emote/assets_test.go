package emote

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPNG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func TestLoadAssets(t *testing.T) {
	dir := t.TempDir()

	// Single still frame
	writeTestPNG(t, filepath.Join(dir, "happy.png"), color.RGBA{255, 0, 0, 255})

	// Frame sequence, lexical order
	idleDir := filepath.Join(dir, "idle")
	if err := os.Mkdir(idleDir, 0770); err != nil {
		t.Fatal(err)
	}
	writeTestPNG(t, filepath.Join(idleDir, "02.png"), color.RGBA{0, 255, 0, 255})
	writeTestPNG(t, filepath.Join(idleDir, "01.png"), color.RGBA{0, 0, 255, 255})

	// Ignored file
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0660); err != nil {
		t.Fatal(err)
	}

	engine := newTestEngine(t)
	if err := engine.LoadAssets(dir); err != nil {
		t.Fatalf("LoadAssets: %v", err)
	}

	engine.lock.Lock()
	defer engine.lock.Unlock()

	if got := len(engine.assets["happy"]); got != 1 {
		t.Errorf("happy frames = %d, want 1", got)
	}
	frames := engine.assets["idle"]
	if len(frames) != 2 {
		t.Fatalf("idle frames = %d, want 2", len(frames))
	}
	if frames[0].RGBAAt(0, 0) != (color.RGBA{0, 0, 255, 255}) {
		t.Error("frames are not in lexical order")
	}
	if _, ok := engine.assets["notes"]; ok {
		t.Error("non-png file was loaded as an asset")
	}
}

func TestLoadAssetsMissingDir(t *testing.T) {
	engine := newTestEngine(t)
	if err := engine.LoadAssets(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("missing asset dir should report an error")
	}
}
