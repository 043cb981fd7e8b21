package emote

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
)

// LoadAssets reads animation frame sets from dir. Each subdirectory named
// after an emotion holds its PNG frames in lexical order; a top-level
// <emotion>.png is a single still frame. Emotions without assets fall back
// to the procedural face.
func (e *Engine) LoadAssets(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read asset dir %s: %w", dir, err)
	}

	loaded := make(map[string][]*image.RGBA)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			frames, err := loadFrameDir(filepath.Join(dir, name))
			if err != nil {
				logrus.Warnf("Skip asset set %s: %v", name, err)
				continue
			}
			if len(frames) > 0 {
				loaded[name] = frames
			}
			continue
		}
		if filepath.Ext(name) == ".png" {
			frame, err := loadFrame(filepath.Join(dir, name))
			if err != nil {
				logrus.Warnf("Skip asset %s: %v", name, err)
				continue
			}
			emotion := name[:len(name)-len(".png")]
			loaded[emotion] = []*image.RGBA{frame}
		}
	}

	e.lock.Lock()
	e.assets = loaded
	e.lock.Unlock()

	logrus.Infof("Loaded %d animation asset sets from %s", len(loaded), dir)
	return nil
}

func loadFrameDir(dir string) ([]*image.RGBA, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".png" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var frames []*image.RGBA
	for _, name := range names {
		frame, err := loadFrame(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

func loadFrame(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}

	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}
