package device

import (
	"os"
	"strconv"
	"sync"

	"github.com/mjoret/emovi/internal/srv/config"
	"github.com/sirupsen/logrus"
)

// Backlight adjusts the panel backlight through sysfs. Every operation is
// best effort: a write failure is logged and never propagated, partial
// functionality beats aborting.
type Backlight struct {
	lock        sync.RWMutex
	serverState *config.ServerState
	param       config.BacklightParam
	dimmed      bool
}

func NewBacklight(serverState *config.ServerState, param config.BacklightParam) *Backlight {
	device := Backlight{serverState: serverState, param: param}
	return &device
}

func (w *Backlight) Start() {
	logrus.Infof("Start backlight device")

	w.lock.Lock()
	defer w.lock.Unlock()

	w.applyPercent(w.serverState.Backlight())
}

func (w *Backlight) setBrightness(percent int64) {
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}
	w.serverState.SetBacklight(percent)
	w.dimmed = false
	w.applyPercent(percent)
}

func (w *Backlight) applyPercent(percent int64) {
	raw := percent * w.param.MaxBrightness / 100
	err := os.WriteFile(w.param.SysfsPath, []byte(strconv.FormatInt(raw, 10)), 0644)
	if err != nil {
		logrus.Warnf("Unable to set backlight: %v", err)
		return
	}
}

func (w *Backlight) SetBrightness(percent int64) error {
	logrus.Infof("Set backlight to %d%%", percent)
	w.lock.Lock()
	defer w.lock.Unlock()
	w.setBrightness(percent)
	return nil
}

// Dim lowers the backlight without touching the persisted level.
func (w *Backlight) Dim() {
	logrus.Debugf("Dim backlight")
	w.lock.Lock()
	defer w.lock.Unlock()
	w.dimmed = true
	w.applyPercent(w.param.DimPercent)
}

// Restore reapplies the persisted level after a Dim.
func (w *Backlight) Restore() {
	w.lock.Lock()
	defer w.lock.Unlock()
	if !w.dimmed {
		return
	}
	logrus.Debugf("Restore backlight")
	w.dimmed = false
	w.applyPercent(w.serverState.Backlight())
}
