package device

import (
	"fmt"
	"sync"

	evdev "github.com/holoplot/go-evdev"
	"github.com/mjoret/emovi/apimodel"
	"github.com/sirupsen/logrus"
)

// EvdevSampler adapts a Linux multitouch input device to the TouchSampler
// boundary. A reader goroutine accumulates the event stream; Sample returns
// the state committed by the last SYN_REPORT without blocking.
type EvdevSampler struct {
	lock    sync.Mutex
	dev     *evdev.InputDevice
	current ContactSample
	pending ContactSample
}

// NewEvdevSampler opens the touch device at path, or searches registered
// input devices by name when path is empty.
func NewEvdevSampler(path, name string) (*EvdevSampler, error) {
	if path == "" {
		paths, err := evdev.ListDevicePaths()
		if err != nil {
			return nil, fmt.Errorf("list input devices: %w: %v", apimodel.ErrHardware, err)
		}
		for _, ip := range paths {
			if ip.Name == name {
				path = ip.Path
				break
			}
		}
		if path == "" {
			return nil, fmt.Errorf("touch device %q: %w", name, apimodel.ErrNotFound)
		}
	}

	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %v", path, apimodel.ErrHardware, err)
	}

	devName, _ := dev.Name()
	logrus.Infof("Using touch input device: %s (%s)", path, devName)

	sampler := &EvdevSampler{dev: dev}
	go sampler.readLoop()
	return sampler, nil
}

func (s *EvdevSampler) readLoop() {
	for {
		ev, err := s.dev.ReadOne()
		if err != nil {
			logrus.Warnf("Touch input read error: %v", err)
			return
		}

		s.lock.Lock()
		switch ev.Type {
		case evdev.EV_KEY:
			if ev.Code == evdev.BTN_TOUCH {
				s.pending.Touching = ev.Value != 0
			}
		case evdev.EV_ABS:
			switch ev.Code {
			case evdev.ABS_MT_POSITION_X, evdev.ABS_X:
				s.pending.X = int(ev.Value)
			case evdev.ABS_MT_POSITION_Y, evdev.ABS_Y:
				s.pending.Y = int(ev.Value)
			case evdev.ABS_MT_TRACKING_ID:
				if ev.Value >= 0 {
					s.pending.TrackId = int(ev.Value)
					s.pending.Touching = true
				} else {
					s.pending.Touching = false
				}
			case evdev.ABS_MT_PRESSURE, evdev.ABS_PRESSURE:
				s.pending.Strength = int(ev.Value)
			}
		case evdev.EV_SYN:
			if ev.Code == evdev.SYN_REPORT {
				s.current = s.pending
			}
		}
		s.lock.Unlock()
	}
}

func (s *EvdevSampler) Sample() (ContactSample, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.current, nil
}
