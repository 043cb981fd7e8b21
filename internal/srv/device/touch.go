package device

import (
	"sync"
	"time"

	"github.com/mjoret/emovi/internal/srv/event"
	"github.com/sirupsen/logrus"
)

// ContactSample is one reading of the touch surface.
type ContactSample struct {
	Touching bool
	X        int
	Y        int
	TrackId  int
	Strength int
}

// TouchSampler is the touch primitive boundary. Sample returns the current
// contact state; it must not block.
type TouchSampler interface {
	Sample() (ContactSample, error)
}

// Touch polls a sampler on a fixed period and emits a TouchEvent whenever
// the contact state differs from the previous sample.
type Touch struct {
	lock         sync.RWMutex
	eventChannel chan event.TouchEvent

	sampler    TouchSampler
	pollPeriod time.Duration

	pollTicker *time.Ticker
	last       ContactSample

	askDone chan bool
	done    chan bool
}

func NewTouch(sampler TouchSampler, pollPeriod time.Duration) *Touch {
	device := Touch{
		eventChannel: make(chan event.TouchEvent),
		sampler:      sampler,
		pollPeriod:   pollPeriod,
		askDone:      make(chan bool),
		done:         make(chan bool),
	}

	return &device
}

func (d *Touch) Start() {
	logrus.Infof("Start touch device")

	d.lock.Lock()
	defer d.lock.Unlock()

	d.pollTicker = time.NewTicker(d.pollPeriod)
	go func() {
		for loop := true; loop; {
			select {
			case <-d.pollTicker.C:
				d.poll()
			case <-d.askDone:
				loop = false
			}
		}
		d.done <- true
	}()
}

func (d *Touch) poll() {
	sample, err := d.sampler.Sample()
	if err != nil {
		logrus.Debugf("Touch sample failed: %v", err)
		return
	}

	if sample.Touching == d.last.Touching {
		d.last = sample
		return
	}
	d.last = sample

	eventType := event.RELEASE_EVENT_TYPE
	if sample.Touching {
		eventType = event.PRESS_EVENT_TYPE
	}
	d.eventChannel <- event.TouchEvent{
		TouchEventType: eventType,
		X:              sample.X,
		Y:              sample.Y,
		TrackId:        sample.TrackId,
		Strength:       sample.Strength,
	}
}

func (d *Touch) StopSendingEvent() {
	logrus.Infof("Stop touch device")

	d.lock.Lock()
	defer d.lock.Unlock()

	d.pollTicker.Stop()
	d.askDone <- true
	<-d.done
}

func (d *Touch) EventChannel() chan event.TouchEvent {
	return d.eventChannel
}

// SimSampler is a scripted sampler for simulation mode and tests.
type SimSampler struct {
	lock   sync.Mutex
	sample ContactSample
}

func NewSimSampler() *SimSampler {
	return &SimSampler{}
}

func (s *SimSampler) SetContact(touching bool, x, y int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.sample = ContactSample{Touching: touching, X: x, Y: y, Strength: 32}
}

func (s *SimSampler) Sample() (ContactSample, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.sample, nil
}
