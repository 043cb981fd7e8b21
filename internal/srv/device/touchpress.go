package device

import (
	"sync"

	"github.com/mjoret/emovi/internal/srv/event"
)

// TouchPress folds raw press/release touch events into activity edges for
// the idle policy. It keeps no state beyond the last reported contact.
type TouchPress struct {
	lock   sync.Mutex
	active bool
}

func NewTouchPress() *TouchPress {
	return &TouchPress{}
}

// OnTouchEvent reports whether the event changed the activity state, and the
// resulting edge when it did.
func (d *TouchPress) OnTouchEvent(ev event.TouchEvent) (event.ActivityEvent, bool) {
	d.lock.Lock()
	defer d.lock.Unlock()

	pressed := ev.TouchEventType == event.PRESS_EVENT_TYPE
	if pressed == d.active {
		return event.ActivityEvent{}, false
	}
	d.active = pressed
	return event.ActivityEvent{Active: pressed}, true
}

func (d *TouchPress) Active() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.active
}
