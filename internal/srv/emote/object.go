package emote

import "sync"

type Align int

const (
	ALIGN_NONE Align = iota
	ALIGN_TOP_MID
	ALIGN_CENTER
	ALIGN_BOTTOM_MID
)

type LongMode int

const (
	LONG_CLIP LongMode = iota
	LONG_SCROLL
)

// Object is a named engine layer (animation, label, QR overlay). Producers
// adjust layout and visibility through it instead of reaching into the
// engine's internals.
type Object struct {
	lock sync.Mutex

	name    string
	visible bool
	text    string
	x       int
	y       int

	align   Align
	alignDx int
	alignDy int

	longMode     LongMode
	scrollStep   int
	scrollSpeed  int
	scrollOffset int
}

func newObject(name string) *Object {
	return &Object{name: name, visible: true, scrollStep: 1, scrollSpeed: 100}
}

func (o *Object) Name() string {
	return o.name
}

func (o *Object) SetVisible(visible bool) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.visible = visible
}

func (o *Object) Visible() bool {
	o.lock.Lock()
	defer o.lock.Unlock()
	return o.visible
}

func (o *Object) SetText(text string) {
	o.lock.Lock()
	defer o.lock.Unlock()
	if text != o.text {
		o.text = text
		o.scrollOffset = 0
	}
}

func (o *Object) Text() string {
	o.lock.Lock()
	defer o.lock.Unlock()
	return o.text
}

func (o *Object) SetPos(x, y int) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.x = x
	o.y = y
}

func (o *Object) Pos() (int, int) {
	o.lock.Lock()
	defer o.lock.Unlock()
	return o.x, o.y
}

// SetAlign anchors the object relative to the surface; dx/dy offset the
// anchored position.
func (o *Object) SetAlign(align Align, dx, dy int) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.align = align
	o.alignDx = dx
	o.alignDy = dy
}

func (o *Object) SetLongMode(mode LongMode) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.longMode = mode
}

func (o *Object) SetScrollStep(step int) {
	o.lock.Lock()
	defer o.lock.Unlock()
	if step > 0 {
		o.scrollStep = step
	}
}

func (o *Object) SetScrollSpeed(speed int) {
	o.lock.Lock()
	defer o.lock.Unlock()
	if speed > 0 {
		o.scrollSpeed = speed
	}
}

// advanceScroll moves the scroll offset one step and wraps it around limit.
// Called by the render loop for LONG_SCROLL labels wider than the surface.
func (o *Object) advanceScroll(limit int) int {
	o.lock.Lock()
	defer o.lock.Unlock()
	if limit <= 0 {
		o.scrollOffset = 0
		return 0
	}
	o.scrollOffset = (o.scrollOffset + o.scrollStep) % limit
	return o.scrollOffset
}
