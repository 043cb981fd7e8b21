package event

// Internal
type InternalEvent struct {
	Data interface{}
}

type InternalEventIdleTimeoutData struct{}

// Touch
type TouchEventType int

const (
	PRESS_EVENT_TYPE TouchEventType = iota
	RELEASE_EVENT_TYPE
)

type TouchEvent struct {
	TouchEventType TouchEventType
	X              int
	Y              int
	TrackId        int
	Strength       int
}

// Activity, emitted by the touch press debouncer for the idle policy
type ActivityEvent struct {
	Active bool
}

// Command, shared by the api device and the console command handlers
type CommandEvent struct {
	Result chan error
	Data   interface{}
}

type CommandSetEmotionData struct {
	Name string
}

type CommandSetTextData struct {
	Channel string
	Text    string
}

type CommandSystemStateData struct {
	State string
}

type CommandSendEventData struct {
	Event   string
	Message string
}

type CommandSetBacklightData struct {
	Percent int64
}

// Network bus topic and event ids
const NetworkTopic = "network"

const (
	NetworkEventQRDisplay = iota
	NetworkEventStaConnected
	NetworkEventStaDisconnected
)
