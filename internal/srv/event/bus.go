package event

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Handler receives a posted event. Handlers registered on the same topic are
// invoked one at a time, in subscription order. A handler may unsubscribe
// itself; the unsubscription takes effect for subsequent events.
type Handler func(topic string, eventId int, payload interface{})

type Subscription struct {
	topic   string
	eventId int
	seq     int64
}

type subscriber struct {
	sub     *Subscription
	handler Handler
}

type posted struct {
	eventId int
	payload interface{}
}

type topicDispatcher struct {
	queue chan posted
	done  chan bool
}

// Bus is a small in-process topic/event bus. Delivery is serialized per
// topic: a dedicated goroutine per topic drains the queue and runs the
// handlers registered at dispatch time.
type Bus struct {
	lock        sync.Mutex
	seq         int64
	subscribers map[string][]subscriber
	dispatchers map[string]*topicDispatcher
	posters     sync.WaitGroup
	closed      bool
}

func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string][]subscriber),
		dispatchers: make(map[string]*topicDispatcher),
	}
}

func (b *Bus) Subscribe(topic string, eventId int, handler Handler) *Subscription {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.seq++
	sub := &Subscription{topic: topic, eventId: eventId, seq: b.seq}
	b.subscribers[topic] = append(b.subscribers[topic], subscriber{sub: sub, handler: handler})
	return sub
}

func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	subs := b.subscribers[sub.topic]
	for i, s := range subs {
		if s.sub == sub {
			b.subscribers[sub.topic] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Post queues the event for delivery and returns without waiting for the
// handlers to run. Posts that begin before Close are delivered; posts after
// are discarded.
func (b *Bus) Post(topic string, eventId int, payload interface{}) {
	b.lock.Lock()
	if b.closed {
		b.lock.Unlock()
		logrus.Debugf("Discard event %s/%d posted on closed bus", topic, eventId)
		return
	}
	b.posters.Add(1)
	dispatcher := b.dispatchers[topic]
	if dispatcher == nil {
		dispatcher = &topicDispatcher{
			queue: make(chan posted, 16),
			done:  make(chan bool),
		}
		b.dispatchers[topic] = dispatcher
		go b.dispatchLoop(topic, dispatcher)
	}
	b.lock.Unlock()

	dispatcher.queue <- posted{eventId: eventId, payload: payload}
	b.posters.Done()
}

func (b *Bus) dispatchLoop(topic string, dispatcher *topicDispatcher) {
	for p := range dispatcher.queue {
		b.lock.Lock()
		var handlers []Handler
		for _, s := range b.subscribers[topic] {
			if s.sub.eventId == p.eventId {
				handlers = append(handlers, s.handler)
			}
		}
		b.lock.Unlock()

		for _, handler := range handlers {
			handler(topic, p.eventId, p.payload)
		}
	}
	dispatcher.done <- true
}

// Close drains the per-topic queues and stops the dispatch goroutines.
// Events posted after Close are discarded.
func (b *Bus) Close() {
	b.lock.Lock()
	if b.closed {
		b.lock.Unlock()
		return
	}
	b.closed = true
	dispatchers := make([]*topicDispatcher, 0, len(b.dispatchers))
	for _, dispatcher := range b.dispatchers {
		dispatchers = append(dispatchers, dispatcher)
	}
	b.lock.Unlock()

	// The dispatchers keep draining while the in-flight posters finish, so
	// waiting here cannot stall. A queue is only closed once no poster can
	// still be sending on it.
	b.posters.Wait()

	for _, dispatcher := range dispatchers {
		close(dispatcher.queue)
		<-dispatcher.done
	}
}
