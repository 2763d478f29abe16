package eventbus

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Topic string

const (
	// RefreshAll asks every screen holding server data to refetch.
	RefreshAll Topic = "refresh:all"
	// BadgePoke asks the unread badge to re-pull its count.
	BadgePoke Topic = "badge:poke"
)

type Handler func(payload interface{})

type registration struct {
	id      uint64
	handler Handler
}

type latched struct {
	payload  interface{}
	deadline time.Time
}

// Bus is a synchronous publish/subscribe channel. Handlers run on the
// emitting goroutine, in registration order, before Emit returns.
type Bus struct {
	mu      sync.Mutex
	nextID  uint64
	subs    map[Topic][]registration
	latches map[Topic]latched
	now     func() time.Time
}

func New() *Bus {
	return &Bus{
		subs:    make(map[Topic][]registration),
		latches: make(map[Topic]latched),
		now:     time.Now,
	}
}

// WithClock replaces the clock used for latch deadlines.
func (b *Bus) WithClock(now func() time.Time) *Bus {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
	return b
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	bus   *Bus
	topic Topic
	id    uint64
	once  sync.Once
}

// Unsubscribe removes exactly this registration. Calling it again is a no-op.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.remove(s.topic, s.id)
	})
}

func (b *Bus) Subscribe(topic Topic, handler Handler) *Subscription {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], registration{id: id, handler: handler})

	var (
		replay  bool
		payload interface{}
	)
	if l, ok := b.latches[topic]; ok {
		if b.now().Before(l.deadline) {
			replay = true
			payload = l.payload
		}
		delete(b.latches, topic)
	}
	b.mu.Unlock()

	if replay {
		log.Debug().Str("topic", string(topic)).Msg("delivering latched signal to late subscriber")
		invoke(topic, handler, payload)
	}
	return &Subscription{bus: b, topic: topic, id: id}
}

// Emit notifies the handlers registered on topic at call time. Handlers
// added while dispatching are not invoked for this call.
func (b *Bus) Emit(topic Topic, payload interface{}) {
	b.mu.Lock()
	delete(b.latches, topic)
	snapshot := make([]registration, len(b.subs[topic]))
	copy(snapshot, b.subs[topic])
	b.mu.Unlock()

	for _, r := range snapshot {
		invoke(topic, r.handler, payload)
	}
}

// EmitLatched behaves like Emit when topic has subscribers. Otherwise the
// signal is retained for window and replayed once, to the first subscriber
// that registers before it expires. A later Emit on topic discards it.
func (b *Bus) EmitLatched(topic Topic, payload interface{}, window time.Duration) {
	b.mu.Lock()
	if len(b.subs[topic]) == 0 {
		b.latches[topic] = latched{payload: payload, deadline: b.now().Add(window)}
		b.mu.Unlock()
		log.Info().Str("topic", string(topic)).Msg(fmt.Sprintf("no subscribers yet, latching signal for %s", window))
		return
	}
	b.mu.Unlock()
	b.Emit(topic, payload)
}

func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}

func (b *Bus) remove(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	regs := b.subs[topic]
	for i, r := range regs {
		if r.id == id {
			next := make([]registration, 0, len(regs)-1)
			next = append(next, regs[:i]...)
			next = append(next, regs[i+1:]...)
			if len(next) == 0 {
				delete(b.subs, topic)
			} else {
				b.subs[topic] = next
			}
			return
		}
	}
}

func invoke(topic Topic, h Handler, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("topic", string(topic)).Msg(fmt.Sprintf("event handler panicked: %v", r))
		}
	}()
	h(payload)
}
