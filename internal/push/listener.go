package push

import (
	"context"
	"sync"
	"time"

	"github.com/despondency/notification-sync/internal/eventbus"
	"github.com/despondency/notification-sync/internal/metrics"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
)

const DefaultColdStartWindow = 5 * time.Second

const (
	triggerForeground = "foreground"
	triggerOpened     = "opened"
	triggerColdStart  = "cold_start"
)

// Listener bridges transport lifecycle callbacks to event bus signals.
// One instance is owned by the top-level app composition.
type Listener struct {
	transport       Transport
	bus             *eventbus.Bus
	visibility      Visibility
	coldStartWindow time.Duration
	started         *atomic.Bool

	mu     sync.Mutex
	unsubs []Unsubscribe
}

func NewListener(transport Transport, bus *eventbus.Bus, visibility Visibility, coldStartWindow time.Duration) *Listener {
	if coldStartWindow <= 0 {
		coldStartWindow = DefaultColdStartWindow
	}
	return &Listener{
		transport:       transport,
		bus:             bus,
		visibility:      visibility,
		coldStartWindow: coldStartWindow,
		started:         atomic.NewBool(false),
	}
}

func (l *Listener) Started() bool {
	return l.started.Load()
}

// Start registers the transport bindings. Only the first call on an
// instance does anything; binding failures are logged individually.
func (l *Listener) Start(ctx context.Context) {
	if !l.started.CAS(false, true) {
		log.Debug().Msg("push listener already started")
		return
	}

	if unsub, err := l.transport.OnForegroundMessage(l.onForeground); err != nil {
		log.Err(err).Msg("could not register foreground message handler")
	} else {
		l.keep(unsub)
	}

	if unsub, err := l.transport.OnNotificationOpened(l.onOpened); err != nil {
		log.Err(err).Msg("could not register notification opened handler")
	} else {
		l.keep(unsub)
	}

	msg, err := l.transport.InitialNotification(ctx)
	if err != nil {
		log.Err(err).Msg("could not read initial notification")
	} else if msg != nil {
		log.Info().Str("message_id", msg.ID).Msg("app launched from notification")
		l.bus.EmitLatched(eventbus.RefreshAll, *msg, l.coldStartWindow)
		l.bus.EmitLatched(eventbus.BadgePoke, *msg, l.coldStartWindow)
		l.count(triggerColdStart)
	}

	// no UI exists in headless mode, but the transport requires a handler
	if err := l.transport.SetBackgroundMessageHandler(func(Message) {}); err != nil {
		log.Err(err).Msg("could not register background message handler")
	}
	log.Info().Msg("push listener started")
}

// Stop releases the transport subscriptions. The listener stays started.
func (l *Listener) Stop() {
	l.mu.Lock()
	unsubs := l.unsubs
	l.unsubs = nil
	l.mu.Unlock()
	for _, u := range unsubs {
		u()
	}
}

func (l *Listener) onForeground(msg Message) {
	if l.visibility.State() != Active {
		log.Debug().Str("message_id", msg.ID).Msg("app not active, skipping refresh signals")
		metrics.PushSuppressed.Inc()
		return
	}
	l.fire(msg, triggerForeground)
}

func (l *Listener) onOpened(msg Message) {
	l.fire(msg, triggerOpened)
}

func (l *Listener) fire(msg Message, trigger string) {
	l.bus.Emit(eventbus.RefreshAll, msg)
	l.bus.Emit(eventbus.BadgePoke, msg)
	l.count(trigger)
}

func (l *Listener) count(trigger string) {
	metrics.SignalsEmitted.WithLabelValues(string(eventbus.RefreshAll), trigger).Inc()
	metrics.SignalsEmitted.WithLabelValues(string(eventbus.BadgePoke), trigger).Inc()
}

func (l *Listener) keep(u Unsubscribe) {
	if u == nil {
		return
	}
	l.mu.Lock()
	l.unsubs = append(l.unsubs, u)
	l.mu.Unlock()
}
