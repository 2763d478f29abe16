package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/despondency/notification-sync/internal/badge"
	"github.com/despondency/notification-sync/internal/eventbus"
	"github.com/despondency/notification-sync/internal/feed"
	"github.com/despondency/notification-sync/internal/push"
	"github.com/despondency/notification-sync/internal/token"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
)

// Backend is everything the pipeline needs from the REST API.
type Backend interface {
	feed.Backend
	token.Backend
	badge.Backend
}

type Config struct {
	SearchDebounce  time.Duration
	ColdStartWindow time.Duration
}

// Pipeline owns one instance of every component and the bus they share.
type Pipeline struct {
	Bus       *eventbus.Bus
	AppState  *push.AppStateTracker
	Listener  *push.Listener
	Registrar *token.Registrar
	Store     *feed.Store
	Badge     *badge.Counter

	started  *atomic.Bool
	mu       sync.Mutex
	teardown []func()
}

func New(cfg Config, transport push.Transport, backend Backend) *Pipeline {
	bus := eventbus.New()
	appState := push.NewAppStateTracker(push.Active)
	return &Pipeline{
		Bus:       bus,
		AppState:  appState,
		Listener:  push.NewListener(transport, bus, appState, cfg.ColdStartWindow),
		Registrar: token.NewRegistrar(transport, backend),
		Store:     feed.NewStore(backend, cfg.SearchDebounce),
		Badge:     badge.NewCounter(backend),
		started:   atomic.NewBool(false),
	}
}

// Start wires the components in app launch order: push bindings, token
// registration, then the badge and the feed. Later calls are no-ops.
func (p *Pipeline) Start(ctx context.Context) {
	if !p.started.CAS(false, true) {
		return
	}
	p.Listener.Start(ctx)
	p.keep(p.Registrar.Setup(ctx))
	p.keep(p.Badge.Mount(ctx, p.Bus))
	p.keep(p.Store.Mount(p.Bus))

	go func() {
		if err := p.Store.Load(ctx); err != nil {
			log.Warn().Err(err).Msg("initial feed load failed")
		}
	}()
	log.Info().Msg("notification pipeline started")
}

// Stop releases every subscription and stops state updates.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	teardown := p.teardown
	p.teardown = nil
	p.mu.Unlock()

	for i := len(teardown) - 1; i >= 0; i-- {
		teardown[i]()
	}
	p.Listener.Stop()
	p.Store.Close()
	p.Badge.Close()
}

func (p *Pipeline) keep(f func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.teardown = append(p.teardown, f)
}
