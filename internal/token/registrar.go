package token

import (
	"context"
	"fmt"
	"sync"

	"github.com/despondency/notification-sync/internal/metrics"
	"github.com/despondency/notification-sync/internal/push"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
)

//go:generate mockgen -source=registrar.go -destination=tokenmocks/backend.go -package=tokenmocks

type Backend interface {
	RegisterToken(ctx context.Context, token string) error
}

var (
	ErrTokenRegistrationFailed = fmt.Errorf("push token registration failed")
	ErrPermissionDenied        = fmt.Errorf("push permission denied")
	ErrNoToken                 = fmt.Errorf("push token unavailable")
)

const (
	triggerStartup = "startup"
	triggerRefresh = "refresh"
)

// Registrar keeps the backend's push token for this device current.
// Nothing it does is retried and none of its failures reach the caller.
type Registrar struct {
	transport push.Transport
	backend   Backend

	registerMu sync.Mutex
	rotation   *atomic.Uint64
}

func NewRegistrar(transport push.Transport, backend Backend) *Registrar {
	return &Registrar{transport: transport, backend: backend, rotation: atomic.NewUint64(0)}
}

// RequestPermission asks the user for permission to show notifications.
func (r *Registrar) RequestPermission(ctx context.Context) push.AuthorizationStatus {
	status, err := r.transport.RequestPermission(ctx)
	if err != nil {
		log.Err(err).Msg("error while requesting push permission")
		return push.NotDetermined
	}
	switch {
	case status.Granted():
		log.Info().Str("status", status.String()).Msg("push permission granted")
	case status == push.Denied:
		log.Warn().Err(ErrPermissionDenied).Msg("user declined push notifications")
	default:
		log.Info().Str("status", status.String()).Msg("push permission not determined")
	}
	return status
}

// ObtainAndRegister reads the current device token and sends it to the backend.
func (r *Registrar) ObtainAndRegister(ctx context.Context) {
	token, err := r.transport.Token(ctx)
	if err != nil {
		log.Err(fmt.Errorf("%w: %w", ErrNoToken, err)).Msg("could not obtain push token")
		metrics.TokenRegistrations.WithLabelValues(triggerStartup, "no_token").Inc()
		return
	}
	if token == "" {
		log.Warn().Err(ErrNoToken).Msg("transport returned no push token")
		metrics.TokenRegistrations.WithLabelValues(triggerStartup, "no_token").Inc()
		return
	}
	r.register(ctx, token, triggerStartup)
}

// OnRefresh registers every rotated token until the returned func is called.
// Registration runs off the transport's delivery goroutine. A token rotated
// again before its registration started is skipped.
func (r *Registrar) OnRefresh() func() {
	unsub, err := r.transport.OnTokenRefresh(func(token string) {
		if token == "" {
			log.Debug().Msg("ignoring empty rotated push token")
			return
		}
		go r.registerRotated(r.rotation.Inc(), token)
	})
	if err != nil {
		log.Err(err).Msg("could not subscribe to push token rotation")
		return func() {}
	}
	if unsub == nil {
		return func() {}
	}
	return func() { unsub() }
}

// Setup runs the startup flow: permission, registration of the current
// token, then the rotation subscription. It returns the teardown.
func (r *Registrar) Setup(ctx context.Context) func() {
	r.RequestPermission(ctx)
	r.ObtainAndRegister(ctx)
	return r.OnRefresh()
}

func (r *Registrar) registerRotated(seq uint64, token string) {
	r.registerMu.Lock()
	defer r.registerMu.Unlock()
	if seq != r.rotation.Load() {
		log.Debug().Msg("skipping superseded push token")
		metrics.TokenRegistrations.WithLabelValues(triggerRefresh, "superseded").Inc()
		return
	}
	r.register(context.Background(), token, triggerRefresh)
}

func (r *Registrar) register(ctx context.Context, token, trigger string) {
	if err := r.backend.RegisterToken(ctx, token); err != nil {
		log.Err(fmt.Errorf("%w: %w", ErrTokenRegistrationFailed, err)).Str("trigger", trigger).Msg("error while registering push token")
		metrics.TokenRegistrations.WithLabelValues(trigger, "error").Inc()
		return
	}
	log.Info().Str("trigger", trigger).Msg("push token registered")
	metrics.TokenRegistrations.WithLabelValues(trigger, "ok").Inc()
}
