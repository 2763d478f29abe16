package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/despondency/notification-sync/internal/api"
	"github.com/despondency/notification-sync/internal/backend"
	"github.com/despondency/notification-sync/internal/messaging"
	"github.com/despondency/notification-sync/internal/metrics"
	"github.com/despondency/notification-sync/internal/pipeline"
	"github.com/despondency/notification-sync/internal/push"
	"github.com/despondency/notification-sync/internal/session"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	BackendConfig
	KafkaConfig
	SessionConfig
	ControlPort     int           `env:"CONTROL_PORT" envDefault:"8091"`
	SearchDebounce  time.Duration `env:"SEARCH_DEBOUNCE" envDefault:"250ms"`
	ColdStartWindow time.Duration `env:"COLD_START_WINDOW" envDefault:"5s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
}

type BackendConfig struct {
	BackendURL     string        `env:"BACKEND_URL,required"`
	BackendPrefix  string        `env:"BACKEND_PATH_PREFIX" envDefault:"/notifications"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"20s"`
}

type KafkaConfig struct {
	BootstrapServers     string `env:"KAFKA_BOOTSTRAP_SERVERS,required"`
	PushTopic            string `env:"PUSH_TOPIC" envDefault:"push-envelopes"`
	PushGroupID          string `env:"PUSH_GROUP_ID"`
	DeviceToken          string `env:"DEVICE_TOKEN"`
	LaunchNotificationID string `env:"LAUNCH_NOTIFICATION_ID"`
}

type SessionConfig struct {
	KeyringService string `env:"KEYRING_SERVICE" envDefault:"notification-sync"`
	KeyringFileDir string `env:"KEYRING_FILE_DIR" envDefault:"~/.config/notification-sync/credentials"`
	SessionToken   string `env:"SESSION_TOKEN"`
	UserID         string `env:"USER_ID"`
}

type sessionStore interface {
	backend.SessionProvider
	ClearToken()
}

func main() {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	metrics.Init()

	sess := openSession(cfg.SessionConfig)

	client, err := backend.NewClient(backend.Config{
		BaseURL:       cfg.BackendURL,
		PathPrefix:    cfg.BackendPrefix,
		Timeout:       cfg.RequestTimeout,
		OnAuthFailure: sess.ClearToken,
	}, sess)
	if err != nil {
		log.Panic().Err(err).Msg("cannot create backend client")
	}

	var opts []messaging.TransportOption
	if cfg.LaunchNotificationID != "" {
		opts = append(opts, messaging.WithLaunchMessage(push.Message{ID: cfg.LaunchNotificationID}))
	}
	transport := messaging.NewTransport(cfg.DeviceToken, opts...)
	groupID := cfg.PushGroupID
	if groupID == "" {
		// every device needs its own group to see every envelope
		deviceToken, _ := transport.Token(context.Background())
		groupID = "notification-sync-" + deviceToken
	}
	consumer, err := messaging.NewKafkaConsumer(cfg.BootstrapServers, groupID, cfg.PushTopic)
	if err != nil {
		log.Panic().Err(err).Msg("cannot create kafka push consumer")
	}

	p := pipeline.New(pipeline.Config{
		SearchDebounce:  cfg.SearchDebounce,
		ColdStartWindow: cfg.ColdStartWindow,
	}, transport, client)

	router := httprouter.New()
	api.NewEndpoint(p.Store, p.Badge, p.AppState, cfg.RequestTimeout).Register(router)
	srv := http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ControlPort),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p.Start(ctx)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return transport.Consume(ctx, consumer)
	})
	eg.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("control server: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Err(err).Msg("control server shutdown")
		}
		transport.Stop()
		return nil
	})
	log.Info().Msg(fmt.Sprintf("notification sync started, control surface at port %d", cfg.ControlPort))

	if err := eg.Wait(); err != nil {
		log.Err(err).Msg("notification sync stopped with error")
	}
	p.Stop()
	log.Info().Msg("notification sync stopped")
}

// openSession prefers an explicit session from the environment and falls
// back to the OS keyring.
func openSession(cfg SessionConfig) sessionStore {
	if cfg.SessionToken != "" || cfg.UserID != "" {
		return session.NewStatic(cfg.SessionToken, cfg.UserID)
	}
	ring, err := session.OpenKeyring(cfg.KeyringService, cfg.KeyringFileDir)
	if err != nil {
		log.Panic().Err(err).Msg("cannot open session keyring")
	}
	return ring
}
