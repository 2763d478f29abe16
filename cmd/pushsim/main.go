package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/despondency/notification-sync/internal/messaging"
	"github.com/despondency/notification-sync/internal/push"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
)

// pushsim plays the push provider: it sends envelopes to running clients
// through the Kafka push topic, or to real devices through FCM.
type Config struct {
	Sink                string `env:"SIM_SINK" envDefault:"kafka"`
	BootstrapServers    string `env:"KAFKA_BOOTSTRAP_SERVERS" envDefault:"localhost:9092"`
	PushTopic           string `env:"PUSH_TOPIC" envDefault:"push-envelopes"`
	FirebaseCredentials string `env:"FIREBASE_CREDENTIALS"`
	To                  string `env:"SIM_TO"`
	Kind                string `env:"SIM_KIND" envDefault:"message"`
	NewToken            string `env:"SIM_NEW_TOKEN"`
	Title               string `env:"SIM_TITLE" envDefault:"New notification"`
	Body                string `env:"SIM_BODY"`
	Count               int    `env:"SIM_COUNT" envDefault:"1"`
	Parallelism         int    `env:"SIM_PARALLELISM" envDefault:"8"`
}

type sender interface {
	Send(ctx context.Context, env messaging.Envelope) error
}

func main() {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	ctx := context.Background()

	var (
		s           sender
		closeSender func()
	)
	switch cfg.Sink {
	case "kafka":
		publisher, err := messaging.NewKafkaPublisher(cfg.BootstrapServers, cfg.PushTopic, "pushsim", "1")
		if err != nil {
			log.Panic().Err(err).Msg("cannot create kafka publisher")
		}
		s, closeSender = publisher, func() { publisher.Close(10_000) }
	case "fcm":
		fcmSender, err := messaging.NewFCMSender(ctx, cfg.FirebaseCredentials)
		if err != nil {
			log.Panic().Err(err).Msg("cannot create fcm sender")
		}
		s, closeSender = fcmSender, func() {}
	default:
		log.Panic().Str("sink", cfg.Sink).Msg("unknown sink")
	}
	defer closeSender()

	maxParallelism := make(chan struct{}, max(cfg.Parallelism, 1))
	wg := sync.WaitGroup{}
	failed := atomic.NewInt64(0)

	t := time.Now()
	for i := 0; i < cfg.Count; i++ {
		maxParallelism <- struct{}{}
		wg.Add(1)
		go func(idx int) {
			defer func() {
				<-maxParallelism
				wg.Done()
			}()
			if err := s.Send(ctx, envelope(cfg, idx)); err != nil {
				failed.Inc()
				log.Err(err).Int("idx", idx).Msg("could not send envelope")
			}
		}(i)
	}
	wg.Wait()
	log.Info().
		Int("sent", cfg.Count-int(failed.Load())).
		Int64("failed", failed.Load()).
		Str("took", time.Since(t).String()).
		Msg("push simulation finished")
}

func envelope(cfg Config, idx int) messaging.Envelope {
	kind := messaging.Kind(cfg.Kind)
	if kind == messaging.KindTokenRefresh {
		return messaging.Envelope{Kind: kind, To: cfg.To, Token: cfg.NewToken}
	}
	title := cfg.Title
	if cfg.Count > 1 {
		title = fmt.Sprintf("%s #%d", cfg.Title, idx+1)
	}
	return messaging.Envelope{
		Kind: kind,
		To:   cfg.To,
		Message: &push.Message{
			ID:     uuid.New().String(),
			Title:  title,
			Body:   cfg.Body,
			SentAt: time.Now().UTC(),
		},
	}
}
