package messaging

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/despondency/notification-sync/internal/metrics"
	"github.com/despondency/notification-sync/internal/push"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
)

// Consumer is the part of *kafka.Consumer the transport polls.
type Consumer interface {
	Poll(timeoutMs int) kafka.Event
	Close() error
}

// NewKafkaConsumer connects to the push topic, retrying the subscription
// with exponential backoff.
func NewKafkaConsumer(bootstrapServers, groupID, topic string) (*kafka.Consumer, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  bootstrapServers,
		"group.id":           groupID,
		"auto.offset.reset":  "latest",
		"enable.auto.commit": "true",
	})
	if err != nil {
		return nil, err
	}
	err = backoff.Retry(func() error {
		return consumer.Subscribe(topic, nil)
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 10))
	if err != nil {
		_ = consumer.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	return consumer, nil
}

type TransportOption func(*Transport)

// WithPermission sets the status RequestPermission answers with.
func WithPermission(status push.AuthorizationStatus) TransportOption {
	return func(t *Transport) {
		t.permission = status
	}
}

// WithLaunchMessage marks the process as launched by tapping msg.
func WithLaunchMessage(msg push.Message) TransportOption {
	return func(t *Transport) {
		t.launch = &msg
	}
}

// Transport delivers push envelopes from a Kafka topic to the pipeline.
// It implements push.Transport for headless clients.
type Transport struct {
	permission push.AuthorizationStatus
	stopped    *atomic.Bool

	mu         sync.Mutex
	token      string
	launch     *push.Message
	nextID     int
	foreground map[int]func(push.Message)
	opened     map[int]func(push.Message)
	refresh    map[int]func(string)
	background func(push.Message)
}

// NewTransport creates a transport for deviceToken. An empty token gets a
// random install id.
func NewTransport(deviceToken string, opts ...TransportOption) *Transport {
	if deviceToken == "" {
		deviceToken = uuid.New().String()
	}
	t := &Transport{
		permission: push.Authorized,
		stopped:    atomic.NewBool(false),
		token:      deviceToken,
		foreground: map[int]func(push.Message){},
		opened:     map[int]func(push.Message){},
		refresh:    map[int]func(string){},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transport) RequestPermission(context.Context) (push.AuthorizationStatus, error) {
	return t.permission, nil
}

func (t *Transport) Token(context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token, nil
}

func (t *Transport) OnTokenRefresh(handler func(token string)) (push.Unsubscribe, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.register()
	t.refresh[id] = handler
	return t.remover(func() { delete(t.refresh, id) }), nil
}

func (t *Transport) OnForegroundMessage(handler func(msg push.Message)) (push.Unsubscribe, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.register()
	t.foreground[id] = handler
	return t.remover(func() { delete(t.foreground, id) }), nil
}

func (t *Transport) OnNotificationOpened(handler func(msg push.Message)) (push.Unsubscribe, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.register()
	t.opened[id] = handler
	return t.remover(func() { delete(t.opened, id) }), nil
}

// InitialNotification returns the launch message once.
func (t *Transport) InitialNotification(context.Context) (*push.Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	msg := t.launch
	t.launch = nil
	return msg, nil
}

func (t *Transport) SetBackgroundMessageHandler(handler func(msg push.Message)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.background = handler
	return nil
}

// Deliver decodes one raw envelope and hands it to the registered handlers.
func (t *Transport) Deliver(value []byte) error {
	env, err := DecodeEnvelope(value)
	if err != nil {
		metrics.PushEnvelopes.WithLabelValues("invalid").Inc()
		return err
	}

	t.mu.Lock()
	if env.To != "" && env.To != t.token {
		t.mu.Unlock()
		metrics.PushEnvelopes.WithLabelValues("foreign").Inc()
		return nil
	}
	var (
		msgHandlers     []func(push.Message)
		refreshHandlers []func(string)
	)
	switch env.Kind {
	case KindMessage:
		msgHandlers = values(t.foreground)
	case KindOpened:
		msgHandlers = values(t.opened)
	case KindBackground:
		if t.background != nil {
			msgHandlers = []func(push.Message){t.background}
		}
	case KindTokenRefresh:
		if env.Token == "" {
			t.mu.Unlock()
			return fmt.Errorf("token refresh without token")
		}
		t.token = env.Token
		refreshHandlers = values(t.refresh)
	}
	t.mu.Unlock()

	metrics.PushEnvelopes.WithLabelValues(string(env.Kind)).Inc()
	for _, h := range msgHandlers {
		h(*env.Message)
	}
	for _, h := range refreshHandlers {
		h(env.Token)
	}
	return nil
}

// Consume polls consumer until ctx is done or Stop is called, then closes it.
func (t *Transport) Consume(ctx context.Context, consumer Consumer) error {
	defer func() {
		if err := consumer.Close(); err != nil {
			log.Err(err).Msg("could not close push consumer")
		}
	}()
	for !t.stopped.Load() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		switch e := consumer.Poll(100).(type) {
		case *kafka.Message:
			if err := t.Deliver(e.Value); err != nil {
				log.Err(err).Msg("cannot consume push envelope")
			}
		case kafka.Error:
			log.Err(e).Msg("kafka produced an error in push transport")
			if e.IsFatal() {
				return e
			}
		default:
		}
	}
	return nil
}

func (t *Transport) Stop() {
	t.stopped.Store(true)
}

func (t *Transport) register() int {
	t.nextID++
	return t.nextID
}

func (t *Transport) remover(remove func()) push.Unsubscribe {
	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			remove()
		})
	}
}

func values[T any](m map[int]T) []T {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}
