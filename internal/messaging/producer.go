package messaging

import (
	"context"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/rs/zerolog/log"
)

// Publisher writes push envelopes to the push topic.
type Publisher struct {
	producer *kafka.Producer
	topic    string
	receiver chan kafka.Event
}

func NewKafkaPublisher(bootstrapServers, topic, clientID, acks string) (*Publisher, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": bootstrapServers,
		"client.id":         clientID,
		"acks":              acks,
	})
	if err != nil {
		return nil, err
	}
	p := &Publisher{
		producer: producer,
		topic:    topic,
		receiver: make(chan kafka.Event, 1000),
	}
	p.deliveredAsync()
	return p, nil
}

// Send enqueues env keyed by its recipient so one device's envelopes stay ordered.
func (p *Publisher) Send(_ context.Context, env Envelope) error {
	payload, err := env.Encode()
	if err != nil {
		return err
	}
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Value:          payload,
	}
	if env.To != "" {
		msg.Key = []byte(env.To)
	}
	if err := p.producer.Produce(msg, p.receiver); err != nil {
		return fmt.Errorf("producing %s envelope: %w", env.Kind, err)
	}
	return nil
}

// Close waits up to timeoutMs for outstanding deliveries.
func (p *Publisher) Close(timeoutMs int) {
	if left := p.producer.Flush(timeoutMs); left > 0 {
		log.Warn().Int("undelivered", left).Msg("push envelopes still queued at shutdown")
	}
	p.producer.Close()
	close(p.receiver)
}

func (p *Publisher) deliveredAsync() {
	go func() {
		for e := range p.receiver {
			m, ok := e.(*kafka.Message)
			if !ok {
				continue
			}
			if m.TopicPartition.Error != nil {
				log.Err(m.TopicPartition.Error).Msg("delivery failed")
			} else {
				log.Info().Str("topic", *m.TopicPartition.Topic).
					Int32("partition", m.TopicPartition.Partition).
					Str("offset", m.TopicPartition.Offset.String()).
					Msg("delivered push envelope")
			}
		}
	}()
}
