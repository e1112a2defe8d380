package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/yeonjoon13/flight-map/internal/model"
)

// Publisher writes one snapshot message per batch to a topic.
type Publisher struct {
	w      *kafka.Writer
	key    []byte
	logger zerolog.Logger
}

// NewPublisher creates a Publisher for broker/topic. Messages are keyed by
// source so every snapshot of one feed lands on the same partition in order.
func NewPublisher(broker, topic, source string, logger zerolog.Logger) *Publisher {
	logger = logger.With().Str("component", "kafka-publisher").Str("topic", topic).Logger()
	return &Publisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(broker),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
			ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
				logger.Error().Msgf(msg, args...)
			}),
		},
		key:    []byte(source),
		logger: logger,
	}
}

// Publish adapts the publisher to the poller's sink signature.
func (p *Publisher) Publish(ctx context.Context, records []model.AircraftRecord) error {
	msg, err := encodeSnapshot(p.key, model.NewSnapshot(records))
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publish snapshot: %w", err)
	}
	p.logger.Debug().Int("aircraft", len(records)).Msg("Published snapshot")
	return nil
}

// Close flushes pending writes.
func (p *Publisher) Close() error {
	return p.w.Close()
}

func encodeSnapshot(key []byte, s model.Snapshot) (kafka.Message, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: encode snapshot: %w", err)
	}
	return kafka.Message{
		Key:   key,
		Value: b,
		Time:  time.UnixMilli(s.Now),
	}, nil
}
