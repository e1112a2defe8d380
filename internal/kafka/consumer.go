package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/yeonjoon13/flight-map/internal/model"
)

// Source reads snapshots published by the ingestor. It starts at the newest
// offset so a restarted map shows current traffic rather than replaying history.
type Source struct {
	r *kafka.Reader
}

// NewSource returns a Source reading topic. With an empty groupID it reads
// partition 0 directly. kafka-go only honours StartOffset for group readers,
// so a group-less reader is positioned explicitly.
func NewSource(broker, topic, groupID string) (*Source, error) {
	cfg := kafka.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
		StartOffset: kafka.LastOffset,
	}
	r := kafka.NewReader(cfg)
	if groupID == "" {
		if err := r.SetOffset(kafka.LastOffset); err != nil {
			r.Close()
			return nil, fmt.Errorf("kafka: seek %s to last offset: %w", topic, err)
		}
	}
	return &Source{r: r}, nil
}

// Fetch blocks until the next snapshot arrives or ctx is done.
func (s *Source) Fetch(ctx context.Context) ([]model.AircraftRecord, error) {
	m, err := s.r.ReadMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("kafka: read snapshot: %w", err)
	}
	return decodeMessage(m)
}

// Close closes the underlying reader.
func (s *Source) Close() error {
	return s.r.Close()
}

func decodeMessage(m kafka.Message) ([]model.AircraftRecord, error) {
	snap, err := model.DecodeSnapshot(m.Value)
	if err != nil {
		return nil, fmt.Errorf("kafka: offset %d: %w", m.Offset, err)
	}
	return snap.Aircraft, nil
}
