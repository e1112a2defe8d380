package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/segmentio/kafka-go"
)

type TopicConfig struct {
	Topic             string
	NumPartitions     int
	ReplicationFactor int
}

// CreateTopics ensures each topic exists with the given config. Topics that
// already exist are left alone.
func CreateTopics(ctx context.Context, broker string, configs []TopicConfig) error {
	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		return fmt.Errorf("kafka: dial %s: %w", broker, err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("kafka: find controller: %w", err)
	}
	hostPort := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	ctrlConn, err := kafka.DialContext(ctx, "tcp", hostPort)
	if err != nil {
		return fmt.Errorf("kafka: dial controller %s: %w", hostPort, err)
	}
	defer ctrlConn.Close()

	for _, cfg := range configs {
		err = ctrlConn.CreateTopics(topicConfig(cfg))
		if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
			return fmt.Errorf("kafka: create topic %s: %w", cfg.Topic, err)
		}
	}
	return nil
}

func topicConfig(cfg TopicConfig) kafka.TopicConfig {
	if cfg.NumPartitions <= 0 {
		cfg.NumPartitions = 1
	}
	if cfg.ReplicationFactor <= 0 {
		cfg.ReplicationFactor = 1
	}
	return kafka.TopicConfig{
		Topic:             cfg.Topic,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}
}
