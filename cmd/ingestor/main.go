package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/yeonjoon13/flight-map/internal/adsblol"
	"github.com/yeonjoon13/flight-map/internal/config"
	"github.com/yeonjoon13/flight-map/internal/kafka"
	"github.com/yeonjoon13/flight-map/internal/logging"
	"github.com/yeonjoon13/flight-map/internal/poller"
)

// The ingestor polls adsb.lol and publishes each batch to Kafka so any number
// of map servers can run with source.kind=kafka.
func main() {
	configPath := flag.String("config", "", "Path to config file (optional)")
	partitions := flag.Int("partitions", 1, "Partitions when creating the topic")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, closeLog, err := logging.Setup(logging.Options{Level: cfg.Log.Level, Graylog: cfg.Log.Graylog})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *partitions, logger); err != nil {
		logger.Error().Err(err).Msg("Exiting")
		closeLog()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, partitions int, logger zerolog.Logger) error {
	setupCtx, setupCancel := context.WithTimeout(ctx, 10*time.Second)
	err := kafka.CreateTopics(setupCtx, cfg.Kafka.Broker, []kafka.TopicConfig{
		{Topic: cfg.Kafka.Topic, NumPartitions: partitions, ReplicationFactor: 1},
	})
	setupCancel()
	if err != nil {
		return fmt.Errorf("creating topics: %w", err)
	}

	pub := kafka.NewPublisher(cfg.Kafka.Broker, cfg.Kafka.Topic, "adsblol", logger)
	defer func() {
		if err := pub.Close(); err != nil {
			logger.Warn().Err(err).Msg("Closing publisher")
		}
	}()

	p, err := poller.New(adsblol.NewClient(cfg.Source.URL, nil), pub.Publish, poller.Config{
		Interval: cfg.Poll.Interval,
		Timeout:  cfg.Poll.Timeout,
	}, logger)
	if err != nil {
		return err
	}

	logger.Info().
		Str("broker", cfg.Kafka.Broker).
		Str("topic", cfg.Kafka.Topic).
		Dur("interval", cfg.Poll.Interval).
		Msg("Starting ingestor")

	handle := p.Start(ctx)
	<-handle.Done()
	logger.Info().Msg("Shutting down ingestor")
	return nil
}
