package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/yeonjoon13/flight-map/internal/adsblol"
	"github.com/yeonjoon13/flight-map/internal/config"
	"github.com/yeonjoon13/flight-map/internal/hub"
	"github.com/yeonjoon13/flight-map/internal/kafka"
	"github.com/yeonjoon13/flight-map/internal/logging"
	"github.com/yeonjoon13/flight-map/internal/markers"
	"github.com/yeonjoon13/flight-map/internal/poller"
	"github.com/yeonjoon13/flight-map/internal/viewport"
	"github.com/yeonjoon13/flight-map/internal/web"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (optional)")
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

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("Exiting")
		closeLog()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	opts := viewport.DefaultOptions()
	opts.Target = cfg.Viewport.Target
	opts.Center = cfg.Viewport.Center
	opts.Zoom = cfg.Viewport.Zoom
	opts.Tile = cfg.Viewport.TileSource()
	vp, err := viewport.New(opts)
	if err != nil {
		return fmt.Errorf("initializing viewport: %w", err)
	}

	syncer, err := markers.NewSynchronizer(vp, markers.Options{
		Color: cfg.Marker.Color,
		Scale: cfg.Marker.Scale,
	}, logger)
	if err != nil {
		return err
	}

	stream := hub.New(func(l *viewport.MarkerLayer) ([]byte, error) {
		return markers.MarshalLayer(l, syncer.Styler())
	}, logger)
	syncer.Subscribe(stream)
	defer stream.Close()

	fetcher, closeFetcher, err := newFetcher(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFetcher()

	p, err := poller.New(fetcher, syncer.Apply, poller.Config{
		Interval: cfg.Poll.Interval,
		Timeout:  cfg.Poll.Timeout,
	}, logger)
	if err != nil {
		return err
	}
	handle := p.Start(ctx)
	defer handle.Stop()

	srv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: web.NewRouter(web.Deps{
			Viewport:  vp,
			Markers:   syncer,
			Refresher: handle,
			Status:    p,
			Stream:    stream,
		}, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.HTTP.Addr).
			Str("source", cfg.Source.Kind).
			Dur("interval", cfg.Poll.Interval).
			Msg("Flight map listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	handle.Stop()
	stream.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newFetcher(cfg config.Config, logger zerolog.Logger) (poller.Fetcher, func(), error) {
	if cfg.Source.Kind == "kafka" {
		src, err := kafka.NewSource(cfg.Kafka.Broker, cfg.Kafka.Topic, cfg.Kafka.Group)
		if err != nil {
			return nil, nil, err
		}
		return src, func() {
			if err := src.Close(); err != nil {
				logger.Warn().Err(err).Msg("Closing kafka source")
			}
		}, nil
	}
	return adsblol.NewClient(cfg.Source.URL, nil), func() {}, nil
}
