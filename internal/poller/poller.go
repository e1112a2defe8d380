package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"github.com/yeonjoon13/flight-map/internal/model"
)

// DefaultInterval is the wall-clock period between cycles.
const DefaultInterval = 1050 * time.Millisecond

// ErrStopped is returned by Refresh once the Handle has been stopped.
var ErrStopped = errors.New("poller: stopped")

// Fetcher retrieves one batch of aircraft records.
type Fetcher interface {
	Fetch(ctx context.Context) ([]model.AircraftRecord, error)
}

// SinkFunc receives every successfully fetched batch.
type SinkFunc func(ctx context.Context, records []model.AircraftRecord) error

// Config holds configuration for the Poller.
type Config struct {
	Interval time.Duration
	// Timeout bounds a single cycle; zero disables it.
	Timeout time.Duration
}

// DefaultConfig returns a Config with the 1050ms interval and a 10s cycle timeout.
func DefaultConfig() Config {
	return Config{Interval: DefaultInterval, Timeout: 10 * time.Second}
}

// Poller runs fetch-then-sink cycles on a fixed interval.
type Poller struct {
	fetcher Fetcher
	sink    SinkFunc
	cfg     Config
	logger  zerolog.Logger

	group singleflight.Group
	cycle atomic.Uint64

	mu          sync.RWMutex
	lastSuccess time.Time
	lastErr     error

	cycles   metric.Int64Counter
	failures metric.Int64Counter
	skipped  metric.Int64Counter
	duration metric.Float64Histogram
}

// New creates a Poller that feeds batches from fetcher into sink.
func New(fetcher Fetcher, sink SinkFunc, cfg Config, logger zerolog.Logger) (*Poller, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	p := &Poller{
		fetcher: fetcher,
		sink:    sink,
		cfg:     cfg,
		logger:  logger.With().Str("component", "poller").Logger(),
	}

	m := meter()
	var err error
	if p.cycles, err = m.Int64Counter("poll.cycles",
		metric.WithDescription("Poll cycles started")); err != nil {
		return nil, fmt.Errorf("creating cycles counter: %w", err)
	}
	if p.failures, err = m.Int64Counter("poll.failures",
		metric.WithDescription("Poll cycles abandoned on error")); err != nil {
		return nil, fmt.Errorf("creating failures counter: %w", err)
	}
	if p.skipped, err = m.Int64Counter("poll.skipped",
		metric.WithDescription("Ticks that found a cycle still in flight")); err != nil {
		return nil, fmt.Errorf("creating skipped counter: %w", err)
	}
	if p.duration, err = m.Float64Histogram("poll.duration",
		metric.WithDescription("Cycle duration"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}
	return p, nil
}

// Status reports the time of the last successful cycle and the last error.
func (p *Poller) Status() (lastSuccess time.Time, lastErr error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSuccess, p.lastErr
}

// Start runs one cycle immediately and then one per interval until the
// returned Handle is stopped or ctx is cancelled.
func (p *Poller) Start(ctx context.Context) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{p: p, ctx: ctx, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		defer h.drain()

		ticker := time.NewTicker(p.cfg.Interval)
		defer ticker.Stop()

		h.trigger()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.trigger()
			}
		}
	}()
	return h
}

// run performs one fetch-then-sink cycle. Errors are logged and returned;
// the previous sink state is left untouched.
func (p *Poller) run(ctx context.Context) error {
	n := p.cycle.Add(1)
	start := time.Now()
	p.cycles.Add(ctx, 1)

	parent := ctx
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	err := p.fetchAndSink(ctx)
	elapsed := time.Since(start)
	p.duration.Record(context.WithoutCancel(ctx), elapsed.Seconds())

	p.mu.Lock()
	p.lastErr = err
	if err == nil {
		p.lastSuccess = time.Now()
	}
	p.mu.Unlock()

	if err != nil && parent.Err() != nil {
		p.logger.Debug().Err(err).Uint64("cycle", n).Msg("Cycle cancelled")
		return err
	}
	if err != nil {
		p.failures.Add(context.WithoutCancel(ctx), 1)
		p.logger.Error().Err(err).
			Uint64("cycle", n).
			Dur("elapsed", elapsed).
			Msg("Error fetching aircraft data")
		return err
	}
	p.logger.Trace().Uint64("cycle", n).Dur("elapsed", elapsed).Msg("Cycle complete")
	return nil
}

func (p *Poller) fetchAndSink(ctx context.Context) error {
	records, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	if err := p.sink(ctx, records); err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	return nil
}
