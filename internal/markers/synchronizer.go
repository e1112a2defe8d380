package markers

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"

	"github.com/yeonjoon13/flight-map/internal/geo"
	"github.com/yeonjoon13/flight-map/internal/model"
	"github.com/yeonjoon13/flight-map/internal/viewport"
)

// Listener is told about every installed layer.
type Listener interface {
	LayerInstalled(revision uint64, layer *viewport.MarkerLayer)
}

// Result summarizes one Sync.
type Result struct {
	Revision  uint64
	Installed int
	Dropped   int
}

// Synchronizer turns record batches into the Viewport's marker layer. It owns
// exactly one marker layer at a time and replaces it on every Sync.
type Synchronizer struct {
	vp     *viewport.Viewport
	styler *Styler
	icon   string
	logger zerolog.Logger

	mu        sync.Mutex
	owned     *viewport.MarkerLayer
	listeners []Listener

	dropped metric.Int64Counter
	live    metric.Int64ObservableGauge
}

// NewSynchronizer creates a Synchronizer drawing on vp.
func NewSynchronizer(vp *viewport.Viewport, opts Options, logger zerolog.Logger) (*Synchronizer, error) {
	opts = opts.withDefaults()
	s := &Synchronizer{
		vp:     vp,
		styler: NewStyler(opts),
		icon:   opts.Icon,
		logger: logger.With().Str("component", "markers").Logger(),
	}

	m := meter()
	var err error
	s.dropped, err = m.Int64Counter(
		"markers.dropped",
		metric.WithDescription("Records dropped for missing or invalid coordinates"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}
	s.live, err = m.Int64ObservableGauge(
		"markers.live",
		metric.WithDescription("Markers in the installed layer"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			s.mu.Lock()
			owned := s.owned
			s.mu.Unlock()
			if owned != nil {
				o.Observe(int64(owned.Len()))
			}
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("creating live gauge: %w", err)
	}
	return s, nil
}

// Subscribe registers l for future installs.
func (s *Synchronizer) Subscribe(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Styler returns the style function used for this synchronizer's markers.
func (s *Synchronizer) Styler() *Styler {
	return s.styler
}

// Current returns the installed layer, or nil before the first Sync.
func (s *Synchronizer) Current() *viewport.MarkerLayer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owned
}

// CurrentFeatures copies the installed layer's features. The copy is taken
// under the same lock Sync installs under, so it never observes a layer that
// a concurrent Sync has already cleared.
func (s *Synchronizer) CurrentFeatures() []viewport.MarkerFeature {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owned == nil {
		return nil
	}
	return s.owned.Features()
}

// Apply adapts Sync to the poller's sink signature.
func (s *Synchronizer) Apply(ctx context.Context, records []model.AircraftRecord) error {
	s.Sync(ctx, records)
	return nil
}

// Sync replaces the Viewport's markers with one built from records. Records
// without a usable position are dropped. An empty batch installs an empty layer.
func (s *Synchronizer) Sync(ctx context.Context, records []model.AircraftRecord) Result {
	features := make([]viewport.MarkerFeature, 0, len(records))
	dropped := 0
	for i, r := range records {
		f, err := s.feature(i, r)
		if err != nil {
			dropped++
			s.logger.Trace().Err(err).Str("hex", r.Hex).Msg("Dropping record")
			continue
		}
		features = append(features, f)
	}
	if dropped > 0 {
		s.dropped.Add(ctx, int64(dropped))
	}

	next := viewport.NewMarkerLayer(features)

	s.mu.Lock()
	rev := s.vp.ReplaceMarkers(s.owned, next)
	s.owned = next
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.LayerInstalled(rev, next)
	}

	s.logger.Debug().
		Uint64("revision", rev).
		Int("markers", len(features)).
		Int("dropped", dropped).
		Msg("Installed marker layer")

	return Result{Revision: rev, Installed: len(features), Dropped: dropped}
}

func (s *Synchronizer) feature(i int, r model.AircraftRecord) (viewport.MarkerFeature, error) {
	if !r.HasPosition() {
		return viewport.MarkerFeature{}, geo.ErrInvalidCoordinates
	}
	p, err := geo.FromLonLat(*r.Lon, *r.Lat)
	if err != nil {
		return viewport.MarkerFeature{}, err
	}
	id := r.Hex
	if id == "" {
		id = strconv.Itoa(i)
	}
	return viewport.MarkerFeature{
		ID:       id,
		Position: p,
		Label:    r.Label(),
		Rotation: r.Heading(),
		Icon:     s.icon,
	}, nil
}
