package viewport

import (
	"fmt"
	"sync"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/yeonjoon13/flight-map/internal/geo"
)

// LonLat is a WGS84 coordinate in degrees.
type LonLat struct {
	Lon float64 `json:"lon" mapstructure:"lon"`
	Lat float64 `json:"lat" mapstructure:"lat"`
}

// Camera is the view state of the map.
type Camera struct {
	Center geom.Point
	Zoom   float64
}

// Options configures New.
type Options struct {
	Target string
	Tile   TileSource
	Center LonLat
	Zoom   float64
}

// DefaultOptions returns a world view over OpenStreetMap tiles.
func DefaultOptions() Options {
	return Options{
		Target: "map",
		Tile:   OSM,
		Center: LonLat{Lon: 0, Lat: 0},
		Zoom:   2,
	}
}

// Viewport is the map surface shared by the poll loop and the HTTP handlers.
// It is created once and mutated in place.
type Viewport struct {
	mu       sync.RWMutex
	target   string
	camera   Camera
	layers   []Layer
	revision uint64
}

// New creates a Viewport bound to opts.Target with one tile layer.
func New(opts Options) (*Viewport, error) {
	if opts.Target == "" {
		opts.Target = "map"
	}
	if opts.Tile.URL == "" {
		opts.Tile = OSM
	}
	center, err := geo.FromLonLat(opts.Center.Lon, opts.Center.Lat)
	if err != nil {
		return nil, fmt.Errorf("viewport center: %w", err)
	}
	return &Viewport{
		target: opts.Target,
		camera: Camera{Center: center, Zoom: opts.Zoom},
		layers: []Layer{&TileLayer{Source: opts.Tile}},
	}, nil
}

// Target returns the display mount point id.
func (v *Viewport) Target() string {
	return v.target
}

// Camera returns the current camera.
func (v *Viewport) Camera() Camera {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.camera
}

// Layers returns the layer stack, bottom first.
func (v *Viewport) Layers() []Layer {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Layer, len(v.layers))
	copy(out, v.layers)
	return out
}

// MarkerLayers returns every marker layer currently attached.
func (v *Viewport) MarkerLayers() []*MarkerLayer {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var out []*MarkerLayer
	for _, l := range v.layers {
		if ml, ok := l.(*MarkerLayer); ok {
			out = append(out, ml)
		}
	}
	return out
}

// Revision counts marker layer installs.
func (v *Viewport) Revision() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.revision
}

// ReplaceMarkers clears and detaches owned along with any other marker layer,
// then attaches next on top. Tile layers are left in place.
func (v *Viewport) ReplaceMarkers(owned, next *MarkerLayer) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	if owned != nil {
		owned.Clear()
	}
	kept := v.layers[:0]
	for _, l := range v.layers {
		ml, ok := l.(*MarkerLayer)
		if !ok {
			kept = append(kept, l)
			continue
		}
		if ml != owned {
			ml.Clear()
		}
	}
	// zero the tail so detached layers can be collected
	for i := len(kept); i < len(v.layers); i++ {
		v.layers[i] = nil
	}
	v.layers = append(kept, next)
	v.revision++
	return v.revision
}

// State is a read-only description of the Viewport.
type State struct {
	Target   string       `json:"target"`
	Center   [2]float64   `json:"center"`
	Zoom     float64      `json:"zoom"`
	Layers   []LayerState `json:"layers"`
	Revision uint64       `json:"revision"`
}

// LayerState describes one layer in State.
type LayerState struct {
	Kind     Kind        `json:"kind"`
	Features int         `json:"features"`
	Source   *TileSource `json:"source,omitempty"`
}

// State snapshots the Viewport for serialization.
func (v *Viewport) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()

	x, y, _ := geo.XY(v.camera.Center)
	s := State{
		Target:   v.target,
		Center:   [2]float64{x, y},
		Zoom:     v.camera.Zoom,
		Layers:   make([]LayerState, 0, len(v.layers)),
		Revision: v.revision,
	}
	for _, l := range v.layers {
		ls := LayerState{Kind: l.Kind(), Features: l.Len()}
		if tl, ok := l.(*TileLayer); ok {
			src := tl.Source
			ls.Source = &src
		}
		s.Layers = append(s.Layers, ls)
	}
	return s
}
