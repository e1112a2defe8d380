package viewport

import (
	"sync"

	geom "github.com/peterstace/simplefeatures/geom"
)

// Kind identifies what a layer draws.
type Kind string

const (
	KindTile   Kind = "tile"
	KindMarker Kind = "marker"
)

// Layer is anything stacked on the Viewport.
type Layer interface {
	Kind() Kind
	Len() int
}

// TileSource describes a raster tile provider.
type TileSource struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
}

// OSM is the public OpenStreetMap tile source.
var OSM = TileSource{
	Name:        "osm",
	URL:         "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
	Attribution: "© OpenStreetMap contributors",
}

// TileLayer is the base background layer.
type TileLayer struct {
	Source TileSource
}

func (l *TileLayer) Kind() Kind { return KindTile }
func (l *TileLayer) Len() int   { return 0 }

// MarkerFeature is one aircraft drawn on the map. Position is in EPSG:3857,
// Rotation is the track in degrees.
type MarkerFeature struct {
	ID       string
	Position geom.Point
	Label    string
	Rotation float64
	Icon     string
}

// MarkerLayer is a replaceable group of markers. Once cleared it stays empty.
type MarkerLayer struct {
	mu       sync.RWMutex
	features []MarkerFeature
}

// NewMarkerLayer builds a layer holding a copy of features.
func NewMarkerLayer(features []MarkerFeature) *MarkerLayer {
	fs := make([]MarkerFeature, len(features))
	copy(fs, features)
	return &MarkerLayer{features: fs}
}

func (l *MarkerLayer) Kind() Kind { return KindMarker }

func (l *MarkerLayer) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.features)
}

// Features returns a copy of the layer's features.
func (l *MarkerLayer) Features() []MarkerFeature {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]MarkerFeature, len(l.features))
	copy(out, l.features)
	return out
}

// Clear removes every feature from the layer.
func (l *MarkerLayer) Clear() {
	l.mu.Lock()
	l.features = nil
	l.mu.Unlock()
}
