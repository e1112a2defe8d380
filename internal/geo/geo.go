package geo

import (
	"errors"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Map points are kept in EPSG:3857 (spherical web mercator), the projection the
// browser view renders in. Records arrive in EPSG:4326 lon/lat degrees.

// MaxMercatorLat is the latitude at which web mercator becomes square.
const MaxMercatorLat = 85.05112877980659

// ErrInvalidCoordinates is returned when a lon/lat pair cannot be projected.
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

var toMercator = wgs84.EPSG().Transform(4326, 3857)

// ValidLonLat reports whether lon/lat are finite and within WGS84 range.
func ValidLonLat(lon, lat float64) bool {
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// FromLonLat projects a lon/lat pair into an EPSG:3857 point. Latitudes past
// the mercator limit are clamped to it.
func FromLonLat(lon, lat float64) (geom.Point, error) {
	if !ValidLonLat(lon, lat) {
		return geom.Point{}, ErrInvalidCoordinates
	}
	lat = math.Max(-MaxMercatorLat, math.Min(MaxMercatorLat, lat))

	x, y, _ := toMercator(lon, lat, 0)
	return geom.NewPoint(geom.Coordinates{XY: geom.XY{X: x, Y: y}})
}

// XY returns the coordinates of p, or ok=false for an empty point.
func XY(p geom.Point) (x, y float64, ok bool) {
	c, ok := p.Coordinates()
	if !ok {
		return 0, 0, false
	}
	return c.XY.X, c.XY.Y, true
}
