package markers

import (
	"math"
	"net/url"
	"strings"

	"github.com/yeonjoon13/flight-map/internal/viewport"
)

// AirplaneIcon is the silhouette drawn for every aircraft, nose up.
const AirplaneIcon = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 19 19" height="20" width="20"><path fill="#fff" d="M15,6.8182L15,8.5l-6.5-1 l-0.3182,4.7727L11,14v1l-3.5-0.6818L4,15v-1l2.8182-1.7273L6.5,7.5L0,8.5V6.8182L6.5,4.5v-3c0,0,0-1.5,1-1.5s1,1.5,1,1.5v2.8182 L15,6.8182z"></path></svg>`

const (
	DefaultColor = "#000000"
	DefaultScale = 1.0
)

// Options controls how markers are drawn.
type Options struct {
	Icon  string
	Color string
	Scale float64
}

// DefaultOptions returns the black airplane at scale 1.
func DefaultOptions() Options {
	return Options{Icon: AirplaneIcon, Color: DefaultColor, Scale: DefaultScale}
}

func (o Options) withDefaults() Options {
	if o.Icon == "" {
		o.Icon = AirplaneIcon
	}
	if o.Color == "" {
		o.Color = DefaultColor
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	return o
}

// IconStyle is what the browser needs to draw one marker.
type IconStyle struct {
	Src      string  `json:"src"`
	Color    string  `json:"color"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"` // radians, clockwise
}

// Styler draws features with a fixed icon, color and scale.
type Styler struct {
	src   string
	color string
	scale float64
}

// NewStyler encodes the icon once; Style reuses it for every feature.
func NewStyler(opts Options) *Styler {
	opts = opts.withDefaults()
	return &Styler{
		src:   IconDataURI(opts.Icon),
		color: opts.Color,
		scale: opts.Scale,
	}
}

// Style returns the icon style for f. It depends only on f.Rotation.
func (s *Styler) Style(f viewport.MarkerFeature) IconStyle {
	st := s.Base()
	st.Rotation = Radians(f.Rotation)
	return st
}

// Base is the style shared by all features, unrotated.
func (s *Styler) Base() IconStyle {
	return IconStyle{Src: s.src, Color: s.color, Scale: s.scale}
}

// Radians converts a track in degrees.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// IconDataURI embeds an SVG document as a data URI.
func IconDataURI(svg string) string {
	return "data:image/svg+xml;charset=utf-8," + encodeURIComponent(svg)
}

// encodeURIComponent matches the browser function of the same name.
func encodeURIComponent(s string) string {
	e := url.QueryEscape(s)
	r := strings.NewReplacer(
		"+", "%20",
		"%21", "!",
		"%27", "'",
		"%28", "(",
		"%29", ")",
		"%2A", "*",
	)
	return r.Replace(e)
}
