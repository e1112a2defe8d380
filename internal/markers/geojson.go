package markers

import (
	"encoding/json"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/yeonjoon13/flight-map/internal/viewport"
)

// FeatureCollection renders a layer as GeoJSON in EPSG:3857 coordinates. Each
// feature carries its label, its track in degrees and the icon rotation in
// radians computed by the styler.
func FeatureCollection(layer *viewport.MarkerLayer, styler *Styler) geom.GeoJSONFeatureCollection {
	if layer == nil {
		return geom.GeoJSONFeatureCollection{}
	}
	return featureCollection(layer.Features(), styler)
}

func featureCollection(features []viewport.MarkerFeature, styler *Styler) geom.GeoJSONFeatureCollection {
	fc := make(geom.GeoJSONFeatureCollection, 0, len(features))
	for _, f := range features {
		fc = append(fc, geom.GeoJSONFeature{
			Geometry: f.Position.AsGeometry(),
			ID:       f.ID,
			Properties: map[string]interface{}{
				"flight":       f.Label,
				"rotation":     f.Rotation,
				"iconRotation": styler.Style(f).Rotation,
			},
		})
	}
	return fc
}

// MarshalLayer encodes layer with FeatureCollection.
func MarshalLayer(layer *viewport.MarkerLayer, styler *Styler) ([]byte, error) {
	return json.Marshal(FeatureCollection(layer, styler))
}

// MarshalCurrent encodes the synchronizer's installed markers.
func (s *Synchronizer) MarshalCurrent() ([]byte, error) {
	return json.Marshal(featureCollection(s.CurrentFeatures(), s.styler))
}
