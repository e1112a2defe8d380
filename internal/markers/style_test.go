package markers

import (
	"math"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeonjoon13/flight-map/internal/viewport"
)

func TestStyleDependsOnlyOnRotation(t *testing.T) {
	s := NewStyler(DefaultOptions())

	a := s.Style(viewport.MarkerFeature{ID: "a", Label: "ONE", Rotation: 30})
	b := s.Style(viewport.MarkerFeature{ID: "b", Label: "TWO", Rotation: 30})
	assert.Equal(t, a, b)

	c := s.Style(viewport.MarkerFeature{Rotation: 31})
	assert.NotEqual(t, a.Rotation, c.Rotation)
	assert.Equal(t, a.Src, c.Src)
}

func TestStyleDefaults(t *testing.T) {
	st := NewStyler(Options{}).Style(viewport.MarkerFeature{Rotation: 270})

	assert.Equal(t, DefaultColor, st.Color)
	assert.InDelta(t, 1.0, st.Scale, 1e-12)
	assert.InDelta(t, 3*math.Pi/2, st.Rotation, 1e-12)
	assert.True(t, strings.HasPrefix(st.Src, "data:image/svg+xml;charset=utf-8,"))
}

func TestStyleCustomOptions(t *testing.T) {
	st := NewStyler(Options{Color: "#ff0000", Scale: 1.5}).Base()
	assert.Equal(t, "#ff0000", st.Color)
	assert.InDelta(t, 1.5, st.Scale, 1e-12)
	assert.Zero(t, st.Rotation)
}

func TestIconDataURIRoundTrip(t *testing.T) {
	src := IconDataURI(AirplaneIcon)
	payload := strings.TrimPrefix(src, "data:image/svg+xml;charset=utf-8,")

	assert.NotContains(t, payload, " ")
	assert.NotContains(t, payload, "+")
	assert.NotContains(t, payload, "<")

	decoded, err := url.PathUnescape(payload)
	require.NoError(t, err)
	assert.Equal(t, AirplaneIcon, decoded)
}

func TestEncodeURIComponentKeepsMarks(t *testing.T) {
	assert.Equal(t, "a%20b!'()*~-_.", encodeURIComponent("a b!'()*~-_."))
}
