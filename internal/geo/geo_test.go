package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const halfWorld = 20037508.342789244

func TestFromLonLatOrigin(t *testing.T) {
	p, err := FromLonLat(0, 0)
	require.NoError(t, err)
	assert.False(t, p.IsEmpty())

	x, y, ok := XY(p)
	require.True(t, ok)
	assert.InDelta(t, 0, x, 1e-3)
	assert.InDelta(t, 0, y, 1e-3)
}

func TestFromLonLatEdges(t *testing.T) {
	p, err := FromLonLat(180, 0)
	require.NoError(t, err)
	x, _, ok := XY(p)
	require.True(t, ok)
	assert.InDelta(t, halfWorld, x, 1)

	p, err = FromLonLat(-90, 0)
	require.NoError(t, err)
	x, _, _ = XY(p)
	assert.InDelta(t, -halfWorld/2, x, 1)
}

func TestFromLonLatClampsPolarLatitude(t *testing.T) {
	p, err := FromLonLat(10, 90)
	require.NoError(t, err)

	_, y, ok := XY(p)
	require.True(t, ok)
	assert.False(t, math.IsInf(y, 0))
	assert.InDelta(t, halfWorld, y, 1)
}

func TestFromLonLatRejectsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float64
	}{
		{"lat too large", 0, 91},
		{"lon too small", -181, 0},
		{"nan", math.NaN(), 0},
		{"inf", 0, math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromLonLat(tt.lon, tt.lat)
			assert.ErrorIs(t, err, ErrInvalidCoordinates)
		})
	}
}

func TestValidLonLat(t *testing.T) {
	assert.True(t, ValidLonLat(-180, -90))
	assert.True(t, ValidLonLat(180, 90))
	assert.False(t, ValidLonLat(0, -90.0001))
}
