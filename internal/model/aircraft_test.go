package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSnapshot(t *testing.T) {
	body := []byte(`{"ac":[{"hex":"a1b2c3","flight":"UAL123  ","lon":-122.3,"lat":47.6,"track":271.5},{"hex":"ffffff"}],"now":1700000000000,"total":2,"msg":"No error"}`)

	s, err := DecodeSnapshot(body)
	require.NoError(t, err)
	require.Len(t, s.Aircraft, 2)

	first := s.Aircraft[0]
	assert.Equal(t, "a1b2c3", first.Hex)
	assert.Equal(t, "UAL123", first.Label())
	assert.True(t, first.HasPosition())
	assert.InDelta(t, 271.5, first.Heading(), 1e-9)

	second := s.Aircraft[1]
	assert.Equal(t, "", second.Label())
	assert.False(t, second.HasPosition())
	assert.Zero(t, second.Heading())

	assert.Equal(t, int64(1700000000000), s.Now)
	assert.Equal(t, 2, s.Total)
}

func TestDecodeSnapshotEmptyList(t *testing.T) {
	s, err := DecodeSnapshot([]byte(`{"ac":[]}`))
	require.NoError(t, err)
	assert.NotNil(t, s.Aircraft)
	assert.Empty(t, s.Aircraft)
}

func TestDecodeSnapshotNullList(t *testing.T) {
	s, err := DecodeSnapshot([]byte(`{"ac":null}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Nil(t, s.Aircraft)
}

func TestDecodeSnapshotMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<html>bad gateway</html>`},
		{name: "missing ac", body: `{"aircraft":[]}`},
		{name: "wrong type", body: `{"ac":{"hex":"abc"}}`},
		{name: "truncated", body: `{"ac":[{"hex":"abc","lat":1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecodeSnapshotTrimsLeadingBOM(t *testing.T) {
	s, err := DecodeSnapshot([]byte("\ufeff \u00a0{\"ac\":[{\"hex\":\"abc\",\"flight\":\"DAL9\\u0000\\u0000\"}]}"))
	require.NoError(t, err)
	require.Len(t, s.Aircraft, 1)
	assert.Equal(t, "DAL9", s.Aircraft[0].Label())
}

func TestNewSnapshot(t *testing.T) {
	recs := []AircraftRecord{{Hex: "a"}, {Hex: "b"}}
	s := NewSnapshot(recs)
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, recs, s.Aircraft)
	assert.Positive(t, s.Now)
}
