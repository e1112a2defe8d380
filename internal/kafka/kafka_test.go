package kafka

import (
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeonjoon13/flight-map/internal/model"
)

func TestEncodeDecodeSnapshot(t *testing.T) {
	flight := "KLM601"
	lon, lat, track := 4.76, 52.31, 123.0
	snap := model.NewSnapshot([]model.AircraftRecord{
		{Hex: "484abc", Flight: &flight, Lon: &lon, Lat: &lat, Track: &track},
		{Hex: "nopos"},
	})

	msg, err := encodeSnapshot([]byte("adsblol"), snap)
	require.NoError(t, err)
	assert.Equal(t, []byte("adsblol"), msg.Key)
	assert.Equal(t, snap.Now, msg.Time.UnixMilli())

	recs, err := decodeMessage(msg)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "KLM601", recs[0].Label())
	assert.InDelta(t, 123.0, recs[0].Heading(), 1e-9)
	assert.False(t, recs[1].HasPosition())
}

func TestDecodeMessageMalformed(t *testing.T) {
	_, err := decodeMessage(kafka.Message{Offset: 42, Value: []byte(`not json`)})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrMalformed)
	assert.Contains(t, err.Error(), "offset 42")
}

func TestNewSourceWithoutGroupStartsAtLastOffset(t *testing.T) {
	s, err := NewSource("localhost:1", "flight_snapshots", "")
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, kafka.LastOffset, s.r.Offset())
}

func TestNewSourceWithGroupUsesStartOffset(t *testing.T) {
	s, err := NewSource("localhost:1", "flight_snapshots", "flightmap")
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, kafka.LastOffset, s.r.Config().StartOffset)
}

func TestTopicConfigDefaults(t *testing.T) {
	tc := topicConfig(TopicConfig{Topic: "flight_snapshots"})
	assert.Equal(t, "flight_snapshots", tc.Topic)
	assert.Equal(t, 1, tc.NumPartitions)
	assert.Equal(t, 1, tc.ReplicationFactor)

	tc = topicConfig(TopicConfig{Topic: "x", NumPartitions: 3, ReplicationFactor: 2})
	assert.Equal(t, 3, tc.NumPartitions)
	assert.Equal(t, 2, tc.ReplicationFactor)
}
