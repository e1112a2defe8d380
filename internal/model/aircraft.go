package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// ErrMalformed is returned when a snapshot body cannot be decoded.
var ErrMalformed = errors.New("model: malformed aircraft snapshot")

// AircraftRecord is a single position report as served by adsb.lol.
// Every field except Hex may be absent from the feed.
type AircraftRecord struct {
	Hex    string   `json:"hex"`
	Flight *string  `json:"flight,omitempty"`
	Lon    *float64 `json:"lon,omitempty"`
	Lat    *float64 `json:"lat,omitempty"`
	Track  *float64 `json:"track,omitempty"`
}

// Label returns the trimmed flight identifier, or "" when absent.
func (r AircraftRecord) Label() string {
	if r.Flight == nil {
		return ""
	}
	return trimLabel(*r.Flight)
}

// Heading returns the track in degrees, defaulting to 0.
func (r AircraftRecord) Heading() float64 {
	if r.Track == nil {
		return 0
	}
	return *r.Track
}

// HasPosition reports whether both coordinates are present.
func (r AircraftRecord) HasPosition() bool {
	return r.Lon != nil && r.Lat != nil
}

// Snapshot is the response body of the aircraft endpoint. The same shape is
// used as the Kafka message value.
type Snapshot struct {
	Aircraft []AircraftRecord `json:"ac"`
	Now      int64            `json:"now,omitempty"`
	Total    int              `json:"total,omitempty"`
	Msg      string           `json:"msg,omitempty"`
}

// NewSnapshot wraps records with the current time in milliseconds.
func NewSnapshot(records []AircraftRecord) Snapshot {
	return Snapshot{
		Aircraft: records,
		Now:      time.Now().UnixMilli(),
		Total:    len(records),
	}
}

// DecodeSnapshot parses a snapshot body. A body without an "ac" list is
// treated as malformed.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	data = trimLeading(data)

	var raw struct {
		Aircraft *[]AircraftRecord `json:"ac"`
		Now      int64             `json:"now"`
		Total    int               `json:"total"`
		Msg      string            `json:"msg"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw.Aircraft == nil {
		return Snapshot{}, fmt.Errorf("%w: missing \"ac\" field", ErrMalformed)
	}

	s := Snapshot{
		Aircraft: *raw.Aircraft,
		Now:      raw.Now,
		Total:    raw.Total,
		Msg:      raw.Msg,
	}
	if s.Aircraft == nil {
		s.Aircraft = []AircraftRecord{}
	}
	for i := range s.Aircraft {
		if f := s.Aircraft[i].Flight; f != nil {
			trimmed := trimLabel(*f)
			s.Aircraft[i].Flight = &trimmed
		}
	}
	return s, nil
}

// trimLeading drops a BOM or unicode spaces some producers prepend.
func trimLeading(raw []byte) []byte {
	return bytes.TrimLeftFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\ufeff' || r == '\u00a0'
	})
}

// trimLabel strips NUL bytes and the space padding callsigns carry.
func trimLabel(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}
