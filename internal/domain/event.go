package domain

import (
	"context"
	"time"

	"github.com/couchcryptid/solar-cycle-etl/internal/solar"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// SolarQuery is the JSON body of a source-topic message. Coordinates are
// pointers so that an explicit 0 is distinguishable from an omitted field.
type SolarQuery struct {
	ID        string     `json:"id,omitempty"`
	Place     string     `json:"place,omitempty"`
	Latitude  *float64   `json:"latitude,omitempty"`
	Longitude *float64   `json:"longitude,omitempty"`
	Time      *time.Time `json:"time,omitempty"`
	Zenith    string     `json:"zenith,omitempty"`
	TimeZone  string     `json:"time_zone,omitempty"`
}

// Query is a normalized SolarQuery ready for report building.
type Query struct {
	ID            string
	Place         string
	Coordinate    solar.Coordinate
	HasCoordinate bool
	Instant       time.Time
	Zenith        solar.Zenith
	Location      *time.Location

	// Geocoding enrichment fields.
	FormattedAddress string
	GeoConfidence    float64
	GeoSource        string // "original", "forward"
}

// EventTime is one sunrise or sunset for one zenith angle. UTC and Local are
// nil when the event does not occur on that day.
type EventTime struct {
	Event     solar.Event     `json:"event"`
	Zenith    solar.Zenith    `json:"zenith"`
	UTC       *time.Time      `json:"utc,omitempty"`
	Local     *time.Time      `json:"local,omitempty"`
	Condition solar.Condition `json:"condition"`
}

// SolarReport is the domain-rich representation published to the sink topic.
type SolarReport struct {
	ID               string           `json:"id"`
	Place            string           `json:"place,omitempty"`
	Coordinate       solar.Coordinate `json:"coordinate"`
	Instant          time.Time        `json:"instant"`
	Zenith           solar.Zenith     `json:"zenith"`
	TimeZone         string           `json:"time_zone"`
	Cycle            solar.Cycle      `json:"cycle"`
	IsDaytime        bool             `json:"is_daytime"`
	Condition        solar.Condition  `json:"condition"`
	DayLengthSeconds int64            `json:"day_length_seconds"`
	Events           []EventTime      `json:"events"`

	FormattedAddress string  `json:"formatted_address,omitempty"`
	GeoConfidence    float64 `json:"geo_confidence,omitempty"`
	GeoSource        string  `json:"geo_source,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`
}

// Event returns the entry for the given event and zenith, if present.
func (r SolarReport) Event(event solar.Event, z solar.Zenith) (EventTime, bool) {
	for _, e := range r.Events {
		if e.Event == event && e.Zenith == z {
			return e, true
		}
	}
	return EventTime{}, false
}
