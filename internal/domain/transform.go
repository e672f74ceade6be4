package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/solar-cycle-etl/internal/solar"
)

var (
	// ErrMissingCoordinate is returned for queries that give neither
	// coordinates nor a place that can be geocoded.
	ErrMissingCoordinate = errors.New("missing coordinate")

	// ErrInvalidQuery wraps malformed query fields.
	ErrInvalidQuery = errors.New("invalid query")
)

// ParseRawEvent deserializes a RawEvent's value into a normalized Query.
// The Kafka message timestamp stands in for a missing query time.
func ParseRawEvent(raw RawEvent, defaultZenith solar.Zenith) (Query, error) {
	var sq SolarQuery
	if err := json.Unmarshal(raw.Value, &sq); err != nil {
		return Query{}, fmt.Errorf("parse raw event: %w", err)
	}
	if sq.ID == "" && len(raw.Key) > 0 {
		sq.ID = string(raw.Key)
	}
	return NormalizeQuery(sq, raw.Timestamp, defaultZenith)
}

// NormalizeQuery validates a SolarQuery and applies defaults: fallback for
// the instant (the current time when zero), defaultZenith for the zenith
// and UTC for the time zone.
func NormalizeQuery(sq SolarQuery, fallback time.Time, defaultZenith solar.Zenith) (Query, error) {
	q := Query{
		ID:     strings.TrimSpace(sq.ID),
		Place:  strings.TrimSpace(sq.Place),
		Zenith: defaultZenith,
	}

	switch {
	case sq.Time != nil && !sq.Time.IsZero():
		q.Instant = sq.Time.UTC()
	case !fallback.IsZero():
		q.Instant = fallback.UTC()
	default:
		q.Instant = clock.Now().UTC()
	}

	if sq.Zenith != "" {
		z, err := solar.ParseZenith(sq.Zenith)
		if err != nil {
			return Query{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
		}
		q.Zenith = z
	}

	q.Location = time.UTC
	if tz := strings.TrimSpace(sq.TimeZone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return Query{}, fmt.Errorf("%w: time zone %q: %w", ErrInvalidQuery, tz, err)
		}
		q.Location = loc
	}

	switch {
	case sq.Latitude != nil && sq.Longitude != nil:
		coord, err := solar.NewCoordinate(*sq.Latitude, *sq.Longitude)
		if err != nil {
			return Query{}, err
		}
		q.Coordinate = coord
		q.HasCoordinate = true
	case sq.Latitude != nil || sq.Longitude != nil:
		return Query{}, fmt.Errorf("%w: latitude and longitude must be given together", ErrInvalidQuery)
	case q.Place == "":
		return Query{}, ErrMissingCoordinate
	}

	return q, nil
}

// BuildReport computes every event for every zenith angle at the query's
// coordinate and classifies the query instant against the query's zenith.
func BuildReport(q Query) (SolarReport, error) {
	if !q.HasCoordinate {
		return SolarReport{}, ErrMissingCoordinate
	}
	loc := q.Location
	if loc == nil {
		loc = time.UTC
	}

	session, err := solar.NewSession(q.Coordinate,
		solar.WithInstant(q.Instant),
		solar.WithZenith(q.Zenith),
		solar.WithOffsetResolver(solar.LocationResolver{Location: loc}),
	)
	if err != nil {
		return SolarReport{}, err
	}
	q.Location = loc
	return ReportFromSession(q, session), nil
}

// ReportFromSession builds a report from s, which may be live. The report
// instant is the session's instant at the time of the call; q supplies the
// identifying and geocoding fields and the time zone name. The session's
// coordinate and zenith take precedence over q's.
func ReportFromSession(q Query, s *solar.Session) SolarReport {
	instant := s.Instant().UTC()

	events := make([]EventTime, 0, 2*len(solar.Zeniths))
	for _, z := range solar.Zeniths {
		rise, set := s.Twilight(z)
		events = append(events,
			newEventTime(s, solar.Sunrise, z, rise),
			newEventTime(s, solar.Sunset, z, set),
		)
	}

	rise, set := s.Twilight(s.Zenith())
	cycle := solar.Classify(rise, set, instant)

	id := q.ID
	if id == "" {
		id = generateID(s.Coordinate(), instant, s.Zenith())
	}
	tz := time.UTC.String()
	if q.Location != nil {
		tz = q.Location.String()
	}

	return SolarReport{
		ID:               id,
		Place:            q.Place,
		Coordinate:       s.Coordinate(),
		Instant:          instant,
		Zenith:           s.Zenith(),
		TimeZone:         tz,
		Cycle:            cycle,
		IsDaytime:        cycle == solar.Day,
		Condition:        reportCondition(rise, set),
		DayLengthSeconds: dayLength(rise, set),
		Events:           events,
		FormattedAddress: q.FormattedAddress,
		GeoConfidence:    q.GeoConfidence,
		GeoSource:        q.GeoSource,
		ProcessedAt:      clock.Now(),
	}
}

func newEventTime(s *solar.Session, event solar.Event, z solar.Zenith, r solar.Result) EventTime {
	et := EventTime{Event: event, Zenith: z, Condition: r.Condition}
	if at, ok := r.Time(); ok {
		utc := at.UTC()
		local := s.Local(at)
		et.UTC = &utc
		et.Local = &local
	}
	return et
}

// reportCondition is Occurs when both events occur, otherwise the condition
// of the missing event, sunrise first.
func reportCondition(rise, set solar.Result) solar.Condition {
	if !rise.Occurs() {
		return rise.Condition
	}
	return set.Condition
}

// dayLength is the time from sunrise to the following sunset, in seconds.
// Sunrise and sunset may fall on different UTC dates, so the difference is
// taken modulo one day.
func dayLength(rise, set solar.Result) int64 {
	switch reportCondition(rise, set) {
	case solar.PolarDay:
		return 86400
	case solar.PolarNight:
		return 0
	}
	d := (set.At.Unix() - rise.At.Unix()) % 86400
	if d < 0 {
		d += 86400
	}
	return d
}

// generateID produces a deterministic ID from the query's key fields so that
// replaying the same query yields the same report key.
func generateID(c solar.Coordinate, instant time.Time, z solar.Zenith) string {
	input := fmt.Sprintf("%.5f|%.5f|%d|%s", c.Latitude, c.Longitude, instant.Unix(), z)
	hash := sha256.Sum256([]byte(input))
	return "solar-" + hex.EncodeToString(hash[:8])
}
