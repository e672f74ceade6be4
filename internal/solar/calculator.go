package solar

import (
	"fmt"
	"math"
	"time"
)

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
)

// Condition describes whether an event occurs on a given UTC day. The zero
// value is PolarNight, so a zero Result never occurs.
type Condition int

const (
	// PolarNight means the sun never climbs to the zenith angle that day.
	PolarNight Condition = iota
	// PolarDay means the sun never sinks past the zenith angle that day.
	PolarDay
	Occurs
)

func (c Condition) String() string {
	switch c {
	case PolarNight:
		return "polar_night"
	case PolarDay:
		return "polar_day"
	default:
		return "occurs"
	}
}

func (c Condition) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Condition) UnmarshalText(b []byte) error {
	for _, v := range []Condition{Occurs, PolarNight, PolarDay} {
		if v.String() == string(b) {
			*c = v
			return nil
		}
	}
	return fmt.Errorf("unknown condition %q", b)
}

// Result is the outcome of a solar event calculation. At is only meaningful
// when Condition is Occurs.
type Result struct {
	At        time.Time
	Condition Condition
}

// OccursAt returns a present result at t.
func OccursAt(t time.Time) Result {
	return Result{At: t, Condition: Occurs}
}

// Occurs reports whether the event happens.
func (r Result) Occurs() bool {
	return r.Condition == Occurs
}

// Time returns the event instant and whether it exists.
func (r Result) Time() (time.Time, bool) {
	if !r.Occurs() {
		return time.Time{}, false
	}
	return r.At, true
}

// Calculate returns the instant, in UTC, at which the sun crosses the zenith
// angle z for the given event on the UTC day containing t. The coordinate is
// not validated here; callers that accept user input should go through
// NewCoordinate or NewSession.
func Calculate(event Event, c Coordinate, t time.Time, z Zenith) Result {
	day := float64(utcCalendar.dayOfYear(t))

	lngHour := c.Longitude / 15

	approxHour := 6.0
	if event == Sunset {
		approxHour = 18
	}
	tt := day + (approxHour-lngHour)/24

	// Mean anomaly.
	m := 0.9856*tt - 3.289

	// True longitude.
	l := m + 1.916*math.Sin(m*deg2rad) + 0.020*math.Sin(2*m*deg2rad) + 282.634
	l = normalise(l, 360)

	// Right ascension, moved into the same quadrant as l.
	ra := math.Atan(0.91764*math.Tan(l*deg2rad)) * rad2deg
	ra = normalise(ra, 360)
	ra += quadrant(l) - quadrant(ra)
	ra /= 15

	// Declination.
	sinDec := 0.39782 * math.Sin(l*deg2rad)
	cosDec := math.Cos(math.Asin(sinDec))

	// Local hour angle.
	lat := c.Latitude * deg2rad
	cosH := (math.Cos(z.Degrees()*deg2rad) - sinDec*math.Sin(lat)) / (cosDec * math.Cos(lat))
	if cosH > 1 {
		return Result{Condition: PolarNight}
	}
	if cosH < -1 {
		return Result{Condition: PolarDay}
	}

	h := math.Acos(cosH) * rad2deg
	if event == Sunrise {
		h = 360 - h
	}
	h /= 15

	// Local mean time of the event, then UT.
	lmt := h + ra - 0.06571*tt - 6.622
	ut := normalise(lmt-lngHour, 24)

	hour := math.Floor(ut)
	minute := math.Floor((ut - hour) * 60)
	second := ((ut-hour)*60 - minute) * 60

	shift := 0
	switch {
	case lngHour > 0 && ut > 12 && event == Sunrise:
		shift = -1
	case lngHour < 0 && ut < 12 && event == Sunset:
		shift = 1
	}

	at := utcCalendar.at(t, shift, int(hour), int(minute), int(second))
	return OccursAt(at)
}

// normalise moves v into [0, max] by adding or subtracting max once.
func normalise(v, max float64) float64 {
	if v < 0 {
		v += max
	}
	if v > max {
		v -= max
	}
	return v
}

func quadrant(deg float64) float64 {
	return math.Floor(deg/90) * 90
}
