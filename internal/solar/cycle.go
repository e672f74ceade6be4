package solar

import (
	"fmt"
	"math"
	"time"
)

// Cycle is the day/night state of an instant.
type Cycle int

const (
	Day Cycle = iota
	Night
)

func (c Cycle) String() string {
	if c == Night {
		return "night"
	}
	return "day"
}

func (c Cycle) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Cycle) UnmarshalText(b []byte) error {
	switch string(b) {
	case "day":
		*c = Day
	case "night":
		*c = Night
	default:
		return fmt.Errorf("unknown cycle %q", b)
	}
	return nil
}

const secondsPerDay = 86400

// Classify reports whether at falls between sunrise (inclusive) and sunset
// (exclusive). Times of day are measured from sunrise, modulo one day, so a
// sunset on the following UTC day still orders after its sunrise.
//
// If either event is absent the missing event's condition decides, sunrise
// first: PolarDay is Day and PolarNight is Night.
func Classify(sunrise, sunset Result, at time.Time) Cycle {
	if !sunrise.Occurs() {
		return polarCycle(sunrise.Condition)
	}
	if !sunset.Occurs() {
		return polarCycle(sunset.Condition)
	}

	start := mod(epochSeconds(sunrise.At), secondsPerDay)
	end := mod(epochSeconds(sunset.At)-start, secondsPerDay)
	now := mod(epochSeconds(at)-start, secondsPerDay)

	if now < end {
		return Day
	}
	return Night
}

func polarCycle(c Condition) Cycle {
	if c == PolarNight {
		return Night
	}
	return Day
}

func epochSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// mod returns x modulo m in [0, m).
func mod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}
