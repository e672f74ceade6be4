package solar

import (
	"fmt"
	"strings"
)

// Zenith selects the angle from directly overhead at which the sun counts as
// rising or setting.
type Zenith int

const (
	// Official sunrise/sunset, allowing for refraction and the solar disc.
	Official Zenith = iota
	Civil
	Nautical
	Astronomical
)

// Zeniths lists every zenith angle, narrowest first.
var Zeniths = []Zenith{Official, Civil, Nautical, Astronomical}

var zenithNames = map[Zenith]string{
	Official:     "official",
	Civil:        "civil",
	Nautical:     "nautical",
	Astronomical: "astronomical",
}

// Degrees returns the zenith angle in degrees.
func (z Zenith) Degrees() float64 {
	switch z {
	case Civil:
		return 96
	case Nautical:
		return 102
	case Astronomical:
		return 108
	default:
		return 90.83
	}
}

func (z Zenith) String() string {
	if name, ok := zenithNames[z]; ok {
		return name
	}
	return fmt.Sprintf("Zenith(%d)", int(z))
}

// ParseZenith parses a zenith name such as "civil". The empty string is
// Official.
func ParseZenith(s string) (Zenith, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Official, nil
	}
	for z, name := range zenithNames {
		if name == s {
			return z, nil
		}
	}
	return Official, fmt.Errorf("unknown zenith %q", s)
}

func (z Zenith) MarshalText() ([]byte, error) {
	return []byte(z.String()), nil
}

func (z *Zenith) UnmarshalText(b []byte) error {
	parsed, err := ParseZenith(string(b))
	if err != nil {
		return err
	}
	*z = parsed
	return nil
}

// Event selects which crossing of the zenith angle to compute.
type Event int

const (
	Sunrise Event = iota
	Sunset
)

func (e Event) String() string {
	if e == Sunset {
		return "sunset"
	}
	return "sunrise"
}

func (e Event) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *Event) UnmarshalText(b []byte) error {
	switch string(b) {
	case "sunrise":
		*e = Sunrise
	case "sunset":
		*e = Sunset
	default:
		return fmt.Errorf("unknown event %q", b)
	}
	return nil
}
