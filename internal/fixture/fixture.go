// Package fixture reads and writes city reference tables: published sunrise
// and sunset times used to check the solar calculator.
package fixture

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Layout is the timestamp format of reference tables. RFC 3339 timestamps
// are accepted on input as well.
const Layout = "2006-01-02T15:04:05-0700"

// Tolerance is how far a computed event may drift from its reference.
const Tolerance = 5 * time.Minute

// City is one row of a reference table. Sunrise and Sunset keep the UTC
// offset they were published with.
type City struct {
	Name      string
	Latitude  float64
	Longitude float64
	Sunrise   time.Time
	Sunset    time.Time
}

// Date returns UTC midnight of the city's local calendar date, taken from
// the published sunrise. It is the instant to compute that row's events for.
func (c City) Date() time.Time {
	y, m, d := c.Sunrise.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type record struct {
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Sunrise   string  `json:"sunrise"`
	Sunset    string  `json:"sunset"`
}

// Decode reads a JSON reference table.
func Decode(r io.Reader) ([]City, error) {
	var records []record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	cities := make([]City, 0, len(records))
	for i, rec := range records {
		if rec.City == "" {
			return nil, fmt.Errorf("record %d: missing city", i)
		}
		sunrise, err := parseTime(rec.Sunrise)
		if err != nil {
			return nil, fmt.Errorf("%s: sunrise: %w", rec.City, err)
		}
		sunset, err := parseTime(rec.Sunset)
		if err != nil {
			return nil, fmt.Errorf("%s: sunset: %w", rec.City, err)
		}
		cities = append(cities, City{
			Name:      rec.City,
			Latitude:  rec.Latitude,
			Longitude: rec.Longitude,
			Sunrise:   sunrise,
			Sunset:    sunset,
		})
	}
	return cities, nil
}

// Load reads a JSON reference table from path.
func Load(path string) ([]City, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes cities as an indented JSON reference table.
func Encode(w io.Writer, cities []City) error {
	records := make([]record, len(cities))
	for i, c := range cities {
		records[i] = record{
			City:      c.Name,
			Latitude:  c.Latitude,
			Longitude: c.Longitude,
			Sunrise:   c.Sunrise.Format(Layout),
			Sunset:    c.Sunset.Format(Layout),
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(Layout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", s, err)
	}
	return t, nil
}
