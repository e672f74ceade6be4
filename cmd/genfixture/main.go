// Command genfixture reads a CSV of cities and generates test fixtures: a
// reference table of sunrise and sunset times computed with an independent
// algorithm, and a JSON file of solar queries with the reports the pipeline
// produces for them.
//
// Usage:
//
//	go run ./cmd/genfixture \
//	  -csv cmd/genfixture/testdata/cities.csv \
//	  -fixture-out internal/solar/testdata/cities.json \
//	  -reports-out data/fixtures/solar_reports.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/solar-cycle-etl/internal/domain"
	"github.com/couchcryptid/solar-cycle-etl/internal/fixture"
	"github.com/couchcryptid/solar-cycle-etl/internal/solar"
	"github.com/jonboulle/clockwork"
	"github.com/nathan-osman/go-sunrise"
)

// cityRow is one parsed line of the input CSV.
type cityRow struct {
	name      string
	latitude  float64
	longitude float64
	date      time.Time
	location  *time.Location
}

// reportFixture pairs a query with the report the pipeline builds for it.
type reportFixture struct {
	Query  domain.SolarQuery  `json:"query"`
	Report domain.SolarReport `json:"report"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "CSV file with city,latitude,longitude,date,time_zone columns")
	fixtureOut := flag.String("fixture-out", "", "output path for the reference table")
	reportsOut := flag.String("reports-out", "", "output path for query/report pairs (optional)")
	flag.Parse()

	if *csvPath == "" || *fixtureOut == "" {
		flag.Usage()
		return errors.New("missing required flags: -csv, -fixture-out")
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	rows, err := readCities(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *csvPath, err)
	}
	log.Printf("cities: %d", len(rows))

	cities, skipped := referenceTable(rows)
	for _, name := range skipped {
		log.Printf("skipped %s: no sunrise or sunset on that date", name)
	}

	if err := writeFile(*fixtureOut, func(w io.Writer) error { return fixture.Encode(w, cities) }); err != nil {
		return fmt.Errorf("writing reference table: %w", err)
	}
	log.Printf("wrote reference table: %s (%d rows)", *fixtureOut, len(cities))

	if *reportsOut == "" {
		return nil
	}

	// Fixed clock for reproducible ProcessedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2017, time.February, 10, 0, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	pairs, err := buildReports(rows)
	if err != nil {
		return err
	}
	if err := writeFile(*reportsOut, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(pairs)
	}); err != nil {
		return fmt.Errorf("writing reports: %w", err)
	}
	log.Printf("wrote reports: %s (%d rows)", *reportsOut, len(pairs))

	printStats(pairs)
	return nil
}

func readCities(r io.Reader) ([]cityRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, errors.New("no data rows")
	}

	colIdx := map[string]int{}
	for i, h := range records[0] {
		colIdx[strings.TrimSpace(h)] = i
	}
	for _, col := range []string{"city", "latitude", "longitude", "date"} {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	rows := make([]cityRow, 0, len(records)-1)
	for n, rec := range records[1:] {
		row, err := parseRow(rec, colIdx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(rec []string, colIdx map[string]int) (cityRow, error) {
	row := cityRow{name: get(rec, colIdx, "city"), location: time.UTC}
	if row.name == "" {
		return row, errors.New("missing city")
	}

	var err error
	if row.latitude, err = strconv.ParseFloat(get(rec, colIdx, "latitude"), 64); err != nil {
		return row, fmt.Errorf("%s: latitude: %w", row.name, err)
	}
	if row.longitude, err = strconv.ParseFloat(get(rec, colIdx, "longitude"), 64); err != nil {
		return row, fmt.Errorf("%s: longitude: %w", row.name, err)
	}
	if _, err := solar.NewCoordinate(row.latitude, row.longitude); err != nil {
		return row, fmt.Errorf("%s: %w", row.name, err)
	}
	if row.date, err = time.Parse(time.DateOnly, get(rec, colIdx, "date")); err != nil {
		return row, fmt.Errorf("%s: date: %w", row.name, err)
	}
	if tz := get(rec, colIdx, "time_zone"); tz != "" {
		if row.location, err = time.LoadLocation(tz); err != nil {
			return row, fmt.Errorf("%s: time zone: %w", row.name, err)
		}
	}
	return row, nil
}

// referenceTable computes each city's events with go-sunrise. Cities where
// the sun does not rise or set on the date are returned by name in skipped.
func referenceTable(rows []cityRow) (cities []fixture.City, skipped []string) {
	for _, row := range rows {
		y, m, d := row.date.Date()
		rise, set := sunrise.SunriseSunset(row.latitude, row.longitude, y, m, d)
		if rise.IsZero() || set.IsZero() {
			skipped = append(skipped, row.name)
			continue
		}
		cities = append(cities, fixture.City{
			Name:      row.name,
			Latitude:  row.latitude,
			Longitude: row.longitude,
			Sunrise:   rise.In(row.location),
			Sunset:    set.In(row.location),
		})
	}
	return cities, skipped
}

// buildReports runs each city through the same normalization and report
// building the pipeline uses, at local noon of the row's date.
func buildReports(rows []cityRow) ([]reportFixture, error) {
	pairs := make([]reportFixture, 0, len(rows))
	for _, row := range rows {
		y, m, d := row.date.Date()
		at := time.Date(y, m, d, 12, 0, 0, 0, row.location).UTC()
		lat, lon := row.latitude, row.longitude
		sq := domain.SolarQuery{
			ID:        "fixture-" + slug(row.name),
			Place:     row.name,
			Latitude:  &lat,
			Longitude: &lon,
			Time:      &at,
			TimeZone:  row.location.String(),
		}
		q, err := domain.NormalizeQuery(sq, time.Time{}, solar.Official)
		if err != nil {
			return nil, fmt.Errorf("%s: normalize: %w", row.name, err)
		}
		q.GeoSource = "original"
		report, err := domain.BuildReport(q)
		if err != nil {
			return nil, fmt.Errorf("%s: build report: %w", row.name, err)
		}
		pairs = append(pairs, reportFixture{Query: sq, Report: report})
	}
	return pairs, nil
}

func printStats(pairs []reportFixture) {
	cycles := map[solar.Cycle]int{}
	conditions := map[solar.Condition]int{}
	var longest, shortest reportFixture
	for i, p := range pairs {
		cycles[p.Report.Cycle]++
		if p.Report.Condition != solar.Occurs {
			conditions[p.Report.Condition]++
		}
		if i == 0 || p.Report.DayLengthSeconds > longest.Report.DayLengthSeconds {
			longest = p
		}
		if i == 0 || p.Report.DayLengthSeconds < shortest.Report.DayLengthSeconds {
			shortest = p
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(pairs))
	fmt.Printf("By cycle: day=%d, night=%d\n", cycles[solar.Day], cycles[solar.Night])
	fmt.Printf("Polar: day=%d, night=%d\n", conditions[solar.PolarDay], conditions[solar.PolarNight])
	if len(pairs) > 0 {
		fmt.Printf("Longest day: %s (%s)\n", longest.Query.Place, time.Duration(longest.Report.DayLengthSeconds)*time.Second)
		fmt.Printf("Shortest day: %s (%s)\n", shortest.Query.Place, time.Duration(shortest.Report.DayLengthSeconds)*time.Second)
	}
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}

func writeFile(path string, encode func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
