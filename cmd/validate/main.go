// Command validate checks the solar calculator against a reference table of
// published sunrise and sunset times, against an independent implementation,
// and optionally against a file of query/report pairs written by genfixture.
// It exits non-zero when any check fails.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -fixture internal/solar/testdata/cities.json \
//	  -reports data/fixtures/solar_reports.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/solar-cycle-etl/internal/domain"
	"github.com/couchcryptid/solar-cycle-etl/internal/fixture"
	"github.com/couchcryptid/solar-cycle-etl/internal/solar"
	"github.com/jonboulle/clockwork"
	"github.com/nathan-osman/go-sunrise"
)

// Latitude beyond which the two approximations are allowed to diverge.
const agreementLatitude = 60

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// reportFixture mirrors the pairs written by genfixture.
type reportFixture struct {
	Query  domain.SolarQuery  `json:"query"`
	Report domain.SolarReport `json:"report"`
}

func main() {
	fixturePath := flag.String("fixture", "", "path to the JSON reference table")
	reportsPath := flag.String("reports", "", "path to query/report pairs (optional)")
	tolerance := flag.Duration("tolerance", fixture.Tolerance, "maximum allowed deviation")
	flag.Parse()

	if *fixturePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*fixturePath, *reportsPath, *tolerance); code != 0 {
		os.Exit(code)
	}
}

func run(fixturePath, reportsPath string, tolerance time.Duration) int {
	fmt.Println("=== Solar Calculator Validation ===")
	fmt.Println()

	cities, err := fixture.Load(fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load reference table: %v\n", err)
		return 1
	}

	var pairs []reportFixture
	if reportsPath != "" {
		if pairs, err = loadReports(reportsPath); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load reports: %v\n", err)
			return 1
		}
	}

	phases := []*phase{
		validateReferenceTable(cities, tolerance),
		validateAgreement(cities, tolerance),
		validateCycleBoundaries(cities),
	}
	if reportsPath != "" {
		phases = append(phases, validateReports(pairs))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d reference cities, %d reports (tolerance %s)\n", len(cities), len(pairs), tolerance)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadReports(path string) ([]reportFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pairs []reportFixture
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

// validateReferenceTable computes each city's official sunrise and sunset
// and compares them with the published times.
func validateReferenceTable(cities []fixture.City, tolerance time.Duration) *phase {
	p := &phase{name: "Phase 1: Reference table deviation"}
	var worst time.Duration
	var worstCity string

	for _, city := range cities {
		c, err := solar.NewCoordinate(city.Latitude, city.Longitude)
		if err != nil {
			p.errorf("%s: %v", city.Name, err)
			continue
		}
		for _, ev := range []struct {
			event solar.Event
			want  time.Time
		}{
			{solar.Sunrise, city.Sunrise},
			{solar.Sunset, city.Sunset},
		} {
			got, ok := solar.Calculate(ev.event, c, city.Date(), solar.Official).Time()
			if !ok {
				p.errorf("%s: no %s computed", city.Name, ev.event)
				continue
			}
			dev := deviation(got, ev.want)
			if dev > worst {
				worst, worstCity = dev, city.Name
			}
			if dev > tolerance {
				p.errorf("%s: %s %s, reference %s (off by %s)", city.Name, ev.event,
					got.In(ev.want.Location()).Format(fixture.Layout), ev.want.Format(fixture.Layout), dev)
			}
		}
	}

	fmt.Printf("  %s: worst deviation %s (%s)\n", p.name, worst, worstCity)
	return p
}

// validateAgreement compares the calculator with go-sunrise for cities at
// moderate latitudes.
func validateAgreement(cities []fixture.City, tolerance time.Duration) *phase {
	p := &phase{name: "Phase 2: go-sunrise agreement"}
	var checked int

	for _, city := range cities {
		if math.Abs(city.Latitude) > agreementLatitude {
			continue
		}
		c := solar.Coordinate{Latitude: city.Latitude, Longitude: city.Longitude}
		day := city.Date()
		refRise, refSet := sunrise.SunriseSunset(c.Latitude, c.Longitude, day.Year(), day.Month(), day.Day())
		rise := solar.Calculate(solar.Sunrise, c, day, solar.Official)
		set := solar.Calculate(solar.Sunset, c, day, solar.Official)
		checked++

		if dev := deviation(rise.At, refRise); !rise.Occurs() || dev > tolerance {
			p.errorf("%s: sunrise %s, go-sunrise %s", city.Name, rise.At.Format(time.RFC3339), refRise.Format(time.RFC3339))
		}
		if dev := deviation(set.At, refSet); !set.Occurs() || dev > tolerance {
			p.errorf("%s: sunset %s, go-sunrise %s", city.Name, set.At.Format(time.RFC3339), refSet.Format(time.RFC3339))
		}
	}

	fmt.Printf("  %s: %d cities within ±%d° latitude\n", p.name, checked, agreementLatitude)
	return p
}

// validateCycleBoundaries checks that sunrise is the first daytime second
// and sunset the first nighttime second for every reference city.
func validateCycleBoundaries(cities []fixture.City) *phase {
	p := &phase{name: "Phase 3: Day/night boundaries"}

	for _, city := range cities {
		c := solar.Coordinate{Latitude: city.Latitude, Longitude: city.Longitude}
		rise := solar.Calculate(solar.Sunrise, c, city.Date(), solar.Official)
		set := solar.Calculate(solar.Sunset, c, city.Date(), solar.Official)
		if !rise.Occurs() || !set.Occurs() {
			p.errorf("%s: expected both events to occur", city.Name)
			continue
		}

		checks := []struct {
			label string
			at    time.Time
			want  solar.Cycle
		}{
			{"second before sunrise", rise.At.Add(-time.Second), solar.Night},
			{"sunrise", rise.At, solar.Day},
			{"second before sunset", set.At.Add(-time.Second), solar.Day},
			{"sunset", set.At, solar.Night},
		}
		for _, chk := range checks {
			if got := solar.Classify(rise, set, chk.at); got != chk.want {
				p.errorf("%s: %s classified %s, want %s", city.Name, chk.label, got, chk.want)
			}
		}
	}
	return p
}

// validateReports rebuilds every report from its query and compares the
// result with the stored report.
func validateReports(pairs []reportFixture) *phase {
	p := &phase{name: "Phase 4: Report reproducibility"}

	for i := range pairs {
		pair := &pairs[i]
		// Pin the clock to the stored processing time so IDs and
		// ProcessedAt reproduce exactly.
		domain.SetClock(clockwork.NewFakeClockAt(pair.Report.ProcessedAt))

		q, err := domain.NormalizeQuery(pair.Query, time.Time{}, solar.Official)
		if err != nil {
			p.errorf("%s: normalize: %v", pair.Query.ID, err)
			continue
		}
		q.GeoSource = pair.Report.GeoSource
		got, err := domain.BuildReport(q)
		if err != nil {
			p.errorf("%s: build: %v", pair.Query.ID, err)
			continue
		}
		compareReports(p, got, &pair.Report)
	}
	domain.SetClock(nil)
	return p
}

func compareReports(p *phase, got domain.SolarReport, want *domain.SolarReport) {
	pf := func(format string, args ...any) {
		p.errorf("%s: "+format, append([]any{want.ID}, args...)...)
	}
	if got.ID != want.ID {
		pf("id %q, stored %q", got.ID, want.ID)
	}
	if got.Cycle != want.Cycle {
		pf("cycle %s, stored %s", got.Cycle, want.Cycle)
	}
	if got.Condition != want.Condition {
		pf("condition %s, stored %s", got.Condition, want.Condition)
	}
	if got.DayLengthSeconds != want.DayLengthSeconds {
		pf("day length %d, stored %d", got.DayLengthSeconds, want.DayLengthSeconds)
	}
	if len(got.Events) != len(want.Events) {
		pf("%d events, stored %d", len(got.Events), len(want.Events))
		return
	}
	for i := range got.Events {
		g, w := got.Events[i], want.Events[i]
		if g.Event != w.Event || g.Zenith != w.Zenith || g.Condition != w.Condition {
			pf("event %d: %s/%s/%s, stored %s/%s/%s", i, g.Event, g.Zenith, g.Condition, w.Event, w.Zenith, w.Condition)
			continue
		}
		if !timePtrEq(g.UTC, w.UTC) {
			pf("event %d (%s %s): %s, stored %s", i, g.Zenith, g.Event, ptrTime(g.UTC), ptrTime(w.UTC))
		}
	}
}

func deviation(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}

func timePtrEq(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func ptrTime(t *time.Time) string {
	if t == nil {
		return "<nil>"
	}
	return t.Format(time.RFC3339)
}
