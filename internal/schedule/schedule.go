// Package schedule fires jobs at solar events. SolarSchedule plugs into
// robfig/cron as a cron.Schedule; Scheduler publishes a report for each
// watch location at every sunrise and sunset.
package schedule

import (
	"time"

	"github.com/couchcryptid/solar-cycle-etl/internal/solar"
)

// searchDays bounds how far ahead Next looks. A full year covers the longest
// polar night or polar day at any latitude.
const searchDays = 370

// SolarSchedule fires at every occurrence of Event at Coordinate, shifted by
// Offset. It implements cron.Schedule.
type SolarSchedule struct {
	Coordinate solar.Coordinate
	Event      solar.Event
	Zenith     solar.Zenith
	Offset     time.Duration
}

// Next returns the first firing time strictly after now, or the zero time
// if the event does not occur within a year (cron then never runs the job).
func (s SolarSchedule) Next(now time.Time) time.Time {
	r := s.NextResult(now)
	if !r.Occurs() {
		return time.Time{}
	}
	return r.At.Add(s.Offset)
}

// NextResult returns the next occurrence, unshifted, whose shifted time is
// strictly after now. The result is absent when none is found.
func (s SolarSchedule) NextResult(now time.Time) solar.Result {
	day := now.UTC().Truncate(24 * time.Hour)
	after := now.Add(-s.Offset)
	absent := solar.Result{Condition: solar.PolarNight}

	for k := -1; k <= searchDays; k++ {
		r := solar.Calculate(s.Event, s.Coordinate, day.AddDate(0, 0, k), s.Zenith)
		if !r.Occurs() {
			absent = r
			continue
		}
		if !r.After(after) {
			continue
		}
		// The day-boundary correction can move an event onto its
		// neighbour's date, so the following day may hold an earlier one.
		next := solar.Calculate(s.Event, s.Coordinate, day.AddDate(0, 0, k+1), s.Zenith)
		if next.After(after) {
			return solar.Earliest(r, next)
		}
		return r
	}
	return absent
}
