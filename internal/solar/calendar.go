package solar

import "time"

// calendar indexes days on the proleptic Gregorian calendar in a fixed zone.
// The package holds a single UTC instance and never modifies it.
type calendar struct {
	loc *time.Location
}

var utcCalendar = calendar{loc: time.UTC}

// dayOfYear returns the 1-based ordinal day of t within its year.
func (c calendar) dayOfYear(t time.Time) int {
	return t.In(c.loc).YearDay()
}

// startOfDay returns midnight of the day containing t.
func (c calendar) startOfDay(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

// at returns the instant on day shifted by the given number of days, at the
// given time of day.
func (c calendar) at(day time.Time, days, hour, minute, second int) time.Time {
	y, m, d := day.In(c.loc).AddDate(0, 0, days).Date()
	return time.Date(y, m, d, hour, minute, second, 0, c.loc)
}

// sameDay reports whether a and b fall on the same calendar day.
func (c calendar) sameDay(a, b time.Time) bool {
	return c.startOfDay(a).Equal(c.startOfDay(b))
}
