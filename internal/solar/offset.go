package solar

import (
	"fmt"
	"time"
)

// OffsetResolver yields the UTC offset, in seconds east of UTC, in effect at
// an instant. Resolving per instant keeps DST transitions correct.
type OffsetResolver interface {
	OffsetAt(t time.Time) int
}

// LocationResolver resolves offsets from an IANA time zone.
type LocationResolver struct {
	Location *time.Location
}

func (r LocationResolver) OffsetAt(t time.Time) int {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	_, offset := t.In(loc).Zone()
	return offset
}

// FixedOffset is a constant offset in seconds east of UTC.
type FixedOffset int

func (f FixedOffset) OffsetAt(time.Time) int {
	return int(f)
}

// Local converts a UTC instant into a time whose calendar fields reflect the
// offset resolved for that instant. A nil resolver means UTC.
func Local(t time.Time, r OffsetResolver) time.Time {
	if r == nil {
		return t.UTC()
	}
	offset := r.OffsetAt(t)
	return t.In(time.FixedZone(offsetName(offset), offset))
}

func offsetName(offset int) string {
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, offset/3600, (offset%3600)/60)
}
