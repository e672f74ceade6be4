package solar

import "time"

// Absent results sort after every present result and compare equal to each
// other. Every ordering helper on Result goes through this rule.

// CompareResults orders results by instant. It returns -1, 0 or +1.
func CompareResults(a, b Result) int {
	switch {
	case a.Occurs() && b.Occurs():
		return a.At.Compare(b.At)
	case a.Occurs():
		return -1
	case b.Occurs():
		return 1
	default:
		return 0
	}
}

// Before reports whether the event occurs strictly before t. An absent event
// is never before anything.
func (r Result) Before(t time.Time) bool {
	return r.Occurs() && r.At.Before(t)
}

// After reports whether the event occurs strictly after t. An absent event is
// never after anything.
func (r Result) After(t time.Time) bool {
	return r.Occurs() && r.At.After(t)
}

// Earliest returns the earliest present result, or an absent result if none
// occurs.
func Earliest(results ...Result) Result {
	var best Result
	for i, r := range results {
		if i == 0 || CompareResults(r, best) < 0 {
			best = r
		}
	}
	return best
}
