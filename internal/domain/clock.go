package domain

import "github.com/jonboulle/clockwork"

// clock stamps ProcessedAt and stands in for a query time when neither the
// query nor the message carries one. Tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
