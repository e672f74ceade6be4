package solar

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Session binds a validated coordinate to either a fixed instant or the live
// wall clock and memoizes event results.
//
// A fixed session computes each (event, zenith) pair once. A live session
// recomputes an entry whenever the cached event is already in the past, or,
// for an absent event, whenever the UTC day has changed since it was
// computed. A Session is safe for concurrent use.
type Session struct {
	coord    Coordinate
	instant  time.Time
	live     bool
	zenith   Zenith
	resolver OffsetResolver
	clock    clockwork.Clock

	mu   sync.Mutex
	memo map[memoKey]memoEntry
}

type memoKey struct {
	event  Event
	zenith Zenith
}

type memoEntry struct {
	result Result
	basis  time.Time // instant the result was computed for
}

// Option configures a Session.
type Option func(*Session)

// WithInstant pins the session to t. Without it the session is live.
func WithInstant(t time.Time) Option {
	return func(s *Session) {
		s.instant = t
		s.live = false
	}
}

// WithZenith sets the zenith profile used by Sunrise, Sunset and Cycle.
func WithZenith(z Zenith) Option {
	return func(s *Session) { s.zenith = z }
}

// WithOffsetResolver sets the resolver used by Local.
func WithOffsetResolver(r OffsetResolver) Option {
	return func(s *Session) { s.resolver = r }
}

// WithClock sets the time source of a live session.
func WithClock(c clockwork.Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// NewSession returns a Session for c. It fails with ErrInvalidCoordinate when
// c is out of range; no Session is produced in that case.
func NewSession(c Coordinate, opts ...Option) (*Session, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		coord:  c,
		live:   true,
		zenith: Official,
		clock:  clockwork.NewRealClock(),
		memo:   make(map[memoKey]memoEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Session) Coordinate() Coordinate { return s.coord }
func (s *Session) Zenith() Zenith         { return s.zenith }

// Live reports whether the session tracks the wall clock.
func (s *Session) Live() bool { return s.live }

// Instant returns the instant queries are answered for: the fixed instant,
// or the current clock reading of a live session.
func (s *Session) Instant() time.Time {
	if s.live {
		return s.clock.Now()
	}
	return s.instant
}

// Sunrise returns the sunrise for the session's zenith profile.
func (s *Session) Sunrise() Result {
	return s.Event(Sunrise, s.zenith)
}

// Sunset returns the sunset for the session's zenith profile.
func (s *Session) Sunset() Result {
	return s.Event(Sunset, s.zenith)
}

// Event returns the memoized result for event at zenith z.
func (s *Session) Event(event Event, z Zenith) Result {
	now := s.Instant()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(memoKey{event: event, zenith: z}, now)
}

// Twilight returns the sunrise and sunset pair for zenith z.
func (s *Session) Twilight(z Zenith) (rise, set Result) {
	rise, set, _ = s.pair(z)
	return rise, set
}

// Cycle classifies the session instant against its sunrise and sunset.
func (s *Session) Cycle() Cycle {
	rise, set, now := s.pair(s.zenith)
	return Classify(rise, set, now)
}

func (s *Session) IsDaytime() bool   { return s.Cycle() == Day }
func (s *Session) IsNighttime() bool { return s.Cycle() == Night }

// Local converts t using the session's offset resolver.
func (s *Session) Local(t time.Time) time.Time {
	return Local(t, s.resolver)
}

// pair reads sunrise, sunset and the session instant in one critical
// section so live readers always see a consistent triple.
func (s *Session) pair(z Zenith) (rise, set Result, now time.Time) {
	now = s.Instant()

	s.mu.Lock()
	defer s.mu.Unlock()
	rise = s.lookup(memoKey{event: Sunrise, zenith: z}, now)
	set = s.lookup(memoKey{event: Sunset, zenith: z}, now)
	return rise, set, now
}

// lookup must be called with s.mu held.
func (s *Session) lookup(key memoKey, now time.Time) Result {
	entry, ok := s.memo[key]
	if ok && !s.stale(entry, now) {
		return entry.result
	}
	entry = memoEntry{
		result: Calculate(key.event, s.coord, now, key.zenith),
		basis:  now,
	}
	s.memo[key] = entry
	return entry.result
}

func (s *Session) stale(entry memoEntry, now time.Time) bool {
	if !s.live {
		return false
	}
	if entry.result.Occurs() {
		return entry.result.Before(now)
	}
	return !utcCalendar.sameDay(entry.basis, now)
}
