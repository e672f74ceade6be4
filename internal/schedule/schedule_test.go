package schedule

import (
	"testing"
	"time"

	"github.com/couchcryptid/solar-cycle-etl/internal/solar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	london       = solar.Coordinate{Latitude: 51.50853, Longitude: -0.12574}
	longyearbyen = solar.Coordinate{Latitude: 78.2186, Longitude: 15.64007}
	tromso       = solar.Coordinate{Latitude: 69.6489, Longitude: 18.95508}
	tokyo        = solar.Coordinate{Latitude: 35.6895, Longitude: 139.69171}
	losAngeles   = solar.Coordinate{Latitude: 34.05223, Longitude: -118.24368}

	testDate = time.Date(2017, time.February, 9, 0, 0, 0, 0, time.UTC)
)

func TestSolarSchedule_NextSunrise(t *testing.T) {
	s := SolarSchedule{Coordinate: london, Event: solar.Sunrise}

	next := s.Next(testDate)
	assert.Equal(t, int64(1486625181), next.Unix())

	// Firing times are strictly after now.
	again := s.Next(next)
	assert.Equal(t, int64(1486711475), again.Unix())
}

func TestSolarSchedule_Offset(t *testing.T) {
	s := SolarSchedule{Coordinate: london, Event: solar.Sunset, Offset: -30 * time.Minute}

	next := s.Next(testDate.Add(12 * time.Hour))
	assert.Equal(t, int64(1486659846-1800), next.Unix())

	r := s.NextResult(testDate.Add(12 * time.Hour))
	assert.Equal(t, int64(1486659846), r.At.Unix())
}

func TestSolarSchedule_EventOnNeighbouringUTCDate(t *testing.T) {
	// Tokyo's Feb 9 sunrise happened at 21:35Z on Feb 8, so the next one
	// is the Feb 10 local sunrise, still dated Feb 9 in UTC.
	rise := SolarSchedule{Coordinate: tokyo, Event: solar.Sunrise}.Next(testDate)
	assert.Equal(t, int64(1486676055), rise.Unix())

	// Los Angeles sets after UTC midnight.
	set := SolarSchedule{Coordinate: losAngeles, Event: solar.Sunset}.Next(testDate.Add(20 * time.Hour))
	assert.Equal(t, int64(1486690273), set.Unix())
}

func TestSolarSchedule_SkipsPolarNight(t *testing.T) {
	rise := SolarSchedule{Coordinate: longyearbyen, Event: solar.Sunrise}.Next(testDate.Add(12 * time.Hour))
	assert.Equal(t, int64(1487241137), rise.Unix())

	set := SolarSchedule{Coordinate: longyearbyen, Event: solar.Sunset}.Next(testDate.Add(12 * time.Hour))
	assert.Equal(t, int64(1487246863), set.Unix())
}

func TestSolarSchedule_SkipsPolarDay(t *testing.T) {
	midsummer := time.Date(2017, time.June, 21, 0, 0, 0, 0, time.UTC)
	set := SolarSchedule{Coordinate: tromso, Event: solar.Sunset}.Next(midsummer)
	assert.Equal(t, int64(1501107912), set.Unix())
}

func TestSolarSchedule_NeverOccurs(t *testing.T) {
	s := SolarSchedule{Coordinate: solar.Coordinate{Latitude: 90, Longitude: 0}, Event: solar.Sunrise}

	assert.True(t, s.Next(testDate).IsZero())
	r := s.NextResult(testDate)
	require.False(t, r.Occurs())
	assert.Contains(t, []solar.Condition{solar.PolarDay, solar.PolarNight}, r.Condition)
}
