// Package solar computes sunrise, sunset and twilight instants with the
// closed-form NOAA almanac approximation and classifies instants as day or
// night relative to them.
//
// # Algorithm
//
// [Calculate] follows the almanac recipe step by step: UTC day of year,
// approximate event time from the longitude hour, mean anomaly, true
// longitude, right ascension (moved into the same quadrant as the true
// longitude), declination, local hour angle, local mean time, and finally UT.
// The approximation is anchored to 06:00 and 18:00 local mean time, which can
// push the UTC event onto a neighbouring calendar day:
//
//	east of Greenwich, sunrise after 12:00 UT  -> previous UTC day
//	west of Greenwich, sunset before 12:00 UT  -> next UTC day
//
// Results are truncated to whole seconds. Published accuracy is within a few
// minutes of high-precision almanac data.
//
// # Polar conditions
//
// When the sun never crosses the requested zenith angle on a UTC day the
// result carries a [Condition] instead of an instant:
//
//	PolarNight  cos(H) > 1   the sun never climbs to the zenith angle
//	PolarDay    cos(H) < -1  the sun never sinks past the zenith angle
//
// An absent event is a normal value and never an error. [Classify] treats a
// missing event by its condition: PolarDay is day, PolarNight is night.
//
// # Day and night
//
// Classification compares seconds-of-day measured from sunrise rather than
// from UTC midnight, so a sunset that falls after 00:00 UTC (west of
// Greenwich) still orders after the sunrise it belongs to. Sunrise is part of
// the day; sunset is the first instant of the night.
package solar
