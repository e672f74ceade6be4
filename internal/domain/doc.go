// Package domain models solar queries and the reports built from them.
//
// # Queries
//
// A query arrives as flat JSON on the source topic:
//
//	{"id":"q-1","place":"London","latitude":51.50853,"longitude":-0.12574,
//	 "time":"2017-02-09T12:00:00Z","zenith":"official","time_zone":"Europe/London"}
//
// Every field is optional except a location. Missing fields default as
// follows:
//
//	id        the Kafka message key, else a generated ID (see below)
//	time      the Kafka message timestamp
//	zenith    the configured DEFAULT_ZENITH (official, civil, nautical, astronomical)
//	time_zone UTC
//
// A query that names a place but no coordinates is forward geocoded before
// a report is built. See [ResolveCoordinate].
//
// # Reports
//
// A report carries sunrise and sunset for all four zenith angles at the
// query's coordinate on the query instant's UTC date, plus the day/night
// cycle of the instant against the query's zenith. Events that do not occur
// (polar day or polar night) have no times and carry the polar condition
// instead. Local times use the UTC offset in effect at each event, so they
// are correct across DST transitions.
//
// # ID Generation
//
// Report IDs for queries without an id are deterministic SHA-256 hashes of
// lat|lon|unix time|zenith, so replaying a query produces the same key
// downstream. See [generateID].
package domain
