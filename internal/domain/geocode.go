package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/solar-cycle-etl/internal/solar"
)

// ErrPlaceNotFound is returned when the geocoder has no match for a place.
var ErrPlaceNotFound = errors.New("place not found")

// ResolveCoordinate fills in the coordinate of a place-only query using the
// geocoder. Queries that already carry coordinates pass through untouched
// apart from GeoSource.
func ResolveCoordinate(ctx context.Context, q Query, geocoder Geocoder, logger *slog.Logger) (Query, error) {
	if q.HasCoordinate {
		q.GeoSource = "original"
		return q, nil
	}
	if q.Place == "" || geocoder == nil {
		return q, ErrMissingCoordinate
	}

	result, err := geocoder.ForwardGeocode(ctx, q.Place)
	if err != nil {
		logger.Warn("forward geocoding failed",
			"query_id", q.ID,
			"place", q.Place,
			"error", err,
		)
		return q, fmt.Errorf("geocode %q: %w", q.Place, err)
	}
	if !result.Found() {
		return q, fmt.Errorf("geocode %q: %w", q.Place, ErrPlaceNotFound)
	}

	coord, err := solar.NewCoordinate(result.Lat, result.Lon)
	if err != nil {
		return q, fmt.Errorf("geocode %q: %w", q.Place, err)
	}
	q.Coordinate = coord
	q.HasCoordinate = true
	q.FormattedAddress = result.FormattedAddress
	q.GeoConfidence = result.Confidence
	q.GeoSource = "forward"
	return q, nil
}
