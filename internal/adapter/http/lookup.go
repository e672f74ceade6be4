package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/solar-cycle-etl/internal/domain"
	"github.com/couchcryptid/solar-cycle-etl/internal/observability"
	"github.com/couchcryptid/solar-cycle-etl/internal/solar"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// LookupHandler serves GET /v1/solar: a synchronous solar report for one
// coordinate or place.
//
// Query parameters: lat, lon, place, time (RFC 3339, default now),
// zenith (official, civil, nautical, astronomical) and tz (IANA name).
type LookupHandler struct {
	geocoder      domain.Geocoder
	defaultZenith solar.Zenith
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewLookupHandler creates the lookup handler. A nil geocoder rejects
// place-only lookups.
func NewLookupHandler(geocoder domain.Geocoder, defaultZenith solar.Zenith, metrics *observability.Metrics, logger *slog.Logger) *LookupHandler {
	return &LookupHandler{
		geocoder:      geocoder,
		defaultZenith: defaultZenith,
		metrics:       metrics,
		logger:        logger,
	}
}

func (h *LookupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sq, err := parseLookupQuery(r.URL.Query())
	if err != nil {
		h.fail(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	q, err := domain.NormalizeQuery(sq, time.Time{}, h.defaultZenith)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	q, err = domain.ResolveCoordinate(r.Context(), q, h.geocoder, h.logger)
	switch {
	case errors.Is(err, domain.ErrMissingCoordinate):
		h.fail(w, http.StatusBadRequest, "bad_request", err)
		return
	case errors.Is(err, domain.ErrPlaceNotFound):
		h.fail(w, http.StatusNotFound, "not_found", err)
		return
	case err != nil:
		h.fail(w, http.StatusBadGateway, "error", err)
		return
	}

	report, err := domain.BuildReport(q)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	h.observe("success")
	sharedobs.WriteJSON(w, http.StatusOK, report)
}

func (h *LookupHandler) fail(w http.ResponseWriter, status int, outcome string, err error) {
	h.observe(outcome)
	if status >= http.StatusInternalServerError {
		h.logger.Warn("solar lookup failed", "status", status, "error", err)
	}
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *LookupHandler) observe(outcome string) {
	if h.metrics != nil {
		h.metrics.LookupRequests.WithLabelValues(outcome).Inc()
	}
}

// parseLookupQuery maps URL parameters onto a SolarQuery. Only syntax is
// checked here; domain.NormalizeQuery validates the values.
func parseLookupQuery(v url.Values) (domain.SolarQuery, error) {
	sq := domain.SolarQuery{
		ID:       v.Get("id"),
		Place:    v.Get("place"),
		Zenith:   v.Get("zenith"),
		TimeZone: v.Get("tz"),
	}

	var err error
	if sq.Latitude, err = parseFloatParam(v, "lat"); err != nil {
		return sq, err
	}
	if sq.Longitude, err = parseFloatParam(v, "lon"); err != nil {
		return sq, err
	}
	if s := v.Get("time"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return sq, fmt.Errorf("%w: time: %w", domain.ErrInvalidQuery, err)
		}
		sq.Time = &t
	}
	return sq, nil
}

func parseFloatParam(v url.Values, name string) (*float64, error) {
	s := v.Get(name)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidQuery, name, err)
	}
	return &f, nil
}
