package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	httpadapter "github.com/couchcryptid/solar-cycle-etl/internal/adapter/http"
	"github.com/couchcryptid/solar-cycle-etl/internal/domain"
	"github.com/couchcryptid/solar-cycle-etl/internal/observability"
	"github.com/couchcryptid/solar-cycle-etl/internal/solar"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGeocoder struct {
	result domain.GeocodingResult
	err    error
}

func (s stubGeocoder) ForwardGeocode(_ context.Context, _ string) (domain.GeocodingResult, error) {
	return s.result, s.err
}

func doLookup(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestLookup_London(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	h := httpadapter.NewLookupHandler(nil, solar.Official, metrics, discardLogger())

	rec := doLookup(t, h, "/v1/solar?lat=51.50853&lon=-0.12574&time=2017-02-09T12:00:00Z&tz=Europe/London")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var report struct {
		Cycle     string `json:"cycle"`
		IsDaytime bool   `json:"is_daytime"`
		Zenith    string `json:"zenith"`
		TimeZone  string `json:"time_zone"`
		Events    []struct {
			Event  string `json:"event"`
			Zenith string `json:"zenith"`
			UTC    string `json:"utc"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	assert.Equal(t, "day", report.Cycle)
	assert.True(t, report.IsDaytime)
	assert.Equal(t, "official", report.Zenith)
	assert.Equal(t, "Europe/London", report.TimeZone)
	require.Len(t, report.Events, 8)
	assert.Equal(t, "sunrise", report.Events[0].Event)
	assert.Equal(t, "2017-02-09T07:26:21Z", report.Events[0].UTC)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LookupRequests.WithLabelValues("success")))
}

func TestLookup_BadRequests(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	h := httpadapter.NewLookupHandler(nil, solar.Official, metrics, discardLogger())

	targets := []string{
		"/v1/solar",
		"/v1/solar?lat=abc&lon=0",
		"/v1/solar?lat=0&lon=xyz",
		"/v1/solar?lat=91&lon=0",
		"/v1/solar?lat=0&lon=190",
		"/v1/solar?lat=0",
		"/v1/solar?lat=0&lon=0&time=yesterday",
		"/v1/solar?lat=0&lon=0&zenith=golden",
		"/v1/solar?lat=0&lon=0&tz=Nowhere/Special",
		"/v1/solar?place=London",
	}
	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			rec := doLookup(t, h, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
	assert.Equal(t, float64(len(targets)), testutil.ToFloat64(metrics.LookupRequests.WithLabelValues("bad_request")))
}

func TestLookup_Place(t *testing.T) {
	geo := stubGeocoder{result: domain.GeocodingResult{Lat: 78.2186, Lon: 15.64007, FormattedAddress: "Longyearbyen, Svalbard"}}
	h := httpadapter.NewLookupHandler(geo, solar.Official, observability.NewMetricsForTesting(), discardLogger())

	rec := doLookup(t, h, "/v1/solar?place=Longyearbyen&time=2017-02-09T12:00:00Z")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report domain.SolarReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "forward", report.GeoSource)
	assert.Equal(t, "Longyearbyen, Svalbard", report.FormattedAddress)
	assert.False(t, report.IsDaytime)
	assert.Equal(t, int64(0), report.DayLengthSeconds)
}

func TestLookup_PlaceNotFound(t *testing.T) {
	h := httpadapter.NewLookupHandler(stubGeocoder{}, solar.Official, observability.NewMetricsForTesting(), discardLogger())

	rec := doLookup(t, h, "/v1/solar?place=Atlantis")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLookup_GeocoderError(t *testing.T) {
	h := httpadapter.NewLookupHandler(stubGeocoder{err: errors.New("upstream down")}, solar.Official, observability.NewMetricsForTesting(), discardLogger())

	rec := doLookup(t, h, "/v1/solar?place=London")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
