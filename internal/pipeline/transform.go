package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/solar-cycle-etl/internal/domain"
	"github.com/couchcryptid/solar-cycle-etl/internal/observability"
	"github.com/couchcryptid/solar-cycle-etl/internal/solar"
)

// SolarTransformer implements Transformer: it parses a query, geocodes
// place-only queries when a geocoder is configured, and builds the report.
type SolarTransformer struct {
	geocoder      domain.Geocoder
	defaultZenith solar.Zenith
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewTransformer creates a SolarTransformer. Pass a nil geocoder to disable
// geocoding; place-only queries then fail with domain.ErrMissingCoordinate.
func NewTransformer(geocoder domain.Geocoder, defaultZenith solar.Zenith, metrics *observability.Metrics, logger *slog.Logger) *SolarTransformer {
	return &SolarTransformer{
		geocoder:      geocoder,
		defaultZenith: defaultZenith,
		metrics:       metrics,
		logger:        logger,
	}
}

func (t *SolarTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.SolarReport, error) {
	query, err := domain.ParseRawEvent(raw, t.defaultZenith)
	if err != nil {
		return domain.SolarReport{}, err
	}

	query, err = domain.ResolveCoordinate(ctx, query, t.geocoder, t.logger)
	if err != nil {
		return domain.SolarReport{}, err
	}

	report, err := domain.BuildReport(query)
	if err != nil {
		return domain.SolarReport{}, err
	}

	t.observe(report)
	return report, nil
}

func (t *SolarTransformer) observe(report domain.SolarReport) {
	if t.metrics == nil {
		return
	}
	for _, e := range report.Events {
		if e.Zenith != report.Zenith {
			continue
		}
		t.metrics.SolarEvents.WithLabelValues(e.Event.String(), e.Condition.String()).Inc()
	}
}
