package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/solar-cycle-etl/internal/config"
	"github.com/couchcryptid/solar-cycle-etl/internal/domain"
	"github.com/couchcryptid/solar-cycle-etl/internal/observability"
	"github.com/couchcryptid/solar-cycle-etl/internal/pipeline"
	"github.com/couchcryptid/solar-cycle-etl/internal/solar"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
)

const publishTimeout = 10 * time.Second

// Scheduler publishes a report for every watch location at each sunrise and
// sunset of the configured zenith.
type Scheduler struct {
	cron   *cron.Cron
	jobs   []*watchJob
	clock  clockwork.Clock
	logger *slog.Logger
}

// Option configures a Scheduler.
type Option func(*options)

type options struct {
	clock clockwork.Clock
}

// WithClock sets the time source used for report instants.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// New builds a Scheduler with one sunrise and one sunset entry per location.
func New(locations []config.WatchLocation, zenith solar.Zenith, loader pipeline.BatchLoader, metrics *observability.Metrics, logger *slog.Logger, opts ...Option) (*Scheduler, error) {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	s := &Scheduler{cron: c, clock: o.clock, logger: logger}
	for _, loc := range locations {
		coord, err := solar.NewCoordinate(loc.Latitude, loc.Longitude)
		if err != nil {
			return nil, fmt.Errorf("watch location %s: %w", loc.Name, err)
		}
		tz := time.UTC
		if loc.TimeZone != "" {
			if tz, err = time.LoadLocation(loc.TimeZone); err != nil {
				return nil, fmt.Errorf("watch location %s: %w", loc.Name, err)
			}
		}
		session, err := solar.NewSession(coord,
			solar.WithZenith(zenith),
			solar.WithOffsetResolver(solar.LocationResolver{Location: tz}),
			solar.WithClock(o.clock),
		)
		if err != nil {
			return nil, fmt.Errorf("watch location %s: %w", loc.Name, err)
		}

		for _, event := range []solar.Event{solar.Sunrise, solar.Sunset} {
			job := &watchJob{
				name:     loc.Name,
				event:    event,
				location: tz,
				session:  session,
				schedule: SolarSchedule{Coordinate: coord, Event: event, Zenith: zenith},
				loader:   loader,
				metrics:  metrics,
				logger:   logger,
			}
			job.id = c.Schedule(job.schedule, job)
			s.jobs = append(s.jobs, job)
		}
	}
	return s, nil
}

// Start runs the cron loop in its own goroutine and logs the first firing of
// every entry.
func (s *Scheduler) Start() {
	now := s.clock.Now()
	for _, j := range s.jobs {
		next := j.schedule.Next(now)
		if next.IsZero() {
			s.logger.Warn("watch location has no upcoming event", "location", j.name, "event", j.event)
			continue
		}
		s.logger.Info("scheduled solar report",
			"location", j.name,
			"event", j.event,
			"next", solar.Local(next, solar.LocationResolver{Location: j.location}).Format(time.RFC3339),
		)
	}
	s.cron.Start()
}

// Stop halts the cron loop and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of scheduled entries.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// watchJob implements cron.Job for one location and event.
type watchJob struct {
	id       cron.EntryID
	name     string
	event    solar.Event
	location *time.Location
	session  *solar.Session
	schedule SolarSchedule
	loader   pipeline.BatchLoader
	metrics  *observability.Metrics
	logger   *slog.Logger
}

func (j *watchJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := j.publish(ctx); err != nil {
		j.logger.Error("publish scheduled report failed", "location", j.name, "event", j.event, "error", err)
	}
}

// publish reads the report from the location's live session, so the events
// are those of the current UTC day at the moment the job fires.
func (j *watchJob) publish(ctx context.Context) error {
	now := j.session.Instant().UTC()

	report := domain.ReportFromSession(domain.Query{
		ID:        reportID(j.name, j.event, now),
		Place:     j.name,
		Location:  j.location,
		GeoSource: "original",
	}, j.session)
	if err := j.loader.LoadBatch(ctx, []domain.SolarReport{report}); err != nil {
		return err
	}

	j.metrics.ScheduledReports.WithLabelValues(j.event.String()).Inc()
	j.logger.Info("published scheduled report",
		"location", j.name,
		"event", j.event,
		"cycle", report.Cycle,
		"report_id", report.ID,
	)
	return nil
}

// reportID keys scheduled reports by location, event and UTC date so a
// re-fired job overwrites rather than duplicates downstream.
func reportID(name string, event solar.Event, at time.Time) string {
	return fmt.Sprintf("%s-%s-%s", strings.ToLower(strings.ReplaceAll(name, " ", "-")), event, at.Format("20060102"))
}
