package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"cragcast/internal/modules/weather/repository"
	"cragcast/internal/modules/weather/types"
	"cragcast/internal/observability"
)

// snapshotRetention bounds the snapshot table; the refresh job prunes older rows.
const snapshotRetention = 7 * 24 * time.Hour

// Provider fetches live weather, typically the Open-Meteo adapter.
type Provider interface {
	Current(ctx context.Context, lat, lon float64) (types.Conditions, error)
	Forecast(ctx context.Context, lat, lon float64) ([]types.ForecastEntry, error)
}

// LocationLister lists the distinct crag coordinates to refresh.
type LocationLister interface {
	Locations(ctx context.Context) ([]types.Location, error)
}

// Publisher announces refreshed conditions, e.g. over MQTT.
type Publisher interface {
	PublishConditions(ctx context.Context, loc types.Location, snap types.Snapshot) error
}

type Options struct {
	// SnapshotMaxAge is how long a stored reading is served before a live fetch.
	// Zero always fetches live.
	SnapshotMaxAge time.Duration
	// FetchTimeout bounds each location's live fetch during RefreshAll. Zero
	// leaves it to the provider.
	FetchTimeout   time.Duration
	Locations      LocationLister
	Publisher      Publisher
	Clock          clockwork.Clock
	Metrics        *observability.Metrics
	Logger         *slog.Logger
}

type Service struct {
	provider       Provider
	repository     repository.WeatherRepository
	snapshotMaxAge time.Duration
	fetchTimeout   time.Duration
	locations      LocationLister
	publisher      Publisher
	clock          clockwork.Clock
	metrics        *observability.Metrics
	logger         *slog.Logger
}

func NewService(provider Provider, repository repository.WeatherRepository, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		provider:       provider,
		repository:     repository,
		snapshotMaxAge: opts.SnapshotMaxAge,
		fetchTimeout:   opts.FetchTimeout,
		locations:      opts.Locations,
		publisher:      opts.Publisher,
		clock:          opts.Clock,
		metrics:        opts.Metrics,
		logger:         opts.Logger.With("component", "weather"),
	}
}

// Current returns the conditions at the coordinate, served from a stored
// snapshot younger than SnapshotMaxAge when there is one.
func (s *Service) Current(ctx context.Context, lat, lon float64) (types.Conditions, error) {
	key := types.LocationKey(lat, lon)

	if s.snapshotMaxAge > 0 {
		snap, ok, err := s.repository.LatestSnapshot(ctx, key)
		switch {
		case err != nil:
			s.logger.Warn("snapshot lookup failed", "location", key, "error", err)
		case ok && s.clock.Since(snap.FetchedAt) < s.snapshotMaxAge:
			return snap.Conditions, nil
		}
	}

	snap, err := s.fetchAndStore(ctx, lat, lon)
	if err != nil {
		return types.Conditions{}, err
	}
	return snap.Conditions, nil
}

// Forecast returns the hourly forecast at the coordinate.
func (s *Service) Forecast(ctx context.Context, lat, lon float64) ([]types.ForecastEntry, error) {
	entries, err := s.provider.Forecast(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("forecast %s: %w", types.LocationKey(lat, lon), err)
	}
	return entries, nil
}

// fetchAndStore fetches live conditions and records them. A failed insert is
// logged; the live reading is still returned.
func (s *Service) fetchAndStore(ctx context.Context, lat, lon float64) (types.Snapshot, error) {
	key := types.LocationKey(lat, lon)
	cond, err := s.provider.Current(ctx, lat, lon)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("current %s: %w", key, err)
	}

	snap := types.Snapshot{LocationKey: key, FetchedAt: s.clock.Now().UTC(), Conditions: cond}
	if err := s.repository.InsertSnapshot(ctx, snap); err != nil {
		s.logger.Error("failed to store snapshot", "location", key, "error", err)
	}
	return snap, nil
}

type RefreshResult struct {
	Locations int
	Failed    int
	Published int
}

// RefreshAll fetches and stores current conditions for every crag location and
// publishes each one. A failing location is logged and skipped. The returned
// error joins the per-location failures.
func (s *Service) RefreshAll(ctx context.Context) (RefreshResult, error) {
	if s.locations == nil {
		return RefreshResult{}, errors.New("refresh: no location lister configured")
	}
	locs, err := s.locations.Locations(ctx)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("refresh: list locations: %w", err)
	}

	start := s.clock.Now()
	res := RefreshResult{Locations: len(locs)}
	var errs []error
	for _, loc := range locs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		snap, err := s.refreshLocation(ctx, loc)
		if err != nil {
			res.Failed++
			errs = append(errs, err)
			s.logger.Warn("refresh location failed", "location", loc.Key(), "error", err)
			continue
		}

		if s.publisher == nil {
			continue
		}
		if err := s.publisher.PublishConditions(ctx, loc, snap); err != nil {
			s.countPublish("error")
			s.logger.Warn("publish conditions failed", "location", loc.Key(), "error", err)
			continue
		}
		s.countPublish("success")
		res.Published++
	}

	if n, err := s.repository.DeleteSnapshotsBefore(ctx, s.clock.Now().Add(-snapshotRetention)); err != nil {
		s.logger.Warn("prune snapshots failed", "error", err)
	} else if n > 0 {
		s.logger.Debug("pruned snapshots", "rows", n)
	}

	if s.metrics != nil {
		s.metrics.RefreshRuns.Inc()
		s.metrics.RefreshErrors.Add(float64(res.Failed))
		s.metrics.RefreshLocations.Set(float64(res.Locations))
	}
	s.logger.Info("weather refresh finished",
		"locations", res.Locations,
		"failed", res.Failed,
		"published", res.Published,
		"duration_ms", s.clock.Since(start).Milliseconds(),
	)
	return res, errors.Join(errs...)
}

func (s *Service) refreshLocation(ctx context.Context, loc types.Location) (types.Snapshot, error) {
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}
	return s.fetchAndStore(ctx, loc.Latitude, loc.Longitude)
}

func (s *Service) countPublish(outcome string) {
	if s.metrics != nil {
		s.metrics.ConditionsPublished.WithLabelValues(outcome).Inc()
	}
}
