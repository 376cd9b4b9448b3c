package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
	"github.com/couchcryptid/wildfire-risk-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Fetcher retrieves the current raw detections. Failures are reported as an
// empty result, never an error.
type Fetcher interface {
	Fetch(ctx context.Context) []domain.RawDetection
}

// Enricher turns raw detections into enriched, geolocated detections.
type Enricher interface {
	Enrich(ctx context.Context, raws []domain.RawDetection) []domain.Detection
}

// Publisher receives every freshly enriched snapshot.
type Publisher interface {
	Publish(ctx context.Context, detections []domain.Detection) error
}

// Snapshot is one enriched fetch. It is immutable once published.
type Snapshot struct {
	ID         string
	FetchedAt  time.Time
	Detections []domain.Detection
}

// Options configures the Service.
type Options struct {
	// TTL is how long a snapshot is served before the next read refetches.
	TTL time.Duration
	// EnrichTimeout bounds enrichment within one refresh. Rows the geocoder
	// has not resolved by then are labelled Other. Zero means no bound.
	EnrichTimeout time.Duration
	// Defaults applied to queries that do not override them.
	Grouping       domain.Grouping
	TopN           int
	HistogramDense bool
	Density        domain.DensityOptions
	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

// Service owns the memoized detection snapshot and answers dashboard queries
// against it.
type Service struct {
	fetcher   Fetcher
	enricher  Enricher
	publisher Publisher
	opts      Options
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics

	// refreshing holds a token while a refresh runs.
	refreshing chan struct{}
	current    atomic.Pointer[Snapshot]
}

// New creates a Service. publisher may be nil.
func New(f Fetcher, e Enricher, p Publisher, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Service {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if opts.TopN <= 0 {
		opts.TopN = domain.DefaultTopN
	}
	if opts.Grouping == "" {
		opts.Grouping = domain.GroupByContinent
	}
	if opts.Density.Areas.Areas == nil {
		opts.Density.Areas = domain.DefaultAreaTable()
	}
	return &Service{
		fetcher:    f,
		enricher:   e,
		publisher:  p,
		opts:       opts,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
		refreshing: make(chan struct{}, 1),
	}
}

// CheckReadiness returns nil once a snapshot has been loaded, even an empty one.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.current.Load() == nil {
		return errors.New("no detection snapshot has been loaded yet")
	}
	return nil
}

// Snapshot returns the current snapshot, refreshing it first when it is
// missing or older than the TTL. Within the TTL no collaborator is called.
// While another caller is refreshing, a stale snapshot is returned as is;
// without one, the caller waits for the refresh or for ctx to end.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := s.current.Load()
	if s.fresh(snap) {
		s.metrics.SnapshotCache.WithLabelValues("memory", "hit").Inc()
		return snap, nil
	}

	if snap != nil {
		select {
		case s.refreshing <- struct{}{}:
		default:
			s.metrics.SnapshotCache.WithLabelValues("memory", "stale").Inc()
			return snap, nil
		}
	} else if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	// Another caller may have refreshed while we waited.
	if snap := s.current.Load(); s.fresh(snap) {
		s.metrics.SnapshotCache.WithLabelValues("memory", "hit").Inc()
		return snap, nil
	}
	s.metrics.SnapshotCache.WithLabelValues("memory", "miss").Inc()
	return s.refreshLocked(ctx)
}

// Refresh fetches, enriches and publishes a new snapshot unconditionally.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()
	return s.refreshLocked(ctx)
}

func (s *Service) acquire(ctx context.Context) error {
	select {
	case s.refreshing <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) release() { <-s.refreshing }

func (s *Service) refreshLocked(ctx context.Context) (*Snapshot, error) {
	start := s.clock.Now()

	raws := s.fetcher.Fetch(ctx)
	detections := s.enrich(ctx, raws)

	// A cancelled refresh must not replace a good snapshot with a partial one.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		ID:         uuid.NewString(),
		FetchedAt:  s.clock.Now(),
		Detections: detections,
	}
	s.current.Store(snap)

	s.metrics.DetectionsLoaded.Set(float64(len(detections)))
	s.metrics.RefreshDuration.Observe(s.clock.Since(start).Seconds())
	s.logger.Info("detection snapshot refreshed",
		"snapshot_id", snap.ID,
		"raw", len(raws),
		"detections", len(detections),
		"duration", s.clock.Since(start),
	)

	if s.publisher != nil && len(detections) > 0 {
		if err := s.publisher.Publish(ctx, detections); err != nil {
			s.logger.Error("publish detections failed", "snapshot_id", snap.ID, "error", err)
		}
	}
	return snap, nil
}

func (s *Service) enrich(ctx context.Context, raws []domain.RawDetection) []domain.Detection {
	if s.opts.EnrichTimeout <= 0 {
		return s.enricher.Enrich(ctx, raws)
	}
	enrichCtx, cancel := clockwork.WithTimeout(ctx, s.clock, s.opts.EnrichTimeout)
	defer cancel()
	return s.enricher.Enrich(enrichCtx, raws)
}

func (s *Service) fresh(snap *Snapshot) bool {
	return snap != nil && s.clock.Since(snap.FetchedAt) < s.opts.TTL
}

// Run refreshes immediately and then once per TTL until the context is
// cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("refresh loop started", "ttl", s.opts.TTL)
	s.metrics.ServiceRunning.Set(1)
	defer s.metrics.ServiceRunning.Set(0)

	if _, err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("initial refresh failed", "error", err)
	}

	ticker := s.clock.NewTicker(s.opts.TTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("refresh loop stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			if _, err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("refresh failed", "error", err)
			}
		}
	}
}
