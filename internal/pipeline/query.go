package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
)

// ErrInvalidQuery is returned for filter parameters a dashboard control could
// not produce.
var ErrInvalidQuery = errors.New("invalid query")

// Query carries user selections. A nil field keeps its default: the identity
// filter for the current snapshot and the service's view options. A non-nil
// empty DayNight or Regions selects nothing.
type Query struct {
	MinFRP   *float64
	HourMin  *int
	HourMax  *int
	DayNight []string
	Regions  []string

	Grouping     *domain.Grouping
	TopN         *int
	Dense        *bool
	ExcludeOther *bool
	FocusIndex   *int
}

// View is every dashboard view computed from one snapshot and one filter.
type View struct {
	SnapshotID string    `json:"snapshot_id"`
	FetchedAt  time.Time `json:"fetched_at"`
	// NoData is set when the snapshot itself is empty, as opposed to a
	// filter that matched nothing.
	NoData bool `json:"no_data"`

	Filter     domain.Filter          `json:"-"`
	Bounds     domain.Bounds          `json:"bounds"`
	Summary    domain.Summary         `json:"summary"`
	Detections []domain.Detection     `json:"-"`
	TopThreats []domain.RankedThreat  `json:"top_threats"`
	Hourly     []domain.HourBucket    `json:"hourly"`
	Regions    []domain.RegionCount   `json:"regions"`
	Density    []domain.RegionDensity `json:"density"`
	Timelapse  []domain.Frame         `json:"-"`
	Focus      domain.View            `json:"focus"`
}

// Query filters the current snapshot and computes every view on the result.
// All views observe the same snapshot.
func (s *Service) Query(ctx context.Context, q Query) (View, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return View{}, err
	}
	return s.Evaluate(snap, q)
}

// Evaluate computes the views for q against a given snapshot.
func (s *Service) Evaluate(snap *Snapshot, q Query) (View, error) {
	grouping := s.opts.Grouping
	if q.Grouping != nil {
		grouping = *q.Grouping
	}
	all := snap.Detections

	filter := q.Resolve(all, grouping)
	if err := filter.Validate(); err != nil {
		return View{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	topN := s.opts.TopN
	if q.TopN != nil {
		if *q.TopN < 0 {
			return View{}, fmt.Errorf("%w: n must be >= 0, got %d", ErrInvalidQuery, *q.TopN)
		}
		topN = *q.TopN
	}
	dense := s.opts.HistogramDense
	if q.Dense != nil {
		dense = *q.Dense
	}
	density := s.opts.Density
	if q.ExcludeOther != nil {
		density.ExcludeFallback = *q.ExcludeOther
	}

	filtered := filter.Apply(all)
	ranking := domain.TopThreats(filtered, topN, grouping)

	return View{
		SnapshotID: snap.ID,
		FetchedAt:  snap.FetchedAt,
		NoData:     len(all) == 0,
		Filter:     filter,
		Bounds:     domain.FilterBounds(all, grouping),
		Summary:    domain.Summarize(filtered, len(all)),
		Detections: filtered,
		TopThreats: ranking,
		Hourly:     domain.HourlyHistogram(filtered, dense),
		Regions:    domain.RegionCounts(filtered, grouping),
		Density:    domain.RegionDensities(filtered, grouping, density),
		Timelapse:  domain.TimelapseFrames(filtered, grouping),
		Focus:      domain.Focus(ranking, q.FocusIndex),
	}, nil
}

// Resolve builds the concrete filter: fields left nil take the identity
// value derived from detections.
func (q Query) Resolve(detections []domain.Detection, g domain.Grouping) domain.Filter {
	f := domain.DefaultFilter(detections, g)
	if q.MinFRP != nil {
		f.MinFRP = *q.MinFRP
	}
	if q.HourMin != nil {
		f.HourMin = *q.HourMin
	}
	if q.HourMax != nil {
		f.HourMax = *q.HourMax
	}
	if q.DayNight != nil {
		f.DayNight = q.DayNight
	}
	if q.Regions != nil {
		f.Regions = q.Regions
	}
	return f
}
