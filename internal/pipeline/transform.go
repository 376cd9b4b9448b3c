package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
)

// DetectionEnricher implements Enricher using the domain enrichment functions
// with optional geolocation.
type DetectionEnricher struct {
	geocoder    domain.Geocoder
	concurrency int
	logger      *slog.Logger
}

// NewEnricher creates a DetectionEnricher. Pass a nil geocoder to disable
// geolocation; detections then report the Unknown region.
func NewEnricher(geocoder domain.Geocoder, concurrency int, logger *slog.Logger) *DetectionEnricher {
	return &DetectionEnricher{
		geocoder:    geocoder,
		concurrency: concurrency,
		logger:      logger,
	}
}

func (e *DetectionEnricher) Enrich(ctx context.Context, raws []domain.RawDetection) []domain.Detection {
	detections := domain.Enrich(raws)
	return domain.EnrichWithGeolocation(ctx, detections, e.geocoder, e.concurrency, e.logger)
}
