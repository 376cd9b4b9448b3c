package domain

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultGeocodeConcurrency bounds in-flight geocoder calls when no limit is given.
const DefaultGeocodeConcurrency = 8

// EnrichWithGeolocation labels every detection with a country code and
// continent. If geocoder is nil the detections are returned unchanged.
// Lookups that fail, return nothing, or return a code outside the continent
// table degrade that row to RegionOther; the batch is never aborted and the
// result always has the input's length and order.
func EnrichWithGeolocation(ctx context.Context, detections []Detection, geocoder Geocoder, concurrency int, logger *slog.Logger) []Detection {
	out := make([]Detection, len(detections))
	copy(out, detections)
	if geocoder == nil || len(out) == 0 {
		return out
	}
	if concurrency <= 0 {
		concurrency = DefaultGeocodeConcurrency
	}

	codes := make([]string, len(out))
	errs := make([]error, len(out))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range out {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			codes[i], errs[i] = geocoder.CountryCode(gctx, out[i].Latitude, out[i].Longitude)
			return nil
		})
	}
	_ = g.Wait() // workers record errors per row and never fail the group

	var failed, unmapped int
	var firstErr error
	for i := range out {
		code := strings.ToUpper(strings.TrimSpace(codes[i]))
		switch {
		case errs[i] != nil:
			failed++
			if firstErr == nil {
				firstErr = errs[i]
			}
			out[i].CountryCode = RegionOther
			out[i].Continent = RegionOther
		case !IsKnownCountry(code):
			unmapped++
			out[i].CountryCode = RegionOther
			out[i].Continent = RegionOther
		default:
			out[i].CountryCode = code
			out[i].Continent = ContinentOf(code)
		}
	}

	if failed > 0 {
		logger.Warn("reverse geocoding failed for some detections",
			"failed", failed,
			"total", len(out),
			"error", firstErr,
		)
	}
	if unmapped > 0 {
		logger.Debug("detections outside known countries", "count", unmapped)
	}
	return out
}
