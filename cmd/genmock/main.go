// Command genmock generates a deterministic FIRMS-style CSV fixture and the
// enriched JSON fixture derived from it. Enrichment runs through the actual
// domain package so the JSON matches what the service would serve.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -csv-out data/mock/firms_viirs_240801.csv \
//	  -json-out data/mock/firms_viirs_240801_enriched.json \
//	  -n 500 -seed 42
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/jszwec/csvutil"
)

// hotspot is a fire-prone area points are scattered around.
type hotspot struct {
	lat, lon float64
	spread   float64 // degrees
	country  string
	weight   int
}

var hotspots = []hotspot{
	{lat: 38.9, lon: -121.0, spread: 2.0, country: "US", weight: 6},
	{lat: 55.0, lon: -115.0, spread: 4.0, country: "CA", weight: 4},
	{lat: -9.5, lon: -60.0, spread: 5.0, country: "BR", weight: 10},
	{lat: -17.0, lon: -63.0, spread: 3.0, country: "BO", weight: 4},
	{lat: -11.0, lon: 20.0, spread: 4.0, country: "AO", weight: 9},
	{lat: -8.0, lon: 25.0, spread: 4.0, country: "CD", weight: 8},
	{lat: 9.0, lon: 8.0, spread: 3.0, country: "NG", weight: 4},
	{lat: 62.0, lon: 129.0, spread: 5.0, country: "RU", weight: 5},
	{lat: 22.0, lon: 80.0, spread: 4.0, country: "IN", weight: 4},
	{lat: 0.5, lon: 113.0, spread: 3.0, country: "ID", weight: 3},
	{lat: -15.0, lon: 132.0, spread: 5.0, country: "AU", weight: 5},
	{lat: 39.0, lon: 22.0, spread: 2.0, country: "GR", weight: 2},
}

var confidences = []string{domain.ConfidenceLow, domain.ConfidenceNominal, domain.ConfidenceNominal, domain.ConfidenceHigh}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvOut := flag.String("csv-out", "", "output path for the raw FIRMS CSV fixture")
	jsonOut := flag.String("json-out", "", "output path for the enriched JSON fixture")
	n := flag.Int("n", 500, "number of detections to generate")
	seed := flag.Uint64("seed", 42, "random seed")
	date := flag.String("date", "2024-08-01", "acquisition date (YYYY-MM-DD)")
	flag.Parse()

	if *csvOut == "" || *jsonOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv-out, -json-out")
	}
	day, err := time.Parse(time.DateOnly, *date)
	if err != nil {
		return fmt.Errorf("invalid -date: %w", err)
	}

	rng := rand.New(rand.NewPCG(*seed, *seed))
	raws, codes := generate(rng, *n, *date)

	// Set a fixed clock for reproducible ProcessedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(day.Add(30 * time.Hour)))
	defer domain.SetClock(nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	enriched := domain.EnrichWithGeolocation(context.Background(), domain.Enrich(raws), codes, 4, logger)

	if err := writeCSV(*csvOut, raws); err != nil {
		return fmt.Errorf("writing CSV fixture: %w", err)
	}
	log.Printf("wrote CSV fixture: %s (%d rows)", *csvOut, len(raws))

	if err := writeJSON(*jsonOut, enriched); err != nil {
		return fmt.Errorf("writing JSON fixture: %w", err)
	}
	log.Printf("wrote JSON fixture: %s", *jsonOut)

	printStats(enriched)
	return nil
}

// pointCodes answers geocoder lookups from the hotspot each point was drawn from.
type pointCodes map[domain.Geo]string

func (p pointCodes) CountryCode(_ context.Context, lat, lon float64) (string, error) {
	return p[domain.Geo{Lat: lat, Lon: lon}], nil
}

func generate(rng *rand.Rand, n int, date string) ([]domain.RawDetection, pointCodes) {
	total := 0
	for _, h := range hotspots {
		total += h.weight
	}

	raws := make([]domain.RawDetection, 0, n)
	codes := make(pointCodes, n)
	for range n {
		h := pick(rng, total)
		lat := round(clamp(h.lat+rng.NormFloat64()*h.spread/2, -90, 90), 5)
		lon := round(clamp(h.lon+rng.NormFloat64()*h.spread/2, -180, 180), 5)

		// Local solar hour drives the day/night flag.
		hour := rng.IntN(24)
		local := math.Mod(float64(hour)+lon/15+24, 24)
		daynight := domain.Night
		if local >= 6 && local < 18 {
			daynight = domain.Day
		}

		// FRP is heavy-tailed: most detections are small, a few are large.
		frp := round(math.Exp(rng.NormFloat64()*1.2+1.5), 2)

		raws = append(raws, domain.RawDetection{
			Latitude:   lat,
			Longitude:  lon,
			BrightTI4:  round(300+rng.Float64()*67, 2),
			Scan:       round(0.32+rng.Float64()*0.4, 2),
			Track:      round(0.36+rng.Float64()*0.3, 2),
			AcqDate:    date,
			AcqTime:    hour*100 + rng.IntN(60),
			Satellite:  "N",
			Instrument: "VIIRS",
			Confidence: confidences[rng.IntN(len(confidences))],
			Version:    "2.0NRT",
			BrightTI5:  round(270+rng.Float64()*40, 2),
			FRP:        frp,
			DayNight:   daynight,
		})
		codes[domain.Geo{Lat: lat, Lon: lon}] = h.country
	}
	return raws, codes
}

func pick(rng *rand.Rand, total int) hotspot {
	r := rng.IntN(total)
	for _, h := range hotspots {
		if r < h.weight {
			return h
		}
		r -= h.weight
	}
	return hotspots[len(hotspots)-1]
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func writeCSV(path string, raws []domain.RawDetection) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := csvutil.NewEncoder(w).Encode(raws); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

type regionCount struct {
	region string
	count  int
}

func printStats(ds []domain.Detection) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	summary := domain.Summarize(ds, len(ds))
	fmt.Printf("Total: %d\n", summary.TotalFires)
	fmt.Printf("Average FRP: %.2f, max FRP: %.2f\n", summary.AverageFRP, summary.MaxFRP)
	fmt.Printf("High confidence: %d\n", summary.HighConfidence)

	var night int
	for i := range ds {
		if ds[i].DayNight == domain.Night {
			night++
		}
	}
	fmt.Printf("Day: %d, night: %d\n", len(ds)-night, night)

	counts := map[string]int{}
	for i := range ds {
		counts[ds[i].Region(domain.GroupByContinent)]++
	}
	rc := make([]regionCount, 0, len(counts))
	for r, c := range counts {
		rc = append(rc, regionCount{r, c})
	}
	sort.Slice(rc, func(i, j int) bool { return rc[i].count > rc[j].count })
	fmt.Printf("Continents (%d): ", len(rc))
	for _, r := range rc {
		fmt.Printf("%s=%d ", r.region, r.count)
	}
	fmt.Println()

	fmt.Println("\nTop threats:")
	for _, t := range domain.TopThreats(ds, domain.DefaultTopN, domain.GroupByContinent) {
		fmt.Printf("  #%d %s (%.4f, %.4f) frp=%.2f conf=%s threat=%.2f\n",
			t.Position, t.Region, t.Latitude, t.Longitude, t.FRP, t.Confidence, t.ThreatScore)
	}
}
