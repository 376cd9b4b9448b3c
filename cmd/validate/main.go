// Command validate checks a FIRMS CSV file against the invariants the service
// relies on: every row decodes, enrichment preserves cardinality and order,
// hours stay within the day, threat never falls below FRP, rollups partition
// the set, and the threat ranking is ordered. When an enriched JSON fixture is
// given, it is also checked for parity with a fresh enrichment.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -csv data/mock/firms_viirs_240801.csv \
//	  -json data/mock/firms_viirs_240801_enriched.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/couchcryptid/wildfire-risk-service/internal/adapter/firms"
	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
)

const epsilon = 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "", "path to a FIRMS area CSV file")
	jsonPath := flag.String("json", "", "optional path to the enriched JSON fixture generated from -csv")
	topN := flag.Int("top", domain.DefaultTopN, "ranking length to check")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*csvPath, *jsonPath, *topN); code != 0 {
		os.Exit(code)
	}
}

func run(csvPath, jsonPath string, topN int) int {
	fmt.Println("=== FIRMS Detection Integrity Validation ===")
	fmt.Println()

	raws, skipped, err := loadCSV(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load CSV: %v\n", err)
		return 1
	}
	detections := domain.Enrich(raws)

	phases := []*phase{
		validateDecode(raws, skipped),
		validateEnrichment(raws, detections),
		validateAggregates(detections, topN),
	}
	if jsonPath != "" {
		fixture, err := loadJSON[domain.Detection](jsonPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load JSON: %v\n", err)
			return 1
		}
		phases = append(phases, validateFixtureParity(fixture, detections))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d decoded, %d skipped\n", len(raws), skipped)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadCSV(path string) ([]domain.RawDetection, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return firms.Decode(f)
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ── Phases ──

func validateDecode(raws []domain.RawDetection, skipped int) *phase {
	p := &phase{name: "Decode"}
	if skipped > 0 {
		p.errorf("%d rows had malformed cells and were skipped", skipped)
	}
	if len(raws) == 0 {
		p.errorf("no detections decoded")
	}
	for i := range raws {
		r := raws[i]
		if r.Latitude < -90 || r.Latitude > 90 {
			p.errorf("row %d: latitude %g out of range", i, r.Latitude)
		}
		if r.Longitude < -180 || r.Longitude > 180 {
			p.errorf("row %d: longitude %g out of range", i, r.Longitude)
		}
		if r.FRP < 0 {
			p.errorf("row %d: negative frp %g", i, r.FRP)
		}
		if r.AcqTime < 0 || r.AcqTime > 2359 {
			p.errorf("row %d: acq_time %d outside 0000-2359", i, r.AcqTime)
		}
	}
	return p
}

func validateEnrichment(raws []domain.RawDetection, ds []domain.Detection) *phase {
	p := &phase{name: "Enrichment"}
	if len(ds) != len(raws) {
		p.errorf("cardinality: %d raw rows, %d enriched", len(raws), len(ds))
		return p
	}
	ids := make(map[string]int, len(ds))
	for i := range ds {
		d := ds[i]
		if d.Latitude != raws[i].Latitude || d.Longitude != raws[i].Longitude {
			p.errorf("row %d: order not preserved", i)
		}
		if d.Hour < 0 || d.Hour > 23 {
			p.errorf("row %d: hour %d outside 0-23", i, d.Hour)
		}
		if want := domain.RiskFactor(d.Confidence); math.Abs(d.RiskFactor-want) > epsilon {
			p.errorf("row %d: risk factor %g, want %g for confidence %q", i, d.RiskFactor, want, d.Confidence)
		}
		if d.ThreatScore+epsilon < d.FRP {
			p.errorf("row %d: threat %g below frp %g", i, d.ThreatScore, d.FRP)
		}
		if prev, dup := ids[d.ID]; dup {
			p.errorf("row %d: duplicate id %s (first seen at row %d)", i, d.ID, prev)
		}
		ids[d.ID] = i
	}
	return p
}

func validateAggregates(ds []domain.Detection, topN int) *phase {
	p := &phase{name: "Aggregates"}
	g := domain.GroupByContinent

	if got := len(domain.DefaultFilter(ds, g).Apply(ds)); got != len(ds) {
		p.errorf("default filter kept %d of %d detections", got, len(ds))
	}

	var hourly int
	for _, b := range domain.HourlyHistogram(ds, true) {
		hourly += b.Count
	}
	if hourly != len(ds) {
		p.errorf("hourly histogram sums to %d, want %d", hourly, len(ds))
	}

	var regional int
	for _, r := range domain.RegionCounts(ds, g) {
		regional += r.Count
	}
	if regional != len(ds) {
		p.errorf("region counts sum to %d, want %d", regional, len(ds))
	}

	density := domain.RegionDensities(ds, g, domain.DensityOptions{Areas: domain.DefaultAreaTable()})
	for i := 1; i < len(density); i++ {
		if density[i].Density > density[i-1].Density {
			p.errorf("density not descending at %d: %g after %g", i, density[i].Density, density[i-1].Density)
		}
	}

	ranking := domain.TopThreats(ds, topN, g)
	if want := min(topN, len(ds)); len(ranking) != want {
		p.errorf("ranking has %d rows, want %d", len(ranking), want)
	}
	for i := 1; i < len(ranking); i++ {
		if ranking[i].ThreatScore > ranking[i-1].ThreatScore {
			p.errorf("ranking not descending at %d: %g after %g", i, ranking[i].ThreatScore, ranking[i-1].ThreatScore)
		}
	}
	var maxThreat float64
	for i := range ds {
		maxThreat = max(maxThreat, ds[i].ThreatScore)
	}
	if len(ranking) > 0 && math.Abs(ranking[0].ThreatScore-maxThreat) > epsilon {
		p.errorf("ranking leader %g is not the maximum threat %g", ranking[0].ThreatScore, maxThreat)
	}

	s := domain.Summarize(ds, len(ds))
	if s.ActiveFires != len(ds) || s.TotalFires != len(ds) {
		p.errorf("summary counts %d/%d, want %d", s.ActiveFires, s.TotalFires, len(ds))
	}
	return p
}

func validateFixtureParity(fixture, ds []domain.Detection) *phase {
	p := &phase{name: "Fixture parity"}
	if len(fixture) != len(ds) {
		p.errorf("fixture has %d detections, CSV enriches to %d", len(fixture), len(ds))
		return p
	}
	for i := range ds {
		want, got := ds[i], fixture[i]
		if got.ID != want.ID {
			p.errorf("row %d: id %s, want %s", i, got.ID, want.ID)
		}
		if got.Hour != want.Hour {
			p.errorf("row %d: hour %d, want %d", i, got.Hour, want.Hour)
		}
		if math.Abs(got.ThreatScore-want.ThreatScore) > epsilon {
			p.errorf("row %d: threat %g, want %g", i, got.ThreatScore, want.ThreatScore)
		}
		if got.CountryCode != "" && got.Continent != domain.ContinentOf(got.CountryCode) {
			p.errorf("row %d: continent %q does not match country %q", i, got.Continent, got.CountryCode)
		}
	}
	return p
}
