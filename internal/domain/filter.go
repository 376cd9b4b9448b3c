package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Filter is the conjunction of user-selected predicates applied to an
// enriched detection set. DayNight and Regions are literal membership sets:
// an empty set matches nothing.
type Filter struct {
	MinFRP   float64
	HourMin  int
	HourMax  int
	DayNight []string
	Regions  []string
	Grouping Grouping
}

// DefaultFilter returns the identity filter for the given detections: no
// intensity floor, every hour, every pass type, and every region present.
func DefaultFilter(detections []Detection, g Grouping) Filter {
	return Filter{
		MinFRP:   0,
		HourMin:  0,
		HourMax:  23,
		DayNight: DayNightCodes(detections),
		Regions:  RegionLabels(detections, g),
		Grouping: g,
	}
}

// Validate rejects parameters a user control could not produce.
func (f Filter) Validate() error {
	var errs []error
	switch {
	case math.IsNaN(f.MinFRP) || math.IsInf(f.MinFRP, 0):
		errs = append(errs, fmt.Errorf("min_frp must be a finite number, got %g", f.MinFRP))
	case f.MinFRP < 0:
		errs = append(errs, fmt.Errorf("min_frp must be >= 0, got %g", f.MinFRP))
	}
	if f.HourMin < 0 || f.HourMin > 23 {
		errs = append(errs, fmt.Errorf("hour_min must be within 0-23, got %d", f.HourMin))
	}
	if f.HourMax < 0 || f.HourMax > 23 {
		errs = append(errs, fmt.Errorf("hour_max must be within 0-23, got %d", f.HourMax))
	}
	if f.HourMin > f.HourMax {
		errs = append(errs, fmt.Errorf("hour_min %d is after hour_max %d", f.HourMin, f.HourMax))
	}
	return errors.Join(errs...)
}

// Apply returns the detections matching every predicate, in input order.
// The input slice is not modified.
func (f Filter) Apply(detections []Detection) []Detection {
	m := f.matcher()
	out := make([]Detection, 0, len(detections))
	for i := range detections {
		if m.matches(detections[i]) {
			out = append(out, detections[i])
		}
	}
	return out
}

type matcher struct {
	f        Filter
	dayNight map[string]struct{}
	regions  map[string]struct{}
}

func (f Filter) matcher() matcher {
	return matcher{f: f, dayNight: toSet(f.DayNight), regions: toSet(f.Regions)}
}

func (m matcher) matches(d Detection) bool {
	if d.FRP < m.f.MinFRP {
		return false
	}
	if d.Hour < m.f.HourMin || d.Hour > m.f.HourMax {
		return false
	}
	if _, ok := m.dayNight[d.DayNight]; !ok {
		return false
	}
	_, ok := m.regions[d.Region(m.f.Grouping)]
	return ok
}

// DayNightCodes returns D and N plus any other pass codes present, sorted.
func DayNightCodes(detections []Detection) []string {
	seen := map[string]struct{}{Day: {}, Night: {}}
	for i := range detections {
		seen[detections[i].DayNight] = struct{}{}
	}
	return sortedKeys(seen)
}

// RegionLabels returns the distinct region labels present, sorted.
func RegionLabels(detections []Detection, g Grouping) []string {
	seen := make(map[string]struct{})
	for i := range detections {
		seen[detections[i].Region(g)] = struct{}{}
	}
	return sortedKeys(seen)
}

func toSet(values []string) map[string]struct{} {
	s := make(map[string]struct{}, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
