package domain

import (
	"fmt"
	"sort"
)

// DefaultTopN is the ranking length shown by the dashboard.
const DefaultTopN = 5

// RankedThreat is one row of the threat ranking.
type RankedThreat struct {
	Position    int     `json:"position"` // 0-based rank, usable as a focus selection index
	ID          string  `json:"id"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Region      string  `json:"region"`
	FRP         float64 `json:"frp"`
	Confidence  string  `json:"confidence"`
	ThreatScore float64 `json:"threat_score"`
}

// HourBucket is one bar of the hourly histogram.
type HourBucket struct {
	Hour  int    `json:"hour"`
	Label string `json:"label"` // "HH:00"
	Count int    `json:"count"`
}

// RegionCount is one slice of the regional pie view.
type RegionCount struct {
	Region string `json:"region"`
	Count  int    `json:"count"`
}

// RegionDensity is one bar of the regional risk view.
type RegionDensity struct {
	Region  string  `json:"region"`
	Count   int     `json:"count"`
	Area    float64 `json:"area"`
	Density float64 `json:"density"`
}

// TopThreats returns the n detections with the highest threat score. Ties keep
// input order. n <= 0 or an empty input yields an empty ranking.
func TopThreats(detections []Detection, n int, g Grouping) []RankedThreat {
	if n <= 0 || len(detections) == 0 {
		return []RankedThreat{}
	}
	idx := make([]int, len(detections))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return detections[idx[a]].ThreatScore > detections[idx[b]].ThreatScore
	})

	n = min(n, len(idx))
	out := make([]RankedThreat, n)
	for pos := range n {
		d := detections[idx[pos]]
		out[pos] = RankedThreat{
			Position:    pos,
			ID:          d.ID,
			Latitude:    d.Latitude,
			Longitude:   d.Longitude,
			Region:      d.Region(g),
			FRP:         d.FRP,
			Confidence:  d.Confidence,
			ThreatScore: d.ThreatScore,
		}
	}
	return out
}

// HourLabel formats an hour bucket as "HH:00".
func HourLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// HourlyHistogram counts detections per hour of day, ascending by hour. By
// default hours with no detections are omitted; dense emits all 24 buckets.
func HourlyHistogram(detections []Detection, dense bool) []HourBucket {
	var counts [24]int
	for i := range detections {
		if h := detections[i].Hour; h >= 0 && h < 24 {
			counts[h]++
		}
	}
	out := make([]HourBucket, 0, 24)
	for h, c := range counts {
		if c == 0 && !dense {
			continue
		}
		out = append(out, HourBucket{Hour: h, Label: HourLabel(h), Count: c})
	}
	return out
}

// RegionCounts counts detections per region, sorted by count descending then
// region name. The counts sum to len(detections).
func RegionCounts(detections []Detection, g Grouping) []RegionCount {
	counts := countByRegion(detections, g)
	out := make([]RegionCount, 0, len(counts))
	for region, c := range counts {
		out = append(out, RegionCount{Region: region, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Region < out[j].Region
	})
	return out
}

// DensityOptions controls the regional density view.
type DensityOptions struct {
	Areas AreaTable
	// ExcludeFallback drops the Other and Unknown buckets, whose density is
	// computed against the default area rather than a real one.
	ExcludeFallback bool
}

// RegionDensities computes detections per unit reference area for every
// region, sorted by density descending then region name. Regions missing from
// the area table are divided by the table's default area.
func RegionDensities(detections []Detection, g Grouping, opts DensityOptions) []RegionDensity {
	counts := countByRegion(detections, g)
	out := make([]RegionDensity, 0, len(counts))
	for region, c := range counts {
		if opts.ExcludeFallback && (region == RegionOther || region == RegionUnknown) {
			continue
		}
		area := opts.Areas.AreaOf(region)
		out = append(out, RegionDensity{
			Region:  region,
			Count:   c,
			Area:    area,
			Density: float64(c) / area,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Density != out[j].Density {
			return out[i].Density > out[j].Density
		}
		return out[i].Region < out[j].Region
	})
	return out
}

func countByRegion(detections []Detection, g Grouping) map[string]int {
	counts := make(map[string]int)
	for i := range detections {
		counts[detections[i].Region(g)]++
	}
	return counts
}

// Summary holds the headline metrics for a filtered set.
type Summary struct {
	ActiveFires    int     `json:"active_fires"`
	TotalFires     int     `json:"total_fires"`
	AverageFRP     float64 `json:"average_frp"`
	MaxFRP         float64 `json:"max_frp"`
	HighConfidence int     `json:"high_confidence"`
}

// Summarize computes headline metrics for filtered out of total detections.
// An empty filtered set yields zero averages rather than NaN.
func Summarize(filtered []Detection, total int) Summary {
	s := Summary{ActiveFires: len(filtered), TotalFires: total}
	if len(filtered) == 0 {
		return s
	}
	var sum float64
	for i := range filtered {
		d := filtered[i]
		sum += d.FRP
		if i == 0 || d.FRP > s.MaxFRP {
			s.MaxFRP = d.FRP
		}
		if NormalizeConfidence(d.Confidence) == ConfidenceHigh {
			s.HighConfidence++
		}
	}
	s.AverageFRP = sum / float64(len(filtered))
	return s
}

// Bounds describes the control ranges a client needs to build filter inputs.
type Bounds struct {
	MaxFRP   float64  `json:"max_frp"`
	HourMin  int      `json:"hour_min"`
	HourMax  int      `json:"hour_max"`
	DayNight []string `json:"daynight"`
	Regions  []string `json:"regions"`
}

// FilterBounds derives control ranges from the full enriched set.
func FilterBounds(detections []Detection, g Grouping) Bounds {
	b := Bounds{
		HourMin:  0,
		HourMax:  23,
		DayNight: DayNightCodes(detections),
		Regions:  RegionLabels(detections, g),
	}
	for i := range detections {
		b.MaxFRP = max(b.MaxFRP, detections[i].FRP)
	}
	return b
}

// FramePoint is a detection's position and intensity within a time-lapse frame.
type FramePoint struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	FRP         float64 `json:"frp"`
	ThreatScore float64 `json:"threat_score"`
	Region      string  `json:"region"`
}

// Frame is one hour of the animated time-lapse map.
type Frame struct {
	Hour   int          `json:"hour"`
	Label  string       `json:"label"`
	Points []FramePoint `json:"points"`
}

// TimelapseFrames groups detections into hourly frames, ascending by hour.
// Hours without detections produce no frame; points keep input order.
func TimelapseFrames(detections []Detection, g Grouping) []Frame {
	var buckets [24][]FramePoint
	for i := range detections {
		d := detections[i]
		if d.Hour < 0 || d.Hour > 23 {
			continue
		}
		buckets[d.Hour] = append(buckets[d.Hour], FramePoint{
			Latitude:    d.Latitude,
			Longitude:   d.Longitude,
			FRP:         d.FRP,
			ThreatScore: d.ThreatScore,
			Region:      d.Region(g),
		})
	}
	out := make([]Frame, 0, 24)
	for h, pts := range buckets {
		if len(pts) == 0 {
			continue
		}
		out = append(out, Frame{Hour: h, Label: HourLabel(h), Points: pts})
	}
	return out
}
