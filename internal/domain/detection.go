package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Confidence codes used by VIIRS products.
const (
	ConfidenceLow     = "l"
	ConfidenceNominal = "n"
	ConfidenceHigh    = "h"
)

// Day/night pass codes.
const (
	Day   = "D"
	Night = "N"
)

// Region sentinels.
const (
	// RegionOther labels detections whose country lookup failed or returned a
	// code outside the continent table.
	RegionOther = "Other"
	// RegionUnknown labels detections when geolocation is disabled.
	RegionUnknown = "Unknown"
)

// RawDetection is one row of the FIRMS area CSV. Columns not present in a
// product (e.g. bright_ti4 for MODIS) decode to zero values.
type RawDetection struct {
	Latitude   float64 `csv:"latitude" json:"latitude"`
	Longitude  float64 `csv:"longitude" json:"longitude"`
	BrightTI4  float64 `csv:"bright_ti4,omitempty" json:"bright_ti4,omitempty"`
	Scan       float64 `csv:"scan,omitempty" json:"scan,omitempty"`
	Track      float64 `csv:"track,omitempty" json:"track,omitempty"`
	AcqDate    string  `csv:"acq_date" json:"acq_date"`
	AcqTime    int     `csv:"acq_time" json:"acq_time"` // HHMM without colon, e.g. 130 = 01:30
	Satellite  string  `csv:"satellite" json:"satellite,omitempty"`
	Instrument string  `csv:"instrument" json:"instrument,omitempty"`
	Confidence string  `csv:"confidence" json:"confidence"`
	Version    string  `csv:"version" json:"version,omitempty"`
	BrightTI5  float64 `csv:"bright_ti5,omitempty" json:"bright_ti5,omitempty"`
	FRP        float64 `csv:"frp" json:"frp"`
	DayNight   string  `csv:"daynight" json:"daynight"`
}

// Validate checks the row against the limits every detection must satisfy:
// finite coordinates on the globe and a finite, non-negative FRP.
func (r RawDetection) Validate() error {
	var errs []error
	if math.IsNaN(r.Latitude) || r.Latitude < -90 || r.Latitude > 90 {
		errs = append(errs, fmt.Errorf("latitude %g outside [-90, 90]", r.Latitude))
	}
	if math.IsNaN(r.Longitude) || r.Longitude < -180 || r.Longitude > 180 {
		errs = append(errs, fmt.Errorf("longitude %g outside [-180, 180]", r.Longitude))
	}
	if math.IsNaN(r.FRP) || math.IsInf(r.FRP, 0) || r.FRP < 0 {
		errs = append(errs, fmt.Errorf("frp %g must be finite and >= 0", r.FRP))
	}
	return errors.Join(errs...)
}

// Detection is a RawDetection after enrichment.
type Detection struct {
	ID string `csv:"id" json:"id"`
	RawDetection
	Hour        int     `csv:"hour" json:"hour"`
	RiskFactor  float64 `csv:"risk_factor" json:"risk_factor"`
	ThreatScore float64 `csv:"threat_score" json:"threat_score"`
	// Geolocation enrichment fields. Empty when geolocation is disabled.
	CountryCode string `csv:"country_code" json:"country_code,omitempty"`
	Continent   string `csv:"continent" json:"continent,omitempty"`

	ProcessedAt time.Time `csv:"-" json:"processed_at"`
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geo returns the detection's coordinates.
func (d Detection) Geo() Geo {
	return Geo{Lat: d.Latitude, Lon: d.Longitude}
}

// Grouping selects the region key used by filters and rollups.
type Grouping string

const (
	GroupByContinent Grouping = "continent"
	GroupByCountry   Grouping = "country"
)

// ParseGrouping validates a grouping name.
func ParseGrouping(s string) (Grouping, error) {
	switch g := Grouping(strings.ToLower(strings.TrimSpace(s))); g {
	case GroupByContinent, GroupByCountry:
		return g, nil
	default:
		return "", fmt.Errorf("unknown region grouping %q", s)
	}
}

// Region returns the detection's region label under the given grouping.
// Detections that never went through geolocation report RegionUnknown.
func (d Detection) Region(g Grouping) string {
	var label string
	if g == GroupByCountry {
		label = d.CountryCode
	} else {
		label = d.Continent
	}
	if label == "" {
		return RegionUnknown
	}
	return label
}
