package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHourOf(t *testing.T) {
	tests := []struct {
		acqTime int
		want    int
	}{
		{0, 0},
		{5, 0},
		{59, 0},
		{100, 1},
		{130, 1},
		{959, 9},
		{1300, 13},
		{1400, 14},
		{2359, 23},
		// Out of range values are clamped.
		{-40, 0},
		{2400, 23},
		{99999, 23},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HourOf(tt.acqTime), "acq_time=%d", tt.acqTime)
	}
}

func TestHourOf_MatchesHourDivisionForValidTimes(t *testing.T) {
	for hh := 0; hh < 24; hh++ {
		for mm := 0; mm < 60; mm++ {
			acq := hh*100 + mm
			require.Equal(t, acq/100, HourOf(acq), "acq_time=%04d", acq)
		}
	}
}

func TestRiskFactor(t *testing.T) {
	tests := []struct {
		confidence string
		want       float64
	}{
		{"l", 1.0},
		{"n", 1.2},
		{"h", 1.5},
		{"H", 1.5},
		{" n ", 1.2},
		{"high", 1.5},
		{"Nominal", 1.2},
		{"low", 1.0},
		{"", DefaultRiskFactor},
		{"x", DefaultRiskFactor},
		{"85", DefaultRiskFactor}, // MODIS numeric confidence
	}

	for _, tt := range tests {
		t.Run(tt.confidence, func(t *testing.T) {
			assert.InDelta(t, tt.want, RiskFactor(tt.confidence), 1e-9)
		})
	}
}

func TestEnrichDetection_HighConfidenceEarlyMorning(t *testing.T) {
	d := EnrichDetection(RawDetection{FRP: 10, Confidence: "h", AcqTime: 130})

	assert.Equal(t, 1, d.Hour)
	assert.InDelta(t, 1.5, d.RiskFactor, 1e-9)
	assert.InDelta(t, 15.0, d.ThreatScore, 1e-9)
}

func TestEnrichDetection_ThreatScoreNeverBelowFRP(t *testing.T) {
	for _, conf := range []string{"l", "n", "h", "", "?", "100"} {
		for _, frp := range []float64{0, 0.4, 3.7, 120, 4500.25} {
			d := EnrichDetection(RawDetection{FRP: frp, Confidence: conf})
			assert.GreaterOrEqual(t, d.ThreatScore, d.FRP, "conf=%q frp=%g", conf, frp)
			assert.InDelta(t, frp*RiskFactor(conf), d.ThreatScore, 1e-9)
		}
	}
}

func TestEnrichDetection_ProcessedAtUsesClock(t *testing.T) {
	fixed := time.Date(2025, time.August, 14, 6, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { SetClock(nil) })

	d := EnrichDetection(RawDetection{AcqTime: 1405})
	assert.Equal(t, fixed, d.ProcessedAt)
}

func TestEnrich_PreservesCardinalityAndOrder(t *testing.T) {
	raws := []RawDetection{
		{Latitude: -12.5, Longitude: 131.2, AcqTime: 420, FRP: 5.1, Confidence: "n", DayNight: "D"},
		{Latitude: 38.1, Longitude: -120.4, AcqTime: 2110, FRP: 44.0, Confidence: "h", DayNight: "N"},
		{Latitude: 38.1, Longitude: -120.4, AcqTime: 2110, FRP: 44.0, Confidence: "h", DayNight: "N"},
	}

	out := Enrich(raws)

	require.Len(t, out, len(raws))
	for i := range raws {
		assert.Equal(t, raws[i], out[i].RawDetection)
	}
	assert.Equal(t, 4, out[0].Hour)
	assert.Equal(t, 21, out[1].Hour)
}

func TestEnrich_Empty(t *testing.T) {
	assert.Empty(t, Enrich(nil))
	assert.Empty(t, Enrich([]RawDetection{}))
	assert.NotNil(t, Enrich(nil))
}

func TestGenerateID_Deterministic(t *testing.T) {
	raw := RawDetection{Latitude: 38.12345, Longitude: -120.5, AcqDate: "2025-08-14", AcqTime: 930, Satellite: "N"}

	id1 := generateID(raw)
	id2 := generateID(raw)
	assert.Equal(t, id1, id2)
	assert.True(t, strings.HasPrefix(id1, "fire-"))

	raw.AcqTime = 931
	assert.NotEqual(t, id1, generateID(raw))
}
