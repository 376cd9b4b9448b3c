package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// maxAcqTime is the largest valid HHMM acquisition time (23:59).
const maxAcqTime = 2359

// DefaultRiskFactor applies to confidence codes outside the risk table.
const DefaultRiskFactor = 1.0

// riskFactors maps normalized confidence codes to threat multipliers.
var riskFactors = map[string]float64{
	ConfidenceLow:     1.0,
	ConfidenceNominal: 1.2,
	ConfidenceHigh:    1.5,
}

// confidenceAliases maps spelled-out confidence names to their codes.
var confidenceAliases = map[string]string{
	"low":     ConfidenceLow,
	"nominal": ConfidenceNominal,
	"high":    ConfidenceHigh,
}

// Enrich derives hour, risk factor, threat score, and ID for every raw row.
// The result has the same length and order as the input; empty in, empty out.
func Enrich(raws []RawDetection) []Detection {
	out := make([]Detection, len(raws))
	for i := range raws {
		out[i] = EnrichDetection(raws[i])
	}
	return out
}

// EnrichDetection derives the computed fields for a single raw row.
func EnrichDetection(raw RawDetection) Detection {
	risk := RiskFactor(raw.Confidence)
	return Detection{
		ID:           generateID(raw),
		RawDetection: raw,
		Hour:         HourOf(raw.AcqTime),
		RiskFactor:   risk,
		ThreatScore:  raw.FRP * risk,
		ProcessedAt:  clock.Now(),
	}
}

// HourOf returns the UTC hour (0–23) of an HHMM acquisition time by taking the
// first two digits of its zero-padded 4-digit form: 5 → "0005" → 0,
// 130 → "0130" → 1, 2359 → "2359" → 23. Out-of-range values are clamped into
// [0, 2359] first.
func HourOf(acqTime int) int {
	acqTime = max(0, min(acqTime, maxAcqTime))
	padded := fmt.Sprintf("%04d", acqTime)
	// Clamping guarantees two decimal digits no greater than 23.
	hour, _ := strconv.Atoi(padded[:2])
	return hour
}

// RiskFactor maps a confidence code to its threat multiplier: low 1.0,
// nominal 1.2, high 1.5. Unknown, empty, and numeric (MODIS) values return
// DefaultRiskFactor.
func RiskFactor(confidence string) float64 {
	code := NormalizeConfidence(confidence)
	if f, ok := riskFactors[code]; ok {
		return f
	}
	return DefaultRiskFactor
}

// NormalizeConfidence lower-cases a confidence value and maps spelled-out
// names ("high") to their single-letter code ("h"). Unrecognized values are
// returned trimmed and lower-cased.
func NormalizeConfidence(confidence string) string {
	c := strings.ToLower(strings.TrimSpace(confidence))
	if code, ok := confidenceAliases[c]; ok {
		return code
	}
	return c
}

// generateID produces a deterministic ID from the detection's key fields.
func generateID(raw RawDetection) string {
	input := fmt.Sprintf("%.5f|%.5f|%s|%04d|%s", raw.Latitude, raw.Longitude, raw.AcqDate, raw.AcqTime, raw.Satellite)
	hash := sha256.Sum256([]byte(input))
	return "fire-" + hex.EncodeToString(hash[:8])
}
