package main

import (
	"path/filepath"
	"testing"

	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureRows(t *testing.T) []domain.RawDetection {
	t.Helper()
	raws, skipped, err := loadCSV(filepath.Join("..", "..", "internal", "pipeline", "testdata", "firms_viirs_sample.csv"))
	require.NoError(t, err)
	require.Zero(t, skipped)
	return raws
}

func TestPhasesPassOnFixture(t *testing.T) {
	raws := fixtureRows(t)
	ds := domain.Enrich(raws)

	for _, p := range []*phase{
		validateDecode(raws, 0),
		validateEnrichment(raws, ds),
		validateAggregates(ds, domain.DefaultTopN),
		validateFixtureParity(ds, ds),
	} {
		assert.True(t, p.passed(), "%s: %v", p.name, p.errors)
	}
}

func TestValidateDecode_FlagsBadRows(t *testing.T) {
	p := validateDecode([]domain.RawDetection{
		{Latitude: 91, Longitude: 0, AcqTime: 100, FRP: 1},
		{Latitude: 0, Longitude: 0, AcqTime: 2400, FRP: -1},
	}, 2)

	assert.False(t, p.passed())
	assert.Len(t, p.errors, 4)
}

func TestValidateEnrichment_CardinalityMismatch(t *testing.T) {
	raws := fixtureRows(t)
	ds := domain.Enrich(raws)

	p := validateEnrichment(raws, ds[1:])
	require.False(t, p.passed())
	assert.Contains(t, p.errors[0], "cardinality")
}

func TestValidateEnrichment_ThreatBelowFRP(t *testing.T) {
	raws := fixtureRows(t)
	ds := domain.Enrich(raws)
	ds[0].ThreatScore = ds[0].FRP / 2

	p := validateEnrichment(raws, ds)
	require.False(t, p.passed())
	assert.Contains(t, p.errors[0], "below frp")
}

func TestValidateFixtureParity_DetectsDrift(t *testing.T) {
	ds := domain.Enrich(fixtureRows(t))
	fixture := make([]domain.Detection, len(ds))
	copy(fixture, ds)
	fixture[3].Hour = 7

	p := validateFixtureParity(fixture, ds)
	require.False(t, p.passed())
	assert.Contains(t, p.errors[0], "hour")
}
