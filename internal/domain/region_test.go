package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContinentOf(t *testing.T) {
	tests := map[string]string{
		"US":  ContinentNorthAmerica,
		"us":  ContinentNorthAmerica,
		"BR":  ContinentSouthAmerica,
		"CD":  ContinentAfrica,
		"RU":  ContinentEurope,
		"ID":  ContinentAsia,
		"AU":  ContinentOceania,
		"AQ":  ContinentAntarctica,
		"":    RegionOther,
		"ZZ":  RegionOther,
		"USA": RegionOther,
	}
	for code, want := range tests {
		assert.Equal(t, want, ContinentOf(code), "code=%q", code)
	}
}

func TestContinentMembers_NoDuplicates(t *testing.T) {
	seen := map[string]string{}
	for continent, codes := range continentMembers {
		for _, code := range codes {
			prev, dup := seen[code]
			require.False(t, dup, "%s listed under %s and %s", code, prev, continent)
			require.Len(t, code, 2)
			seen[code] = continent
		}
	}
}

func TestParseGrouping(t *testing.T) {
	g, err := ParseGrouping("Country")
	require.NoError(t, err)
	assert.Equal(t, GroupByCountry, g)

	g, err = ParseGrouping("continent")
	require.NoError(t, err)
	assert.Equal(t, GroupByContinent, g)

	_, err = ParseGrouping("state")
	assert.Error(t, err)
}

func TestDetectionRegion(t *testing.T) {
	d := Detection{CountryCode: "FR", Continent: ContinentEurope}
	assert.Equal(t, ContinentEurope, d.Region(GroupByContinent))
	assert.Equal(t, "FR", d.Region(GroupByCountry))
	assert.Equal(t, RegionUnknown, Detection{}.Region(GroupByCountry))
}

func TestAreaTable(t *testing.T) {
	tbl := DefaultAreaTable()

	assert.InDelta(t, 44.58, tbl.AreaOf(ContinentAsia), 1e-9)
	assert.InDelta(t, DefaultRegionArea, tbl.AreaOf(RegionOther), 1e-9)

	zero := AreaTable{}
	assert.InDelta(t, DefaultRegionArea, zero.AreaOf("anything"), 1e-9)

	bad := AreaTable{Areas: map[string]float64{"X": 0}, DefaultArea: 2}
	assert.InDelta(t, 2.0, bad.AreaOf("X"), 1e-9)
}

func TestAreaTable_Merge(t *testing.T) {
	base := DefaultAreaTable()

	merged := base.Merge(AreaTable{Areas: map[string]float64{"US": 9.83, ContinentEurope: 10.0}, DefaultArea: 5})

	assert.InDelta(t, 9.83, merged.AreaOf("US"), 1e-9)
	assert.InDelta(t, 10.0, merged.AreaOf(ContinentEurope), 1e-9)
	assert.InDelta(t, 5.0, merged.AreaOf("Zzz"), 1e-9)
	// Base table is untouched.
	assert.InDelta(t, 10.18, base.AreaOf(ContinentEurope), 1e-9)
	assert.InDelta(t, DefaultRegionArea, base.AreaOf("Zzz"), 1e-9)
}
