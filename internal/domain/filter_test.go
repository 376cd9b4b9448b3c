package domain

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDetections() []Detection {
	raws := []RawDetection{
		{Latitude: 38.5, Longitude: -120.2, AcqTime: 130, FRP: 10, Confidence: "h", DayNight: Night},
		{Latitude: -15.1, Longitude: -47.9, AcqTime: 1305, FRP: 2.5, Confidence: "n", DayNight: Day},
		{Latitude: -25.3, Longitude: 133.8, AcqTime: 415, FRP: 60, Confidence: "l", DayNight: Day},
		{Latitude: 61.2, Longitude: 24.9, AcqTime: 2310, FRP: 0.8, Confidence: "n", DayNight: Night},
		{Latitude: 7.4, Longitude: 3.9, AcqTime: 1305, FRP: 33.3, Confidence: "h", DayNight: Day},
	}
	continents := []string{ContinentNorthAmerica, ContinentSouthAmerica, ContinentOceania, ContinentEurope, ContinentAfrica}
	countries := []string{"US", "BR", "AU", "FI", "NG"}

	out := Enrich(raws)
	for i := range out {
		out[i].Continent = continents[i]
		out[i].CountryCode = countries[i]
	}
	return out
}

func TestDefaultFilter_IsIdentity(t *testing.T) {
	ds := sampleDetections()

	f := DefaultFilter(ds, GroupByContinent)
	got := f.Apply(ds)

	if diff := cmp.Diff(ds, got); diff != "" {
		t.Fatalf("identity filter changed the set (-want +got):\n%s", diff)
	}
}

func TestDefaultFilter_CountryGrouping(t *testing.T) {
	ds := sampleDetections()

	f := DefaultFilter(ds, GroupByCountry)

	assert.Equal(t, []string{"AU", "BR", "FI", "NG", "US"}, f.Regions)
	assert.Len(t, f.Apply(ds), len(ds))
}

func TestFilter_Predicates(t *testing.T) {
	ds := sampleDetections()
	base := DefaultFilter(ds, GroupByContinent)

	t.Run("min frp", func(t *testing.T) {
		f := base
		f.MinFRP = 10
		got := f.Apply(ds)
		require.Len(t, got, 3)
		for _, d := range got {
			assert.GreaterOrEqual(t, d.FRP, 10.0)
		}
	})

	t.Run("hour range inclusive", func(t *testing.T) {
		f := base
		f.HourMin, f.HourMax = 1, 13
		got := f.Apply(ds)
		require.Len(t, got, 4)
		assert.Equal(t, 1, got[0].Hour)
		assert.Equal(t, 13, got[3].Hour)
	})

	t.Run("day only", func(t *testing.T) {
		f := base
		f.DayNight = []string{Day}
		for _, d := range f.Apply(ds) {
			assert.Equal(t, Day, d.DayNight)
		}
	})

	t.Run("region subset", func(t *testing.T) {
		f := base
		f.Regions = []string{ContinentEurope, ContinentAfrica}
		got := f.Apply(ds)
		require.Len(t, got, 2)
		assert.Equal(t, ContinentEurope, got[0].Continent)
		assert.Equal(t, ContinentAfrica, got[1].Continent)
	})

	t.Run("empty region set matches nothing", func(t *testing.T) {
		f := base
		f.Regions = []string{}
		assert.Empty(t, f.Apply(ds))
	})

	t.Run("empty day/night set matches nothing", func(t *testing.T) {
		f := base
		f.DayNight = nil
		assert.Empty(t, f.Apply(ds))
	})

	t.Run("conjunction", func(t *testing.T) {
		f := base
		f.MinFRP = 5
		f.DayNight = []string{Day}
		f.HourMin, f.HourMax = 10, 23
		got := f.Apply(ds)
		require.Len(t, got, 1)
		assert.InDelta(t, 33.3, got[0].FRP, 1e-9)
	})
}

func TestFilter_Idempotent(t *testing.T) {
	ds := sampleDetections()
	f := DefaultFilter(ds, GroupByContinent)
	f.MinFRP = 2
	f.DayNight = []string{Day}

	once := f.Apply(ds)
	twice := f.Apply(once)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("filter is not idempotent (-once +twice):\n%s", diff)
	}
}

func TestFilter_MonotonicInMinFRP(t *testing.T) {
	ds := sampleDetections()
	f := DefaultFilter(ds, GroupByContinent)

	prev := len(ds) + 1
	for _, floor := range []float64{0, 0.5, 1, 2.5, 10, 33.3, 60, 61} {
		f.MinFRP = floor
		n := len(f.Apply(ds))
		assert.LessOrEqual(t, n, prev, "min_frp=%g", floor)
		prev = n
	}
	assert.Zero(t, prev)
}

func TestFilter_EmptyInput(t *testing.T) {
	f := DefaultFilter(nil, GroupByContinent)
	got := f.Apply(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	ds := sampleDetections()
	snapshot := append([]Detection(nil), ds...)

	f := DefaultFilter(ds, GroupByContinent)
	f.MinFRP = 50
	_ = f.Apply(ds)

	assert.Equal(t, snapshot, ds)
}

func TestFilter_Validate(t *testing.T) {
	valid := Filter{HourMin: 0, HourMax: 23}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name string
		f    Filter
		msg  string
	}{
		{"negative frp", Filter{MinFRP: -1, HourMax: 23}, "min_frp"},
		{"NaN frp", Filter{MinFRP: math.NaN(), HourMax: 23}, "finite"},
		{"infinite frp", Filter{MinFRP: math.Inf(1), HourMax: 23}, "finite"},
		{"negative infinite frp", Filter{MinFRP: math.Inf(-1), HourMax: 23}, "finite"},
		{"hour min out of range", Filter{HourMin: -1, HourMax: 23}, "hour_min"},
		{"hour max out of range", Filter{HourMin: 0, HourMax: 24}, "hour_max"},
		{"inverted range", Filter{HourMin: 12, HourMax: 3}, "after"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.f.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestDayNightCodes_IncludesUnexpectedCodes(t *testing.T) {
	ds := []Detection{EnrichDetection(RawDetection{DayNight: "X"})}
	assert.Equal(t, []string{Day, Night, "X"}, DayNightCodes(ds))
	assert.Len(t, DefaultFilter(ds, GroupByContinent).Apply(ds), 1)
}
