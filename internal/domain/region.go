package domain

import "strings"

// Continent names.
const (
	ContinentAfrica       = "Africa"
	ContinentAntarctica   = "Antarctica"
	ContinentAsia         = "Asia"
	ContinentEurope       = "Europe"
	ContinentNorthAmerica = "North America"
	ContinentOceania      = "Oceania"
	ContinentSouthAmerica = "South America"
)

// continentMembers lists ISO 3166-1 alpha-2 codes per continent. Transcontinental
// countries follow their conventional assignment (RU and TR: Europe and Asia
// respectively; EG: Africa).
var continentMembers = map[string][]string{
	ContinentAfrica: {
		"AO", "BF", "BI", "BJ", "BW", "CD", "CF", "CG", "CI", "CM", "CV", "DJ", "DZ", "EG", "EH",
		"ER", "ET", "GA", "GH", "GM", "GN", "GQ", "GW", "KE", "KM", "LR", "LS", "LY", "MA", "MG",
		"ML", "MR", "MU", "MW", "MZ", "NA", "NE", "NG", "RE", "RW", "SC", "SD", "SH", "SL", "SN",
		"SO", "SS", "ST", "SZ", "TD", "TG", "TN", "TZ", "UG", "YT", "ZA", "ZM", "ZW",
	},
	ContinentAntarctica: {"AQ", "BV", "GS", "HM", "TF"},
	ContinentAsia: {
		"AE", "AF", "AM", "AZ", "BD", "BH", "BN", "BT", "CC", "CN", "CX", "CY", "GE", "HK", "ID",
		"IL", "IN", "IO", "IQ", "IR", "JO", "JP", "KG", "KH", "KP", "KR", "KW", "KZ", "LA", "LB",
		"LK", "MM", "MN", "MO", "MV", "MY", "NP", "OM", "PH", "PK", "PS", "QA", "SA", "SG", "SY",
		"TH", "TJ", "TL", "TM", "TR", "TW", "UZ", "VN", "YE",
	},
	ContinentEurope: {
		"AD", "AL", "AT", "AX", "BA", "BE", "BG", "BY", "CH", "CZ", "DE", "DK", "EE", "ES", "FI",
		"FO", "FR", "GB", "GG", "GI", "GR", "HR", "HU", "IE", "IM", "IS", "IT", "JE", "LI", "LT",
		"LU", "LV", "MC", "MD", "ME", "MK", "MT", "NL", "NO", "PL", "PT", "RO", "RS", "RU", "SE",
		"SI", "SJ", "SK", "SM", "UA", "VA", "XK",
	},
	ContinentNorthAmerica: {
		"AG", "AI", "AW", "BB", "BL", "BM", "BQ", "BS", "BZ", "CA", "CR", "CU", "CW", "DM", "DO",
		"GD", "GL", "GP", "GT", "HN", "HT", "JM", "KN", "KY", "LC", "MF", "MQ", "MS", "MX", "NI",
		"PA", "PM", "PR", "SV", "SX", "TC", "TT", "UM", "US", "VC", "VG", "VI",
	},
	ContinentOceania: {
		"AS", "AU", "CK", "FJ", "FM", "GU", "KI", "MH", "MP", "NC", "NF", "NR", "NU", "NZ", "PF",
		"PG", "PN", "PW", "SB", "TK", "TO", "TV", "VU", "WF", "WS",
	},
	ContinentSouthAmerica: {"AR", "BO", "BR", "CL", "CO", "EC", "FK", "GF", "GY", "PE", "PY", "SR", "UY", "VE"},
}

var countryContinent = func() map[string]string {
	m := make(map[string]string, 256)
	for continent, codes := range continentMembers {
		for _, code := range codes {
			m[code] = continent
		}
	}
	return m
}()

// ContinentOf maps a 2-letter country code to its continent. Unknown or
// malformed codes return RegionOther.
func ContinentOf(countryCode string) string {
	if c, ok := countryContinent[strings.ToUpper(strings.TrimSpace(countryCode))]; ok {
		return c
	}
	return RegionOther
}

// IsKnownCountry reports whether the code appears in the continent table.
func IsKnownCountry(countryCode string) bool {
	_, ok := countryContinent[strings.ToUpper(strings.TrimSpace(countryCode))]
	return ok
}

// DefaultRegionArea is the fallback denominator for regions missing from an
// AreaTable.
const DefaultRegionArea = 1.0

// continentAreas holds reference land areas in million km².
var continentAreas = map[string]float64{
	ContinentAfrica:       30.37,
	ContinentAntarctica:   14.2,
	ContinentAsia:         44.58,
	ContinentEurope:       10.18,
	ContinentNorthAmerica: 24.71,
	ContinentOceania:      8.53,
	ContinentSouthAmerica: 17.84,
}

// AreaTable maps region labels to reference areas for density rollups.
// Regions absent from Areas (or with a non-positive area) use DefaultArea.
type AreaTable struct {
	Areas       map[string]float64 `yaml:"areas"`
	DefaultArea float64            `yaml:"default_area"`
}

// DefaultAreaTable returns the continent area table with DefaultRegionArea as
// the fallback.
func DefaultAreaTable() AreaTable {
	areas := make(map[string]float64, len(continentAreas))
	for k, v := range continentAreas {
		areas[k] = v
	}
	return AreaTable{Areas: areas, DefaultArea: DefaultRegionArea}
}

// AreaOf returns the region's reference area, falling back to DefaultArea.
func (t AreaTable) AreaOf(region string) float64 {
	if a, ok := t.Areas[region]; ok && a > 0 {
		return a
	}
	if t.DefaultArea > 0 {
		return t.DefaultArea
	}
	return DefaultRegionArea
}

// Merge returns a copy of t with the given areas added or replaced.
func (t AreaTable) Merge(overrides AreaTable) AreaTable {
	merged := AreaTable{Areas: make(map[string]float64, len(t.Areas)+len(overrides.Areas)), DefaultArea: t.DefaultArea}
	for k, v := range t.Areas {
		merged.Areas[k] = v
	}
	for k, v := range overrides.Areas {
		merged.Areas[k] = v
	}
	if overrides.DefaultArea > 0 {
		merged.DefaultArea = overrides.DefaultArea
	}
	return merged
}
