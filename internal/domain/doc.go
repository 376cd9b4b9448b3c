// Package domain models NASA FIRMS active fire detection data and the
// enrichment, filtering, and aggregation applied to it.
//
// # Data Source
//
// Detections come from the FIRMS area API, which returns one CSV row per
// thermal anomaly observed by a satellite pass:
//
//	https://firms.modaps.eosdis.nasa.gov/api/area/csv/<MAP_KEY>/<SOURCE>/<AREA>/<DAYS>
//
// SOURCE selects the sensor product (e.g. VIIRS_SNPP_NRT), AREA is "world" or a
// "west,south,east,north" bounding box, and DAYS is the lookback window (1–10).
//
// # FIRMS Data Conventions
//
// Acquisition time:
//
//	HHMM in 24-hour UTC notation without a colon, transmitted as an integer:
//	130 = 01:30, 5 = 00:05, 1400 = 14:00. Leading zeros are dropped upstream,
//	so the hour is the first two digits of the zero-padded 4-digit form.
//	Integer division would agree for valid input but hides malformed values,
//	so the padded form is used. See [HourOf].
//
// Confidence (VIIRS):
//
//	Single-letter code: "l" low, "n" nominal, "h" high. MODIS products use a
//	0–100 integer instead; those values are treated as unknown.
//
// Day/night flag:
//
//	"D" daytime pass, "N" nighttime pass.
//
// Fire radiative power (frp):
//
//	Megawatts, non-negative. The intensity measure behind the threat score.
//
// # Threat Score
//
// threat_score = frp × risk_factor, where the risk factor is derived from
// confidence (low 1.0, nominal 1.2, high 1.5, anything else 1.0). Since every
// factor is at least 1.0, a detection's threat score is never below its frp.
//
// # Regions
//
// Regions are either ISO 3166-1 alpha-2 country codes or continent names,
// depending on the configured [Grouping]. Country codes come from a reverse
// geocoder; lookups that fail or return an unknown code resolve to "Other".
// When geolocation is disabled every detection falls in the "Unknown" region.
//
// Regional density divides a region's detection count by its reference area
// (million km²). Regions missing from the area table use the table's default
// area, 1 unless overridden, so they are not silently dropped. See [AreaTable].
//
// # ID Generation
//
// Detection IDs are deterministic SHA-256 hashes of
// lat|lon|acq_date|acq_time|satellite so republishing the same snapshot
// produces the same message keys. See [generateID].
package domain
