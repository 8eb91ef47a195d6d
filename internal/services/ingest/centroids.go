package ingest

// countryCentroids maps ISO codes to a representative map coordinate for the
// per-country rollup. Countries without an entry still aggregate; the UI just
// has nothing to pin.
var countryCentroids = map[string][2]float64{
	"AU": {-25.2744, 133.7751},
	"AT": {47.5162, 14.5501},
	"BE": {50.5039, 4.4699},
	"BR": {-14.2350, -51.9253},
	"CA": {56.1304, -106.3468},
	"CH": {46.8182, 8.2275},
	"CL": {-35.6751, -71.5430},
	"CN": {35.8617, 104.1954},
	"CZ": {49.8175, 15.4730},
	"DE": {51.1657, 10.4515},
	"DK": {56.2639, 9.5018},
	"EE": {58.5953, 25.0136},
	"ES": {40.4637, -3.7492},
	"FI": {61.9241, 25.7482},
	"FR": {46.2276, 2.2137},
	"GB": {55.3781, -3.4360},
	"HU": {47.1625, 19.5033},
	"IE": {53.4129, -8.2439},
	"IN": {20.5937, 78.9629},
	"IT": {41.8719, 12.5674},
	"JP": {36.2048, 138.2529},
	"KR": {35.9078, 127.7669},
	"LT": {55.1694, 23.8813},
	"LV": {56.8796, 24.6032},
	"MX": {23.6345, -102.5528},
	"NL": {52.1326, 5.2913},
	"NO": {60.4720, 8.4689},
	"NZ": {-40.9006, 174.8860},
	"PL": {51.9194, 19.1451},
	"PT": {39.3999, -8.2245},
	"RO": {45.9432, 24.9668},
	"SE": {60.1282, 18.6435},
	"SG": {1.3521, 103.8198},
	"SK": {48.6690, 19.6990},
	"US": {37.0902, -95.7129},
	"ZA": {-30.5595, 22.9375},
}
