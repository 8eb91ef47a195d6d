package models

import "time"

// CountryAggregate is the per-country rollup read by the query endpoints.
// It is rebuilt wholesale after each successful ingestion run and treated as
// a materialized, eventually-consistent view - never partially updated.
type CountryAggregate struct {
	CountryCode string `json:"country_code" badgerhold:"key"`
	// ProjectCount is the total number of ingested projects for the country.
	ProjectCount int `json:"project_count"`
	// HighConfidenceCount counts projects whose parse confidence met the
	// configured threshold.
	HighConfidenceCount int `json:"high_confidence_count"`
	// CentroidLat/CentroidLon hold a rough geographic centroid when one is
	// known for the country; HasCentroid distinguishes a real (0,0) from none.
	CentroidLat float64 `json:"centroid_lat,omitempty"`
	CentroidLon float64 `json:"centroid_lon,omitempty"`
	HasCentroid bool    `json:"has_centroid"`

	RebuiltAt time.Time `json:"rebuilt_at"`
}
