package models

import "time"

// Project is one ingested catalog record. Rows are created or overwritten on
// every ingestion run via upsert keyed by ProjectID; this subsystem never
// deletes them (stale rows persist until a later run overwrites them).
type Project struct {
	// ProjectID is the partner platform's identifier and the unique key.
	ProjectID string `json:"project_id" badgerhold:"key"`
	// NameRaw is the free-text project name exactly as returned by the API.
	NameRaw string `json:"name_raw"`
	// HubID is the hub the project was found under.
	HubID string `json:"hub_id"`

	// Fields derived from NameRaw by the name parser.
	CountryName     string  `json:"country_name"`
	CountryCode     string  `json:"country_code,omitempty"` // ISO-ish 2-letter code, empty when unrecognized
	UnitCode        string  `json:"unit_code,omitempty"`
	UnitNumber      *int    `json:"unit_number,omitempty"` // set when UnitCode is purely numeric
	City            string  `json:"city,omitempty"`
	ParseConfidence float64 `json:"parse_confidence"`

	IngestedAt time.Time `json:"ingested_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
