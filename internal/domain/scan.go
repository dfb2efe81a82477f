package domain

import (
	"encoding/json"
	"time"
)

// ScanOutcome classifies how a single asset attempt ended.
type ScanOutcome string

const (
	ScanSucceeded ScanOutcome = "success"
	ScanFailed    ScanOutcome = "failed"
)

// AssetResult is the per-asset outcome of one scan pass. Every catalog entry
// produces exactly one result.
type AssetResult struct {
	Asset       Asset
	Outcome     ScanOutcome
	Reason      string
	Opportunity *Opportunity
	VenueErrors []VenueError
}

// ScanReport aggregates one orchestration pass over the catalog.
type ScanReport struct {
	ID              string
	Opportunities   []Opportunity
	TotalAssets     int
	SuccessfulScans int
	FailedScans     int
	Duration        time.Duration
	CompletedAt     time.Time
}

type scanReportJSON struct {
	Opportunities   []Opportunity `json:"opportunities"`
	TotalScanned    int           `json:"totalScanned"`
	SuccessfulScans int           `json:"successfulScans"`
	FailedScans     int           `json:"failedScans"`
	ScanDuration    int64         `json:"scanDuration"`
	Timestamp       int64         `json:"timestamp"`
}

// MarshalJSON renders the report wire shape. Opportunities is never null.
func (r ScanReport) MarshalJSON() ([]byte, error) {
	opps := r.Opportunities
	if opps == nil {
		opps = []Opportunity{}
	}
	return json.Marshal(scanReportJSON{
		Opportunities:   opps,
		TotalScanned:    r.TotalAssets,
		SuccessfulScans: r.SuccessfulScans,
		FailedScans:     r.FailedScans,
		ScanDuration:    r.Duration.Milliseconds(),
		Timestamp:       unixMillis(r.CompletedAt),
	})
}

// UnmarshalJSON accepts the report wire shape.
func (r *ScanReport) UnmarshalJSON(data []byte) error {
	var w scanReportJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = ScanReport{
		Opportunities:   w.Opportunities,
		TotalAssets:     w.TotalScanned,
		SuccessfulScans: w.SuccessfulScans,
		FailedScans:     w.FailedScans,
		Duration:        time.Duration(w.ScanDuration) * time.Millisecond,
	}
	if w.Timestamp > 0 {
		r.CompletedAt = time.UnixMilli(w.Timestamp).UTC()
	}
	return nil
}

// EmptyReport is the zeroed report returned to callers when a scan could not
// run at all.
func EmptyReport(now time.Time) ScanReport {
	return ScanReport{Opportunities: []Opportunity{}, CompletedAt: now}
}
