package task

import "time"

// Record is one task row. OwnerID carries the raw owner id on ingestion and the
// owner display name after Filter.
type Record struct {
	OwnerID      string    `json:"owner_id"`
	Category     string    `json:"category"`
	ActivityDate time.Time `json:"activity_date"`
	CreatedDate  time.Time `json:"created_date"`
	DurationDays int       `json:"duration_of_task"`
	SLA          *SLA      `json:"sla,omitempty"`
}

// SLA holds the derived SLA fields. A nil SLA on a Record means its category has no
// SLA mapping and the record takes no part in binning or aggregation.
type SLA struct {
	Days     int    `json:"sla_days"`
	OverDays int    `json:"over_sla_days"`
	Bin      string `json:"over_sla_bin,omitempty"`
}

// Binned reports whether the record has an SLA and a bin label.
func (r Record) Binned() bool {
	return r.SLA != nil && r.SLA.Bin != ""
}
