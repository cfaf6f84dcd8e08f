package model

import "time"

// AllPeriodsKey is the deduplication key of a full recompute.
const AllPeriodsKey = "all"

// RecomputeJob asks for persisted rankings to be recomputed. A job covers
// one month, or every month in chronological order when All is set.
type RecomputeJob struct {
	ID         string    `json:"id"`
	Period     Period    `json:"period,omitempty"`
	All        bool      `json:"all,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Key identifies the scope of j. Pending jobs with equal keys are redundant.
func (j RecomputeJob) Key() string {
	if j.All || j.Period == "" || j.Period.IsConsolidated() {
		return AllPeriodsKey
	}
	return j.Period.Month()
}

// JobReceipt acknowledges a recompute request.
type JobReceipt struct {
	JobID string `json:"job_id,omitempty"`
	Scope string `json:"scope"`
	// Pending is set when an equivalent job was already queued.
	Pending bool `json:"pending"`
}
