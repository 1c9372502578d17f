package models

import "time"

// FollowupRun records one dispatcher invocation for auditing. Skipped runs
// (outside the send window) are recorded too so the schedule is visible.
type FollowupRun struct {
	BaseModel
	RanAt       time.Time `json:"ran_at"`
	Skipped     bool      `json:"skipped"`
	SkipReason  string    `json:"skip_reason"`
	Hour        int       `json:"hour"`
	Processed   int       `json:"processed"`
	ResultsJSON string    `gorm:"type:text" json:"results_json"`
}
