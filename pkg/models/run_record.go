package models

import "time"

// RunRecord captures the outcome of one post-build run for the history store.
type RunRecord struct {
	ID          string    `json:"id"`
	JobName     string    `json:"job_name"     validate:"required"`
	BuildNumber int       `json:"build_number"`
	BuildResult Result    `json:"build_result,omitempty"` // result the build finished with
	FinalResult Result    `json:"final_result,omitempty"` // result after the outcome policy ran
	Succeeded   bool      `json:"succeeded"`               // boolean handed back to the host
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Duration returns the wall time the run took.
func (r *RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
