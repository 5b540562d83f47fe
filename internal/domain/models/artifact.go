package models

import "time"

// ModelArtifact is the trained, versioned state of a per-symbol forecasting
// model. Owned by the lifecycle manager; at most one version is current per
// symbol, older versions are audit-only.
type ModelArtifact struct {
	Symbol     string    `json:"symbol"`
	Version    string    `json:"version"` // "v<unix-nano>"
	Weights    []byte    `json:"weights"` // serialized network state
	FinalLoss  float64   `json:"final_loss"`
	DataPoints int       `json:"data_points"` // training sequences used
	WindowFrom time.Time `json:"window_from"`
	WindowTo   time.Time `json:"window_to"`
	TrainedAt  time.Time `json:"trained_at"`
}

// JobStatus is the lifecycle state of a training job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether the status is an end state.
func (s JobStatus) Terminal() bool { return s == JobSucceeded || s == JobFailed }

// TrainingJob tracks one training run for a symbol. Jobs move
// pending -> running -> succeeded|failed and never re-enter pending.
type TrainingJob struct {
	ID         string     `json:"id"`
	Symbol     string     `json:"symbol"`
	Status     JobStatus  `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	FinalLoss  *float64   `json:"final_loss,omitempty"`
	DataPoints int        `json:"data_points,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// TrainingSummary is the train-request response contract.
type TrainingSummary struct {
	Symbol     string   `json:"symbol"`
	Status     string   `json:"status"`
	Message    string   `json:"message"`
	FinalLoss  *float64 `json:"final_loss,omitempty"`
	DataPoints int      `json:"data_points,omitempty"`
}
