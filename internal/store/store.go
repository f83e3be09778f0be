package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fairline/fairsweep/internal/dataset"
)

type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCanceled  JobStatus = "canceled"
	StatusTimedOut  JobStatus = "timed_out"
)

// Job is one sweep-evaluation request: a dataset, a fairness constraint,
// and a grid size, plus the computed results once the runner has processed
// it.
type Job struct {
	ID        uuid.UUID `json:"job_id"`
	Name      string    `json:"name"`
	Requester string    `json:"requester"`

	// Sweep parameters
	Constraint         string  `json:"constraint"`
	GridSize           int     `json:"grid_size"`
	EvalFraction       float64 `json:"eval_fraction"`
	Seed               int64   `json:"seed"`
	Standardize        bool    `json:"standardize"`
	IncludePredictions bool    `json:"include_predictions"`

	Dataset *dataset.Dataset `json:"dataset,omitempty"`

	// State
	Status JobStatus `json:"status"`
	Error  string    `json:"error,omitempty"`

	// Timestamps
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Result *JobResult `json:"result,omitempty"`
}

// ModelOutcome is the evaluation of one swept model in the error-disparity
// plane.
type ModelOutcome struct {
	ModelID        string             `json:"model_id"`
	Error          float64            `json:"error"`
	Disparity      float64            `json:"disparity"`
	SelectionRates map[string]float64 `json:"selection_rates,omitempty"`
	OnFrontier     bool               `json:"on_frontier"`
}

// JobResult holds everything computed for a completed job. Candidates keep
// sweep order; Predictions is populated only when the job asked for it.
type JobResult struct {
	Candidates   []ModelOutcome   `json:"candidates"`
	FrontierSize int              `json:"frontier_size"`
	Predictions  map[string][]int `json:"predictions,omitempty"`
}

type JobFilter struct {
	Status    *JobStatus
	Requester string
	Limit     int
	Offset    int
}

type JobStats struct {
	TotalPending   int     `json:"total_pending"`
	TotalRunning   int     `json:"total_running"`
	TotalCompleted int     `json:"total_completed"`
	TotalFailed    int     `json:"total_failed"`
	AvgDurationMs  float64 `json:"avg_duration_ms"`
}

type Store interface {
	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*Job, error)
	UpdateJob(ctx context.Context, job *Job) error
	// CancelJob flips a pending job to canceled in a single conditional
	// update. It reports false when the job was already claimed or does not
	// exist, so callers never clobber runner progress.
	CancelJob(ctx context.Context, id uuid.UUID) (bool, error)
	GetPendingJobs(ctx context.Context) ([]*Job, error)
	GetRunningJobs(ctx context.Context) ([]*Job, error)
	GetJobStats(ctx context.Context) (*JobStats, error)
}
