package events

type JobCreatedEvent struct {
	JobID      string `json:"job_id"`
	Name       string `json:"name,omitempty"`
	Requester  string `json:"requester,omitempty"`
	Constraint string `json:"constraint"`
	GridSize   int    `json:"grid_size"`
	Rows       int    `json:"rows"`
}

type JobStartedEvent struct {
	JobID string `json:"job_id"`
}

type JobCompletedEvent struct {
	JobID        string  `json:"job_id"`
	Models       int     `json:"models"`
	FrontierSize int     `json:"frontier_size"`
	BestError    float64 `json:"best_error"`
	MinDisparity float64 `json:"min_disparity"`
	DurationMs   int64   `json:"duration_ms"`
}

type JobCanceledEvent struct {
	JobID string `json:"job_id"`
}

type JobFailedEvent struct {
	JobID string `json:"job_id"`
	Error string `json:"error"`
}

type JobTimeoutEvent struct {
	JobID      string `json:"job_id"`
	RunningFor string `json:"running_for"`
}
