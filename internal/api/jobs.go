package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fairline/fairsweep/internal/config"
	"github.com/fairline/fairsweep/internal/dataset"
	"github.com/fairline/fairsweep/internal/events"
	"github.com/fairline/fairsweep/internal/store"
)

type JobsHandler struct {
	store  store.Store
	events events.Client
	cfg    *config.Config
}

func NewJobsHandler(s store.Store, ev events.Client, cfg *config.Config) *JobsHandler {
	return &JobsHandler{store: s, events: ev, cfg: cfg}
}

type CreateJobRequest struct {
	Name               string          `json:"name,omitempty"`
	Constraint         string          `json:"constraint,omitempty"`
	GridSize           int             `json:"grid_size,omitempty"`
	EvalFraction       float64         `json:"eval_fraction,omitempty"`
	Seed               int64           `json:"seed,omitempty"`
	Standardize        bool            `json:"standardize,omitempty"`
	IncludePredictions bool            `json:"include_predictions,omitempty"`
	Dataset            dataset.Dataset `json:"dataset"`
}

func (h *JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Constraint == "" {
		req.Constraint = "demographic_parity"
	}
	if req.GridSize == 0 {
		req.GridSize = h.cfg.Evaluation.DefaultGridSize
	}
	if req.EvalFraction == 0 {
		req.EvalFraction = h.cfg.Evaluation.DefaultEvalFraction
	}

	if req.GridSize < 1 || req.GridSize > h.cfg.Evaluation.MaxGridSize {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("grid_size must be between 1 and %d", h.cfg.Evaluation.MaxGridSize),
		})
		return
	}
	if req.Dataset.Rows() > h.cfg.Evaluation.MaxRows {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("dataset exceeds %d rows", h.cfg.Evaluation.MaxRows),
		})
		return
	}
	// Reject malformed datasets at the boundary rather than at run time.
	if err := req.Dataset.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid dataset: " + err.Error()})
		return
	}
	if req.EvalFraction <= 0 || req.EvalFraction >= 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "eval_fraction must be in (0, 1)"})
		return
	}

	job := &store.Job{
		Name:               req.Name,
		Requester:          r.Header.Get("X-Client-ID"),
		Constraint:         req.Constraint,
		GridSize:           req.GridSize,
		EvalFraction:       req.EvalFraction,
		Seed:               req.Seed,
		Standardize:        req.Standardize,
		IncludePredictions: req.IncludePredictions,
		Dataset:            &req.Dataset,
		Status:             store.StatusPending,
	}

	if err := h.store.CreateJob(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if h.events != nil {
		_ = h.events.Publish(events.SubjectJobCreated(job.ID.String()), events.JobCreatedEvent{
			JobID:      job.ID.String(),
			Name:       job.Name,
			Requester:  job.Requester,
			Constraint: job.Constraint,
			GridSize:   job.GridSize,
			Rows:       job.Dataset.Rows(),
		})
	}

	writeJSON(w, http.StatusCreated, summarize(job))
}

func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.JobFilter{
		Requester: r.URL.Query().Get("requester"),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := store.JobStatus(s)
		filter.Status = &status
	}

	jobs, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	out := make([]*store.Job, len(jobs))
	for i, j := range jobs {
		out[i] = summarize(j)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, summarize(job))
}

func (h *JobsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	job, ok := h.lookup(w, r)
	if !ok {
		return
	}

	// Conditional update: the runner may claim the job at any moment, so the
	// store flips pending to canceled atomically instead of us writing back a
	// stale snapshot.
	canceled, err := h.store.CancelJob(r.Context(), job.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !canceled {
		status := job.Status
		if fresh, err := h.store.GetJob(r.Context(), job.ID); err == nil && fresh != nil {
			status = fresh.Status
		}
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": fmt.Sprintf("only pending jobs can be canceled, job is %s", status),
		})
		return
	}

	job.Status = store.StatusCanceled
	if h.events != nil {
		_ = h.events.Publish(events.SubjectJobCanceled(job.ID.String()), events.JobCanceledEvent{
			JobID: job.ID.String(),
		})
	}
	writeJSON(w, http.StatusOK, summarize(job))
}

// Frontier returns only the Pareto-optimal candidates of a completed job.
func (h *JobsHandler) Frontier(w http.ResponseWriter, r *http.Request) {
	job, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if job.Status != store.StatusCompleted || job.Result == nil {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": fmt.Sprintf("job is %s, frontier available once completed", job.Status),
		})
		return
	}

	var front []store.ModelOutcome
	for _, c := range job.Result.Candidates {
		if c.OnFrontier {
			front = append(front, c)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":        job.ID,
		"frontier_size": job.Result.FrontierSize,
		"frontier":      front,
	})
}

// Predictions returns the model-id to predicted-labels mapping for jobs
// that requested prediction capture.
func (h *JobsHandler) Predictions(w http.ResponseWriter, r *http.Request) {
	job, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if job.Status != store.StatusCompleted || job.Result == nil {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": fmt.Sprintf("job is %s, predictions available once completed", job.Status),
		})
		return
	}
	if job.Result.Predictions == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "job did not request prediction capture",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":      job.ID,
		"predictions": job.Result.Predictions,
	})
}

func (h *JobsHandler) lookup(w http.ResponseWriter, r *http.Request) (*store.Job, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid job id"})
		return nil, false
	}
	job, err := h.store.GetJob(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return nil, false
	}
	if job == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return nil, false
	}
	return job, true
}

// summarize strips the bulky fields (raw dataset, captured predictions)
// from API responses; predictions have their own endpoint.
func summarize(job *store.Job) *store.Job {
	out := *job
	out.Dataset = nil
	if out.Result != nil && out.Result.Predictions != nil {
		res := *out.Result
		res.Predictions = nil
		out.Result = &res
	}
	return &out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
