package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/fairline/fairsweep/internal/dataset"
	"github.com/fairline/fairsweep/internal/events"
	"github.com/fairline/fairsweep/internal/fairness"
	"github.com/fairline/fairsweep/internal/frontier"
	"github.com/fairline/fairsweep/internal/metrics"
	"github.com/fairline/fairsweep/internal/store"
	"github.com/fairline/fairsweep/internal/sweeper"
)

func (r *Runner) processJob(ctx context.Context, job *store.Job) {
	started := time.Now()
	job.Status = store.StatusRunning
	job.StartedAt = &started
	if err := r.store.UpdateJob(ctx, job); err != nil {
		r.logger.Error("failed to mark job running", "job_id", job.ID, "error", err)
		return
	}
	if r.events != nil {
		_ = r.events.Publish(events.SubjectJobStarted(job.ID.String()), events.JobStartedEvent{
			JobID: job.ID.String(),
		})
	}
	r.logger.Info("job started", "job_id", job.ID, "grid_size", job.GridSize, "constraint", job.Constraint)

	result, err := r.runPipeline(ctx, job)
	if err != nil {
		r.failJob(ctx, job, err)
		return
	}

	completed := time.Now()
	job.Status = store.StatusCompleted
	job.CompletedAt = &completed
	job.Result = result
	if err := r.store.UpdateJob(ctx, job); err != nil {
		r.logger.Error("failed to store job result", "job_id", job.ID, "error", err)
		return
	}

	metrics.JobsProcessed.WithLabelValues("completed").Inc()
	metrics.SweepDuration.Observe(completed.Sub(started).Seconds())
	metrics.FrontierSize.Observe(float64(result.FrontierSize))

	bestError, minDisparity := resultExtremes(result)
	if r.events != nil {
		_ = r.events.Publish(events.SubjectJobCompleted(job.ID.String()), events.JobCompletedEvent{
			JobID:        job.ID.String(),
			Models:       len(result.Candidates),
			FrontierSize: result.FrontierSize,
			BestError:    bestError,
			MinDisparity: minDisparity,
			DurationMs:   completed.Sub(started).Milliseconds(),
		})
	}
	r.logger.Info("job completed",
		"job_id", job.ID,
		"models", len(result.Candidates),
		"frontier_size", result.FrontierSize,
		"best_error", bestError,
		"duration_ms", completed.Sub(started).Milliseconds(),
	)
}

// runPipeline performs one job: build the dataset, split, optionally
// standardize, sweep, evaluate each swept model, and filter the frontier.
func (r *Runner) runPipeline(ctx context.Context, job *store.Job) (*store.JobResult, error) {
	if job.Dataset == nil {
		return nil, fmt.Errorf("job has no dataset")
	}
	features, err := job.Dataset.Build()
	if err != nil {
		return nil, fmt.Errorf("build dataset: %w", err)
	}

	split, err := dataset.TrainEvalSplit(features, job.Dataset.Labels, job.Dataset.Sensitive, job.EvalFraction, job.Seed)
	if err != nil {
		return nil, fmt.Errorf("split dataset: %w", err)
	}

	if job.Standardize {
		scaler := dataset.NewStandardScaler()
		scaler.Fit(split.TrainFeatures)
		split.TrainFeatures = scaler.Transform(split.TrainFeatures)
		split.EvalFeatures = scaler.Transform(split.EvalFeatures)
	}

	if groups := fairness.Groups(split.EvalSensitive); len(groups) < 2 {
		r.logger.Warn("eval split has a single sensitive group, disparity will be zero",
			"job_id", job.ID, "groups", groups)
	}

	models, err := r.sweeper.Sweep(ctx, sweeper.SweepRequest{
		TrainFeatures: split.TrainFeatures,
		TrainLabels:   split.TrainLabels,
		EvalFeatures:  split.EvalFeatures,
		Constraint:    job.Constraint,
		GridSize:      job.GridSize,
	})
	if err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}

	candidates := make([]frontier.Candidate, len(models))
	outcomes := make([]store.ModelOutcome, len(models))
	predictions := make(map[string][]int, len(models))
	for i, m := range models {
		errRate, err := fairness.ErrorRate(m.Predictions, split.EvalLabels)
		if err != nil {
			return nil, fmt.Errorf("model %s: error rate: %w", m.ID, err)
		}
		disparity, err := fairness.DemographicParityDifference(m.Predictions, split.EvalSensitive)
		if err != nil {
			return nil, fmt.Errorf("model %s: disparity: %w", m.ID, err)
		}
		rates, err := fairness.SelectionRates(m.Predictions, split.EvalSensitive)
		if err != nil {
			return nil, fmt.Errorf("model %s: selection rates: %w", m.ID, err)
		}
		candidates[i] = frontier.Candidate{ModelID: m.ID, Error: errRate, Disparity: disparity}
		outcomes[i] = store.ModelOutcome{
			ModelID:        m.ID,
			Error:          errRate,
			Disparity:      disparity,
			SelectionRates: rates,
		}
		if job.IncludePredictions {
			predictions[m.ID] = m.Predictions
		}
		metrics.ModelsEvaluated.Inc()
	}

	front, err := frontier.ComputeFrontier(candidates)
	if err != nil {
		return nil, fmt.Errorf("compute frontier: %w", err)
	}
	onFrontier := make(map[string]bool, len(front))
	for _, c := range front {
		onFrontier[c.ModelID] = true
	}
	for i := range outcomes {
		outcomes[i].OnFrontier = onFrontier[outcomes[i].ModelID]
	}

	result := &store.JobResult{
		Candidates:   outcomes,
		FrontierSize: len(front),
	}
	if job.IncludePredictions {
		result.Predictions = predictions
	}
	return result, nil
}

func (r *Runner) failJob(ctx context.Context, job *store.Job, cause error) {
	completed := time.Now()
	job.Status = store.StatusFailed
	job.CompletedAt = &completed
	job.Error = cause.Error()
	if err := r.store.UpdateJob(ctx, job); err != nil {
		r.logger.Error("failed to mark job failed", "job_id", job.ID, "error", err)
		return
	}
	metrics.JobsProcessed.WithLabelValues("failed").Inc()
	if r.events != nil {
		_ = r.events.Publish(events.SubjectJobFailed(job.ID.String()), events.JobFailedEvent{
			JobID: job.ID.String(),
			Error: cause.Error(),
		})
	}
	r.logger.Warn("job failed", "job_id", job.ID, "error", cause)
}

func resultExtremes(result *store.JobResult) (bestError, minDisparity float64) {
	for i, c := range result.Candidates {
		if i == 0 || c.Error < bestError {
			bestError = c.Error
		}
		if i == 0 || c.Disparity < minDisparity {
			minDisparity = c.Disparity
		}
	}
	return bestError, minDisparity
}
