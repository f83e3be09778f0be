package runner

import (
	"context"
	"time"

	"github.com/fairline/fairsweep/internal/events"
	"github.com/fairline/fairsweep/internal/metrics"
	"github.com/fairline/fairsweep/internal/store"
)

func (r *Runner) timeoutLoop(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.checkTimeouts(ctx)
		}
	}
}

func (r *Runner) checkTimeouts(ctx context.Context) {
	jobs, err := r.store.GetRunningJobs(ctx)
	if err != nil {
		r.logger.Error("failed to get running jobs for timeout check", "error", err)
		return
	}

	now := time.Now()
	for _, job := range jobs {
		if job.StartedAt == nil {
			continue
		}
		runningFor := now.Sub(*job.StartedAt)
		if runningFor <= r.cfg.JobTimeout() {
			continue
		}

		r.logger.Warn("job timed out", "job_id", job.ID, "running_for", runningFor)

		completedAt := now
		job.Status = store.StatusTimedOut
		job.CompletedAt = &completedAt
		job.Error = "job exceeded the configured timeout"
		if err := r.store.UpdateJob(ctx, job); err != nil {
			r.logger.Error("failed to mark job timed out", "job_id", job.ID, "error", err)
			continue
		}
		metrics.JobsProcessed.WithLabelValues("timed_out").Inc()
		if r.events != nil {
			_ = r.events.Publish(events.SubjectJobTimeout(job.ID.String()), events.JobTimeoutEvent{
				JobID:      job.ID.String(),
				RunningFor: runningFor.String(),
			})
		}
	}
}
