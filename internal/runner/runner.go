package runner

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/fairline/fairsweep/internal/config"
	"github.com/fairline/fairsweep/internal/events"
	"github.com/fairline/fairsweep/internal/store"
	"github.com/fairline/fairsweep/internal/sweeper"
)

// Runner drives pending evaluation jobs through the sweep-evaluate-filter
// pipeline on a ticker, and times out jobs stuck in running.
type Runner struct {
	store   store.Store
	events  events.Client
	sweeper sweeper.Client
	cfg     *config.Config
	logger  *slog.Logger

	pausedMu sync.RWMutex
	paused   bool

	// Job IDs canceled through the API since the current batch was fetched,
	// fed by the cancellation event subscription.
	canceledMu sync.Mutex
	canceled   map[string]struct{}

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func New(s store.Store, ev events.Client, sw sweeper.Client, cfg *config.Config, logger *slog.Logger) *Runner {
	return &Runner{
		store:    s,
		events:   ev,
		sweeper:  sw,
		cfg:      cfg,
		logger:   logger,
		canceled: make(map[string]struct{}),
		stopCh:   make(chan struct{}),
	}
}

func (r *Runner) Start(ctx context.Context) {
	if r.events != nil {
		if err := r.events.Subscribe(events.SubjectJobCanceledAll, r.noteCancellation); err != nil {
			r.logger.Warn("failed to subscribe to cancellation events", "error", err)
		}
	}
	r.wg.Add(2)
	go r.jobLoop(ctx)
	go r.timeoutLoop(ctx)
}

// noteCancellation records a job canceled through the API so the job loop
// skips it within the already-fetched batch. The stored status is
// authoritative on later ticks.
func (r *Runner) noteCancellation(subject string, data []byte) {
	var ev events.JobCanceledEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.JobID == "" {
		r.logger.Warn("malformed cancellation event", "subject", subject)
		return
	}
	r.canceledMu.Lock()
	r.canceled[ev.JobID] = struct{}{}
	r.canceledMu.Unlock()
}

func (r *Runner) consumeCancellation(jobID string) bool {
	r.canceledMu.Lock()
	defer r.canceledMu.Unlock()
	if _, ok := r.canceled[jobID]; !ok {
		return false
	}
	delete(r.canceled, jobID)
	return true
}

func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}

// Pause stops the runner from picking up new jobs; running jobs finish.
func (r *Runner) Pause() {
	r.pausedMu.Lock()
	r.paused = true
	r.pausedMu.Unlock()
}

func (r *Runner) Resume() {
	r.pausedMu.Lock()
	r.paused = false
	r.pausedMu.Unlock()
}

func (r *Runner) IsPaused() bool {
	r.pausedMu.RLock()
	defer r.pausedMu.RUnlock()
	return r.paused
}

func (r *Runner) jobLoop(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cfg.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.processPendingJobs(ctx)
		}
	}
}

func (r *Runner) processPendingJobs(ctx context.Context) {
	if r.IsPaused() {
		return
	}
	jobs, err := r.store.GetPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to get pending jobs", "error", err)
		return
	}
	for _, job := range jobs {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}
		if r.consumeCancellation(job.ID.String()) {
			r.logger.Info("skipping canceled job", "job_id", job.ID)
			continue
		}
		r.processJob(ctx, job)
	}
}
