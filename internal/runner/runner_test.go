package runner

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fairline/fairsweep/internal/config"
	"github.com/fairline/fairsweep/internal/dataset"
	"github.com/fairline/fairsweep/internal/events"
	"github.com/fairline/fairsweep/internal/store"
	"github.com/fairline/fairsweep/internal/sweeper"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Mocks
type mockStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*store.Job
}

func newMockStore() *mockStore {
	return &mockStore{jobs: make(map[uuid.UUID]*store.Job)}
}

func (m *mockStore) CreateJob(_ context.Context, j *store.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j.ID = uuid.New()
	j.CreatedAt = time.Now()
	j.UpdatedAt = time.Now()
	cp := *j
	m.jobs[j.ID] = &cp
	return nil
}

func (m *mockStore) GetJob(_ context.Context, id uuid.UUID) (*store.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *j
	return &cp, nil
}

func (m *mockStore) ListJobs(_ context.Context, _ store.JobFilter) ([]*store.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Job
	for _, j := range m.jobs {
		out = append(out, j)
	}
	return out, nil
}

func (m *mockStore) UpdateJob(_ context.Context, j *store.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *j
	m.jobs[j.ID] = &cp
	return nil
}

func (m *mockStore) CancelJob(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok || j.Status != store.StatusPending {
		return false, nil
	}
	j.Status = store.StatusCanceled
	return true, nil
}

func (m *mockStore) GetPendingJobs(_ context.Context) ([]*store.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Job
	for _, j := range m.jobs {
		if j.Status == store.StatusPending {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockStore) GetRunningJobs(_ context.Context) ([]*store.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Job
	for _, j := range m.jobs {
		if j.Status == store.StatusRunning {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockStore) GetJobStats(_ context.Context) (*store.JobStats, error) {
	return &store.JobStats{}, nil
}

type mockEvents struct {
	mu       sync.Mutex
	subjects []string
	handlers []func(string, []byte)
}

func (m *mockEvents) Publish(subject string, _ interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append(m.subjects, subject)
	return nil
}

func (m *mockEvents) Subscribe(_ string, handler func(string, []byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
	return nil
}

func (m *mockEvents) Close() {}

func (m *mockEvents) published() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.subjects...)
}

// deliver hands a message to every registered subscription handler.
func (m *mockEvents) deliver(subject string, data []byte) {
	m.mu.Lock()
	handlers := make([]func(string, []byte), len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()
	for _, h := range handlers {
		h(subject, data)
	}
}

func testConfig() *config.Config {
	cfg, _ := config.Load("")
	return cfg
}

func testJob() *store.Job {
	// 10 rows, score equals the single feature, groups alternate.
	features := make([][]float64, 10)
	labels := make([]int, 10)
	sensitive := make([]string, 10)
	for i := range features {
		features[i] = []float64{float64(i)}
		if i >= 5 {
			labels[i] = 1
		}
		if i%2 == 0 {
			sensitive[i] = "a"
		} else {
			sensitive[i] = "b"
		}
	}
	return &store.Job{
		Name:               "test sweep",
		Constraint:         "demographic_parity",
		GridSize:           5,
		EvalFraction:       0.3,
		Seed:               42,
		IncludePredictions: true,
		Status:             store.StatusPending,
		Dataset: &dataset.Dataset{
			Features:  features,
			Labels:    labels,
			Sensitive: sensitive,
		},
	}
}

func TestProcessJobCompletesWithFrontier(t *testing.T) {
	s := newMockStore()
	ev := &mockEvents{}
	sw := sweeper.NewThresholdSweeper([]float64{1.0}, 0)
	r := New(s, ev, sw, testConfig(), discardLogger())

	job := testJob()
	if err := s.CreateJob(context.Background(), job); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	r.processJob(context.Background(), job)

	got, _ := s.GetJob(context.Background(), job.ID)
	if got.Status != store.StatusCompleted {
		t.Fatalf("expected completed, got %s (error: %s)", got.Status, got.Error)
	}
	if got.Result == nil {
		t.Fatal("expected a result")
	}
	if len(got.Result.Candidates) != 5 {
		t.Errorf("expected 5 candidates, got %d", len(got.Result.Candidates))
	}
	if got.Result.FrontierSize < 1 {
		t.Errorf("expected non-empty frontier, got %d", got.Result.FrontierSize)
	}
	onFrontier := 0
	for _, c := range got.Result.Candidates {
		if c.OnFrontier {
			onFrontier++
		}
		if c.SelectionRates == nil {
			t.Errorf("candidate %s missing selection rates", c.ModelID)
		}
	}
	if onFrontier != got.Result.FrontierSize {
		t.Errorf("frontier size %d disagrees with flagged candidates %d", got.Result.FrontierSize, onFrontier)
	}
	if len(got.Result.Predictions) != 5 {
		t.Errorf("expected predictions for 5 models, got %d", len(got.Result.Predictions))
	}

	subjects := ev.published()
	if len(subjects) != 2 {
		t.Fatalf("expected started+completed events, got %v", subjects)
	}
}

func TestProcessJobWithoutPredictionCapture(t *testing.T) {
	s := newMockStore()
	sw := sweeper.NewThresholdSweeper([]float64{1.0}, 0)
	r := New(s, nil, sw, testConfig(), discardLogger())

	job := testJob()
	job.IncludePredictions = false
	_ = s.CreateJob(context.Background(), job)

	r.processJob(context.Background(), job)

	got, _ := s.GetJob(context.Background(), job.ID)
	if got.Status != store.StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if got.Result.Predictions != nil {
		t.Error("expected no predictions captured")
	}
}

func TestProcessJobFailsOnInvalidDataset(t *testing.T) {
	s := newMockStore()
	ev := &mockEvents{}
	sw := sweeper.NewThresholdSweeper([]float64{1.0}, 0)
	r := New(s, ev, sw, testConfig(), discardLogger())

	job := testJob()
	job.Dataset.Labels[0] = 7 // non-binary
	_ = s.CreateJob(context.Background(), job)

	r.processJob(context.Background(), job)

	got, _ := s.GetJob(context.Background(), job.ID)
	if got.Status != store.StatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
	if got.Error == "" {
		t.Error("expected error message on failed job")
	}
}

func TestProcessPendingSkipsWhenPaused(t *testing.T) {
	s := newMockStore()
	sw := sweeper.NewThresholdSweeper([]float64{1.0}, 0)
	r := New(s, nil, sw, testConfig(), discardLogger())

	job := testJob()
	_ = s.CreateJob(context.Background(), job)

	r.Pause()
	r.processPendingJobs(context.Background())

	got, _ := s.GetJob(context.Background(), job.ID)
	if got.Status != store.StatusPending {
		t.Errorf("expected still pending while paused, got %s", got.Status)
	}

	r.Resume()
	r.processPendingJobs(context.Background())
	got, _ = s.GetJob(context.Background(), job.ID)
	if got.Status != store.StatusCompleted {
		t.Errorf("expected completed after resume, got %s", got.Status)
	}
}

func TestCancellationEventSkipsBatchedJob(t *testing.T) {
	s := newMockStore()
	ev := &mockEvents{}
	sw := sweeper.NewThresholdSweeper([]float64{1.0}, 0)
	r := New(s, ev, sw, testConfig(), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	canceled := testJob()
	kept := testJob()
	_ = s.CreateJob(ctx, canceled)
	_ = s.CreateJob(ctx, kept)

	r.Start(ctx)
	defer r.Stop()

	// A cancellation lands after the pending batch would have been fetched;
	// the job loop must skip that job without touching the other one.
	payload, _ := json.Marshal(events.JobCanceledEvent{JobID: canceled.ID.String()})
	ev.deliver(events.SubjectJobCanceled(canceled.ID.String()), payload)

	r.processPendingJobs(ctx)

	got, _ := s.GetJob(ctx, canceled.ID)
	if got.Status != store.StatusPending {
		t.Errorf("expected canceled job untouched by the runner, got %s", got.Status)
	}
	got, _ = s.GetJob(ctx, kept.ID)
	if got.Status != store.StatusCompleted {
		t.Errorf("expected other job completed, got %s", got.Status)
	}

	// The marker is consumed; the store status decides from here on.
	r.processPendingJobs(ctx)
	got, _ = s.GetJob(ctx, canceled.ID)
	if got.Status != store.StatusCompleted {
		t.Errorf("expected job processed once the marker is consumed, got %s", got.Status)
	}
}

func TestMalformedCancellationEventIgnored(t *testing.T) {
	s := newMockStore()
	ev := &mockEvents{}
	sw := sweeper.NewThresholdSweeper([]float64{1.0}, 0)
	r := New(s, ev, sw, testConfig(), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job := testJob()
	_ = s.CreateJob(ctx, job)

	r.Start(ctx)
	defer r.Stop()

	ev.deliver(events.SubjectJobCanceled(job.ID.String()), []byte("not json"))
	ev.deliver(events.SubjectJobCanceled(job.ID.String()), []byte(`{"job_id":""}`))

	r.processPendingJobs(ctx)
	got, _ := s.GetJob(ctx, job.ID)
	if got.Status != store.StatusCompleted {
		t.Errorf("expected job processed despite junk events, got %s", got.Status)
	}
}

func TestCheckTimeouts(t *testing.T) {
	s := newMockStore()
	ev := &mockEvents{}
	sw := sweeper.NewThresholdSweeper([]float64{1.0}, 0)
	cfg := testConfig()
	cfg.Runner.JobTimeoutMs = 1000
	r := New(s, ev, sw, cfg, discardLogger())

	job := testJob()
	_ = s.CreateJob(context.Background(), job)
	started := time.Now().Add(-time.Minute)
	job.Status = store.StatusRunning
	job.StartedAt = &started
	_ = s.UpdateJob(context.Background(), job)

	r.checkTimeouts(context.Background())

	got, _ := s.GetJob(context.Background(), job.ID)
	if got.Status != store.StatusTimedOut {
		t.Fatalf("expected timed_out, got %s", got.Status)
	}
	if len(ev.published()) != 1 {
		t.Errorf("expected one timeout event, got %v", ev.published())
	}
}

func TestStartStop(t *testing.T) {
	s := newMockStore()
	sw := sweeper.NewThresholdSweeper([]float64{1.0}, 0)
	cfg := testConfig()
	cfg.Runner.TickIntervalMs = 10
	r := New(s, nil, sw, cfg, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job := testJob()
	_ = s.CreateJob(ctx, job)

	r.Start(ctx)
	deadline := time.After(2 * time.Second)
	for {
		got, _ := s.GetJob(ctx, job.ID)
		if got.Status == store.StatusCompleted {
			break
		}
		select {
		case <-deadline:
			r.Stop()
			t.Fatalf("job never completed, status %s", got.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}
	r.Stop()
}
