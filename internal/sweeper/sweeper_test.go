package sweeper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestThresholdSweeperGridSize(t *testing.T) {
	s := NewThresholdSweeper([]float64{1.0}, 0)
	req := SweepRequest{
		EvalFeatures: [][]float64{{1.0}, {2.0}, {3.0}},
		GridSize:     7,
	}
	models, err := s.Sweep(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(models) != 7 {
		t.Fatalf("expected 7 models, got %d", len(models))
	}
	for _, m := range models {
		if len(m.Predictions) != 3 {
			t.Errorf("model %s: expected 3 predictions, got %d", m.ID, len(m.Predictions))
		}
	}
}

func TestThresholdSweeperCoversBothExtremes(t *testing.T) {
	s := NewThresholdSweeper([]float64{1.0}, 0)
	req := SweepRequest{
		EvalFeatures: [][]float64{{1.0}, {2.0}, {3.0}, {4.0}},
		GridSize:     9,
	}
	models, err := s.Sweep(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, last := models[0], models[len(models)-1]
	for i, p := range first.Predictions {
		if p != 1 {
			t.Errorf("lowest threshold: expected all positive, row %d got %d", i, p)
		}
	}
	for i, p := range last.Predictions {
		if p != 0 {
			t.Errorf("highest threshold: expected all negative, row %d got %d", i, p)
		}
	}
}

func TestThresholdSweeperDeterministic(t *testing.T) {
	s := NewThresholdSweeper(nil, 0)
	req := SweepRequest{
		EvalFeatures: [][]float64{{1.0, 0.5}, {0.2, 0.9}, {2.0, 1.5}},
		GridSize:     5,
	}
	a, err := s.Sweep(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := s.Sweep(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("model %d: ids differ: %s vs %s", i, a[i].ID, b[i].ID)
		}
		for j := range a[i].Predictions {
			if a[i].Predictions[j] != b[i].Predictions[j] {
				t.Errorf("model %d row %d differs between runs", i, j)
			}
		}
	}
}

func TestThresholdSweeperRejectsBadRequest(t *testing.T) {
	s := NewThresholdSweeper([]float64{1.0}, 0)
	if _, err := s.Sweep(context.Background(), SweepRequest{GridSize: 0, EvalFeatures: [][]float64{{1}}}); err == nil {
		t.Error("expected error for zero grid size")
	}
	if _, err := s.Sweep(context.Background(), SweepRequest{GridSize: 3}); err == nil {
		t.Error("expected error for no eval rows")
	}
}

func TestHTTPClientSweep(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sweep" {
			http.NotFound(w, r)
			return
		}
		var req SweepRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		models := make([]SweptModel, req.GridSize)
		for i := range models {
			preds := make([]int, len(req.EvalFeatures))
			models[i] = SweptModel{ID: fmt.Sprintf("m-%d", i), Predictions: preds}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"models": models})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 5*time.Second)
	models, err := c.Sweep(context.Background(), SweepRequest{
		TrainFeatures: [][]float64{{1}},
		TrainLabels:   []int{1},
		EvalFeatures:  [][]float64{{1}, {2}},
		Constraint:    "demographic_parity",
		GridSize:      4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(models) != 4 {
		t.Errorf("expected 4 models, got %d", len(models))
	}
}

func TestHTTPClientRejectsWrongShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"models": []SweptModel{{ID: "only-one", Predictions: []int{0}}},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 5*time.Second)
	_, err := c.Sweep(context.Background(), SweepRequest{
		EvalFeatures: [][]float64{{1}},
		GridSize:     3,
	})
	if err == nil {
		t.Error("expected error when model count disagrees with grid size")
	}
}

func TestHTTPClientSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "sweep failed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 5*time.Second)
	if _, err := c.Sweep(context.Background(), SweepRequest{EvalFeatures: [][]float64{{1}}, GridSize: 1}); err == nil {
		t.Error("expected error from 500 response")
	}
}
