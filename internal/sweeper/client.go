package sweeper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SweepRequest asks a sweep collaborator for gridSize fitted models. Models
// themselves never cross this boundary; each swept model comes back as its
// predictions on the eval rows.
type SweepRequest struct {
	TrainFeatures [][]float64 `json:"train_features"`
	TrainLabels   []int       `json:"train_labels"`
	EvalFeatures  [][]float64 `json:"eval_features"`
	Constraint    string      `json:"constraint"`
	GridSize      int         `json:"grid_size"`
}

// SweptModel is one member of the sweep: an opaque model identifier and its
// predicted labels for the eval rows, in request order.
type SweptModel struct {
	ID          string `json:"id"`
	Predictions []int  `json:"predictions"`
}

type Client interface {
	Sweep(ctx context.Context, req SweepRequest) ([]SweptModel, error)
}

// HTTPClient talks to an external sweep service that runs the actual
// constrained grid search.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Sweep(ctx context.Context, req SweepRequest) ([]SweptModel, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/sweep", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sweep request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("sweeper: %d %s", resp.StatusCode, string(body))
	}

	var out struct {
		Models []SweptModel `json:"models"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode sweep response: %w", err)
	}
	if err := checkModels(out.Models, len(req.EvalFeatures), req.GridSize); err != nil {
		return nil, err
	}
	return out.Models, nil
}

func checkModels(models []SweptModel, evalRows, gridSize int) error {
	if len(models) != gridSize {
		return fmt.Errorf("sweeper returned %d models, requested %d", len(models), gridSize)
	}
	seen := make(map[string]bool, len(models))
	for _, m := range models {
		if m.ID == "" || seen[m.ID] {
			return fmt.Errorf("sweeper returned duplicate or empty model id %q", m.ID)
		}
		seen[m.ID] = true
		if len(m.Predictions) != evalRows {
			return fmt.Errorf("model %s returned %d predictions for %d eval rows", m.ID, len(m.Predictions), evalRows)
		}
	}
	return nil
}
