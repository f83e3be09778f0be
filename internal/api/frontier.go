package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fairline/fairsweep/internal/frontier"
)

// FrontierHandler exposes the Pareto filter as a synchronous computation,
// for callers that already have (model, error, disparity) triples in hand.
type FrontierHandler struct{}

func NewFrontierHandler() *FrontierHandler {
	return &FrontierHandler{}
}

type ComputeFrontierRequest struct {
	// Either a single sequence of triples...
	Candidates []frontier.Candidate `json:"candidates,omitempty"`
	// ...or parallel sequences of equal length.
	ModelIDs    []string  `json:"model_ids,omitempty"`
	Errors      []float64 `json:"errors,omitempty"`
	Disparities []float64 `json:"disparities,omitempty"`
}

func (req *ComputeFrontierRequest) candidates() ([]frontier.Candidate, error) {
	if req.Candidates != nil {
		if req.ModelIDs != nil || req.Errors != nil || req.Disparities != nil {
			return nil, fmt.Errorf("provide either candidates or parallel arrays, not both")
		}
		return req.Candidates, nil
	}
	if len(req.ModelIDs) != len(req.Errors) || len(req.Errors) != len(req.Disparities) {
		return nil, fmt.Errorf("parallel arrays differ in length: %d ids, %d errors, %d disparities",
			len(req.ModelIDs), len(req.Errors), len(req.Disparities))
	}
	out := make([]frontier.Candidate, len(req.ModelIDs))
	for i := range req.ModelIDs {
		out[i] = frontier.Candidate{
			ModelID:   req.ModelIDs[i],
			Error:     req.Errors[i],
			Disparity: req.Disparities[i],
		}
	}
	return out, nil
}

// Compute runs the Pareto filter over the submitted candidate set.
// POST /api/v1/frontier
func (h *FrontierHandler) Compute(w http.ResponseWriter, r *http.Request) {
	var req ComputeFrontierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	candidates, err := req.candidates()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	front, err := frontier.ComputeFrontier(candidates)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if front == nil {
		front = []frontier.Candidate{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"submitted":     len(candidates),
		"frontier_size": len(front),
		"frontier":      front,
	})
}
