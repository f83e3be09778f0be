package frontier

import (
	"fmt"
	"math"
)

// Candidate is one swept model positioned in the error-disparity plane.
// ModelID is an opaque handle; the filter never inspects it.
type Candidate struct {
	ModelID   string  `json:"model_id"`
	Error     float64 `json:"error"`
	Disparity float64 `json:"disparity"`
}

// ComputeFrontier returns the Pareto-optimal candidates from the input set,
// minimizing both error and disparity. A candidate survives iff its error
// equals the minimum error among all candidates whose disparity is no worse
// than its own. Output preserves input order. O(n^2) scan — fine for
// typical sweep sizes.
func ComputeFrontier(candidates []Candidate) ([]Candidate, error) {
	if err := validate(candidates); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	frontier := make([]Candidate, 0, len(candidates))
	for i := range candidates {
		minErr := math.Inf(1)
		for j := range candidates {
			if candidates[j].Disparity <= candidates[i].Disparity && candidates[j].Error < minErr {
				minErr = candidates[j].Error
			}
		}
		if candidates[i].Error <= minErr {
			frontier = append(frontier, candidates[i])
		}
	}
	return frontier, nil
}

// Dominates returns true if a strictly dominates b: a is no worse on both
// axes and strictly better on at least one.
func Dominates(a, b Candidate) bool {
	if a.Error > b.Error || a.Disparity > b.Disparity {
		return false
	}
	return a.Error < b.Error || a.Disparity < b.Disparity
}

func validate(candidates []Candidate) error {
	for i, c := range candidates {
		if math.IsNaN(c.Error) || math.IsInf(c.Error, 0) || c.Error < 0 {
			return fmt.Errorf("candidate %d (%s): invalid error %v", i, c.ModelID, c.Error)
		}
		if math.IsNaN(c.Disparity) || math.IsInf(c.Disparity, 0) || c.Disparity < 0 {
			return fmt.Errorf("candidate %d (%s): invalid disparity %v", i, c.ModelID, c.Disparity)
		}
	}
	return nil
}
