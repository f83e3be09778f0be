package sweeper

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/fairline/fairsweep/internal/model"
)

// ThresholdSweeper is the built-in fallback when no external sweep service
// is configured. It grids the decision threshold of a fixed linear scorer
// across the observed score range, producing gridSize models that trade
// selection rate against accuracy. It is not a constrained optimizer; the
// external collaborator owns that.
type ThresholdSweeper struct {
	Weights []float64
	Bias    float64
}

func NewThresholdSweeper(weights []float64, bias float64) *ThresholdSweeper {
	return &ThresholdSweeper{Weights: weights, Bias: bias}
}

func (s *ThresholdSweeper) Sweep(ctx context.Context, req SweepRequest) ([]SweptModel, error) {
	if req.GridSize < 1 {
		return nil, fmt.Errorf("grid size %d, need at least 1", req.GridSize)
	}
	if len(req.EvalFeatures) == 0 {
		return nil, fmt.Errorf("no eval rows")
	}

	weights := s.Weights
	if weights == nil {
		weights = defaultWeights(len(req.EvalFeatures[0]))
	}
	base := &model.LinearModel{Weights: weights, Bias: s.Bias}

	lo, hi, err := scoreRange(base, req.EvalFeatures)
	if err != nil {
		return nil, err
	}

	models := make([]SweptModel, req.GridSize)
	for i := 0; i < req.GridSize; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		frac := 0.0
		if req.GridSize > 1 {
			frac = float64(i) / float64(req.GridSize-1)
		}
		m := base.WithThreshold(lo + frac*(hi-lo))
		preds, err := m.Predict(req.EvalFeatures)
		if err != nil {
			return nil, fmt.Errorf("grid member %d: %w", i, err)
		}
		models[i] = SweptModel{
			ID:          fmt.Sprintf("threshold-%03d", i),
			Predictions: preds,
		}
	}
	return models, nil
}

// defaultWeights is a unit-weight scorer over however many columns the eval
// rows carry, for datasets submitted without explicit base weights.
func defaultWeights(width int) []float64 {
	w := make([]float64, width)
	for i := range w {
		w[i] = 1.0
	}
	return w
}

func scoreRange(m *model.LinearModel, features [][]float64) (float64, float64, error) {
	scores := make([]float64, len(features))
	for i, row := range features {
		s, err := m.Score(row)
		if err != nil {
			return 0, 0, fmt.Errorf("row %d: %w", i, err)
		}
		scores[i] = s
	}
	sort.Float64s(scores)
	lo, hi := scores[0], scores[len(scores)-1]
	if lo == hi {
		// Degenerate: all rows score the same. Spread the grid around it so
		// thresholds still vary monotonically.
		lo, hi = lo-1, hi+1
	}
	// Nudge past the extremes so the grid covers all-positive and
	// all-negative labelings.
	span := hi - lo
	return lo - 1e-9*math.Max(1, span), hi + 1e-9*math.Max(1, span), nil
}
