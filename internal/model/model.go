package model

import "fmt"

// Predictor produces binary labels for a feature matrix. Swept models are
// handled through this interface only; nothing downstream inspects the
// model itself.
type Predictor interface {
	Predict(features [][]float64) ([]int, error)
}

// LinearModel applies fixed coefficients to each row and thresholds the
// resulting score. It does no fitting; weights come from the caller.
type LinearModel struct {
	Weights   []float64
	Bias      float64
	Threshold float64
}

// Score returns the raw linear score for one row.
func (m *LinearModel) Score(row []float64) (float64, error) {
	if len(row) != len(m.Weights) {
		return 0, fmt.Errorf("row has %d features, model has %d weights", len(row), len(m.Weights))
	}
	s := m.Bias
	for i, w := range m.Weights {
		s += w * row[i]
	}
	return s, nil
}

// Predict labels each row 1 when its score meets the threshold.
func (m *LinearModel) Predict(features [][]float64) ([]int, error) {
	labels := make([]int, len(features))
	for i, row := range features {
		s, err := m.Score(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if s >= m.Threshold {
			labels[i] = 1
		}
	}
	return labels, nil
}

// WithThreshold returns a copy of the model with a different decision
// threshold, sharing the weight slice.
func (m *LinearModel) WithThreshold(threshold float64) *LinearModel {
	return &LinearModel{Weights: m.Weights, Bias: m.Bias, Threshold: threshold}
}
