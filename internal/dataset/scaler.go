package dataset

import "math"

// StandardScaler standardizes each column to zero mean and unit variance.
// Fit on the training split, then transform both splits with the training
// statistics.
type StandardScaler struct {
	means  []float64
	stddev []float64
}

func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fit computes per-column mean and standard deviation.
func (s *StandardScaler) Fit(features [][]float64) {
	if len(features) == 0 {
		s.means, s.stddev = nil, nil
		return
	}
	width := len(features[0])
	s.means = make([]float64, width)
	s.stddev = make([]float64, width)
	n := float64(len(features))
	for _, row := range features {
		for j, v := range row {
			s.means[j] += v
		}
	}
	for j := range s.means {
		s.means[j] /= n
	}
	for _, row := range features {
		for j, v := range row {
			d := v - s.means[j]
			s.stddev[j] += d * d
		}
	}
	for j := range s.stddev {
		s.stddev[j] = math.Sqrt(s.stddev[j] / n)
		if s.stddev[j] == 0 {
			// Constant column: leave values centered, not divided.
			s.stddev[j] = 1.0
		}
	}
}

// Transform returns a standardized copy of the matrix.
func (s *StandardScaler) Transform(features [][]float64) [][]float64 {
	out := make([][]float64, len(features))
	for i, row := range features {
		scaled := make([]float64, len(row))
		for j, v := range row {
			if j < len(s.means) {
				scaled[j] = (v - s.means[j]) / s.stddev[j]
			} else {
				scaled[j] = v
			}
		}
		out[i] = scaled
	}
	return out
}
