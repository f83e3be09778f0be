package dataset

import (
	"fmt"
	"math"
)

// Dataset is the in-process boundary: a rectangular numeric feature matrix,
// a binary label vector, and a categorical sensitive-attribute vector, all
// with equal row counts. Categorical feature columns, if present, are
// one-hot encoded into the numeric matrix by Build. The sensitive attribute
// is never part of the feature matrix; it is held separately for
// evaluation.
type Dataset struct {
	Features    [][]float64 `json:"features"`
	Categorical [][]string  `json:"categorical,omitempty"`
	Labels      []int       `json:"labels"`
	Sensitive   []string    `json:"sensitive"`
}

// Rows returns the row count implied by the label vector.
func (d *Dataset) Rows() int {
	return len(d.Labels)
}

// Validate checks the input preconditions: equal row counts, a
// rectangular finite feature matrix, binary labels, non-empty sensitive
// values. Violations are explicit errors, never silently tolerated.
func (d *Dataset) Validate() error {
	n := d.Rows()
	if n == 0 {
		return fmt.Errorf("dataset has no rows")
	}
	if len(d.Features) != n {
		return fmt.Errorf("feature matrix has %d rows, labels have %d", len(d.Features), n)
	}
	if len(d.Sensitive) != n {
		return fmt.Errorf("sensitive vector has %d rows, labels have %d", len(d.Sensitive), n)
	}
	if d.Categorical != nil && len(d.Categorical) != n {
		return fmt.Errorf("categorical matrix has %d rows, labels have %d", len(d.Categorical), n)
	}
	width := len(d.Features[0])
	for i, row := range d.Features {
		if len(row) != width {
			return fmt.Errorf("row %d has %d features, row 0 has %d", i, len(row), width)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("non-finite feature at row %d column %d", i, j)
			}
		}
	}
	if d.Categorical != nil {
		catWidth := len(d.Categorical[0])
		for i, row := range d.Categorical {
			if len(row) != catWidth {
				return fmt.Errorf("categorical row %d has %d columns, row 0 has %d", i, len(row), catWidth)
			}
		}
	}
	for i, v := range d.Labels {
		if v != 0 && v != 1 {
			return fmt.Errorf("non-binary label %d at row %d", v, i)
		}
	}
	for i, s := range d.Sensitive {
		if s == "" {
			return fmt.Errorf("empty sensitive value at row %d", i)
		}
	}
	return nil
}

// Build validates the dataset and returns the final numeric feature matrix,
// with any categorical columns one-hot encoded and appended after the
// numeric ones.
func (d *Dataset) Build() ([][]float64, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if d.Categorical == nil || len(d.Categorical[0]) == 0 {
		return d.Features, nil
	}
	enc := NewOneHotEncoder()
	enc.Fit(d.Categorical)
	encoded := enc.Transform(d.Categorical)
	out := make([][]float64, len(d.Features))
	for i, row := range d.Features {
		combined := make([]float64, 0, len(row)+len(encoded[i]))
		combined = append(combined, row...)
		combined = append(combined, encoded[i]...)
		out[i] = combined
	}
	return out, nil
}
