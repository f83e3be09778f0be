package fairness

import (
	"fmt"
	"sort"
)

// ErrorRate returns the misclassification rate of predicted against actual.
// Labels must be binary (0/1) and the slices equal length and non-empty.
func ErrorRate(predicted, actual []int) (float64, error) {
	if err := checkBinary("predicted", predicted); err != nil {
		return 0, err
	}
	if err := checkBinary("actual", actual); err != nil {
		return 0, err
	}
	if len(predicted) != len(actual) {
		return 0, fmt.Errorf("length mismatch: %d predicted vs %d actual", len(predicted), len(actual))
	}
	wrong := 0
	for i := range predicted {
		if predicted[i] != actual[i] {
			wrong++
		}
	}
	return float64(wrong) / float64(len(predicted)), nil
}

// SelectionRates returns the positive-prediction rate per sensitive group.
func SelectionRates(predicted []int, sensitive []string) (map[string]float64, error) {
	if err := checkBinary("predicted", predicted); err != nil {
		return nil, err
	}
	if len(predicted) != len(sensitive) {
		return nil, fmt.Errorf("length mismatch: %d predicted vs %d sensitive", len(predicted), len(sensitive))
	}
	counts := make(map[string]int)
	positives := make(map[string]int)
	for i, group := range sensitive {
		if group == "" {
			return nil, fmt.Errorf("empty sensitive value at row %d", i)
		}
		counts[group]++
		positives[group] += predicted[i]
	}
	rates := make(map[string]float64, len(counts))
	for group, n := range counts {
		rates[group] = float64(positives[group]) / float64(n)
	}
	return rates, nil
}

// DemographicParityDifference returns the maximum gap in positive-prediction
// rate across sensitive groups: max(rate) - min(rate). Zero means perfect
// demographic parity.
func DemographicParityDifference(predicted []int, sensitive []string) (float64, error) {
	rates, err := SelectionRates(predicted, sensitive)
	if err != nil {
		return 0, err
	}
	first := true
	var lo, hi float64
	for _, r := range rates {
		if first {
			lo, hi = r, r
			first = false
			continue
		}
		if r < lo {
			lo = r
		}
		if r > hi {
			hi = r
		}
	}
	return hi - lo, nil
}

// Groups returns the distinct sensitive groups in sorted order.
func Groups(sensitive []string) []string {
	seen := make(map[string]bool)
	var groups []string
	for _, g := range sensitive {
		if !seen[g] {
			seen[g] = true
			groups = append(groups, g)
		}
	}
	sort.Strings(groups)
	return groups
}

func checkBinary(name string, labels []int) error {
	if len(labels) == 0 {
		return fmt.Errorf("%s: empty label vector", name)
	}
	for i, v := range labels {
		if v != 0 && v != 1 {
			return fmt.Errorf("%s: non-binary label %d at row %d", name, v, i)
		}
	}
	return nil
}
