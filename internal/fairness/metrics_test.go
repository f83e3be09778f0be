package fairness

import (
	"math"
	"testing"
)

func TestErrorRate(t *testing.T) {
	tests := []struct {
		name      string
		predicted []int
		actual    []int
		want      float64
	}{
		{"all correct", []int{0, 1, 1, 0}, []int{0, 1, 1, 0}, 0.0},
		{"all wrong", []int{1, 0}, []int{0, 1}, 1.0},
		{"half wrong", []int{1, 1, 0, 0}, []int{1, 0, 1, 0}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ErrorRate(tt.predicted, tt.actual)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestErrorRateRejectsBadInput(t *testing.T) {
	if _, err := ErrorRate([]int{0, 1}, []int{0}); err == nil {
		t.Error("expected error on length mismatch")
	}
	if _, err := ErrorRate(nil, nil); err == nil {
		t.Error("expected error on empty input")
	}
	if _, err := ErrorRate([]int{0, 2}, []int{0, 1}); err == nil {
		t.Error("expected error on non-binary label")
	}
}

func TestSelectionRates(t *testing.T) {
	predicted := []int{1, 0, 1, 1, 0, 0}
	sensitive := []string{"a", "a", "a", "b", "b", "b"}
	rates, err := SelectionRates(predicted, sensitive)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(rates["a"]-2.0/3.0) > 1e-9 {
		t.Errorf("group a: expected 2/3, got %f", rates["a"])
	}
	if math.Abs(rates["b"]-1.0/3.0) > 1e-9 {
		t.Errorf("group b: expected 1/3, got %f", rates["b"])
	}
}

func TestSelectionRatesRejectsEmptyGroup(t *testing.T) {
	if _, err := SelectionRates([]int{1, 0}, []string{"a", ""}); err == nil {
		t.Error("expected error on empty sensitive value")
	}
}

func TestDemographicParityDifference(t *testing.T) {
	t.Run("perfect parity", func(t *testing.T) {
		got, err := DemographicParityDifference(
			[]int{1, 0, 1, 0},
			[]string{"a", "a", "b", "b"},
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 0 {
			t.Errorf("expected 0, got %f", got)
		}
	})

	t.Run("max gap across three groups", func(t *testing.T) {
		// a: 1.0, b: 0.5, c: 0.0 -> gap 1.0
		got, err := DemographicParityDifference(
			[]int{1, 1, 1, 0, 0, 0},
			[]string{"a", "a", "b", "b", "c", "c"},
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 1.0 {
			t.Errorf("expected 1.0, got %f", got)
		}
	})

	t.Run("single group has zero disparity", func(t *testing.T) {
		got, err := DemographicParityDifference([]int{1, 0}, []string{"a", "a"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 0 {
			t.Errorf("expected 0, got %f", got)
		}
	})
}

func TestGroups(t *testing.T) {
	got := Groups([]string{"b", "a", "b", "c", "a"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
