package dataset

import (
	"fmt"
	"math/rand"
)

// Split holds the train/eval partition of a built dataset. Sensitive values
// and labels track their feature rows through the shuffle.
type Split struct {
	TrainFeatures [][]float64
	TrainLabels   []int
	EvalFeatures  [][]float64
	EvalLabels    []int
	EvalSensitive []string
}

// TrainEvalSplit shuffles row indices with the given seed and carves off
// evalFraction of the rows as the held-out evaluation set. The same seed
// always yields the same partition.
func TrainEvalSplit(features [][]float64, labels []int, sensitive []string, evalFraction float64, seed int64) (*Split, error) {
	n := len(labels)
	if len(features) != n || len(sensitive) != n {
		return nil, fmt.Errorf("length mismatch: %d features, %d labels, %d sensitive", len(features), n, len(sensitive))
	}
	if evalFraction <= 0 || evalFraction >= 1 {
		return nil, fmt.Errorf("eval fraction %f outside (0, 1)", evalFraction)
	}
	evalCount := int(float64(n) * evalFraction)
	if evalCount == 0 || evalCount == n {
		return nil, fmt.Errorf("eval fraction %f leaves an empty split for %d rows", evalFraction, n)
	}

	idx := rand.New(rand.NewSource(seed)).Perm(n)
	s := &Split{
		TrainFeatures: make([][]float64, 0, n-evalCount),
		TrainLabels:   make([]int, 0, n-evalCount),
		EvalFeatures:  make([][]float64, 0, evalCount),
		EvalLabels:    make([]int, 0, evalCount),
		EvalSensitive: make([]string, 0, evalCount),
	}
	for i, row := range idx {
		if i < evalCount {
			s.EvalFeatures = append(s.EvalFeatures, features[row])
			s.EvalLabels = append(s.EvalLabels, labels[row])
			s.EvalSensitive = append(s.EvalSensitive, sensitive[row])
		} else {
			s.TrainFeatures = append(s.TrainFeatures, features[row])
			s.TrainLabels = append(s.TrainLabels, labels[row])
		}
	}
	return s, nil
}
