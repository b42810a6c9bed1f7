package diagnosis

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// ErrEmptyEncoding reports that no input symptom mapped to the model
// vocabulary. This is a client-correctable input error, not a server fault,
// and the HTTP boundary must keep the two distinguishable.
var ErrEmptyEncoding = errors.New("none of the provided symptoms could be mapped to the model vocabulary")

// DefaultTopK is the number of ranked diseases returned when the caller
// does not ask for a specific count.
const DefaultTopK = 3

// Prediction is one ranked disease: label and probability only. Metadata
// and triage level are attached downstream.
type Prediction struct {
	Disease     string
	Probability float64
}

// Rank encodes the symptoms and returns the topK most probable diseases in
// non-increasing probability order. Ties keep the classifier's native class
// order. The unmapped slice lists normalized input symptoms absent from the
// vocabulary so callers can surface them to the user.
func (b *Bundle) Rank(symptoms []string, topK int, overrides map[string]float64) (results []Prediction, unmapped []string, err error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, unmapped := b.Encode(symptoms, overrides)
	if floats.Sum(vector) == 0 {
		return nil, unmapped, ErrEmptyEncoding
	}

	probs, err := b.Classifier.PredictProbabilities(vector)
	if err != nil {
		return nil, unmapped, err
	}

	// Stable sort over class positions: equal probabilities preserve the
	// classifier's class ordering instead of being re-sorted.
	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return probs[order[i]].Probability > probs[order[j]].Probability
	})

	if topK > len(order) {
		topK = len(order)
	}
	results = make([]Prediction, 0, topK)
	for _, idx := range order[:topK] {
		results = append(results, Prediction{
			Disease:     probs[idx].Label,
			Probability: probs[idx].Probability,
		})
	}
	return results, unmapped, nil
}
