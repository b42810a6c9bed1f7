package diagnosis

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ClassProb pairs a disease label with its predicted probability. The slice
// returned by PredictProbabilities follows the classifier's native class
// ordering, which ranking relies on for stable tie-breaking.
type ClassProb struct {
	Label       string
	Probability float64
}

// Classifier is the probability-estimation surface of the diagnosis model.
// The concrete model is whatever the artifact carries; the rest of the core
// only depends on this interface.
type Classifier interface {
	// PredictProbabilities returns a probability for every known class,
	// in the classifier's fixed class order.
	PredictProbabilities(vector []float64) ([]ClassProb, error)

	// FeatureCount reports the feature width the model was trained on.
	FeatureCount() int

	// Classes returns the ordered class label set.
	Classes() []string
}

// linearModelDoc is the artifact payload for the shipped classifier: a
// linear softmax head with one weight row per class.
type linearModelDoc struct {
	Type    string      `json:"type"`
	Classes []string    `json:"classes"`
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

func loadClassifier(raw json.RawMessage) (Classifier, error) {
	var doc linearModelDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode classifier: %w", err)
	}
	if doc.Type != "linear_softmax" {
		return nil, fmt.Errorf("unsupported classifier type %q", doc.Type)
	}
	if len(doc.Classes) == 0 {
		return nil, fmt.Errorf("classifier has no classes")
	}
	if len(doc.Weights) != len(doc.Classes) {
		return nil, fmt.Errorf("classifier has %d weight rows for %d classes", len(doc.Weights), len(doc.Classes))
	}
	if len(doc.Bias) != len(doc.Classes) {
		return nil, fmt.Errorf("classifier has %d bias terms for %d classes", len(doc.Bias), len(doc.Classes))
	}

	features := len(doc.Weights[0])
	flat := make([]float64, 0, len(doc.Classes)*features)
	for i, row := range doc.Weights {
		if len(row) != features {
			return nil, fmt.Errorf("classifier weight row %d has %d features, expected %d", i, len(row), features)
		}
		flat = append(flat, row...)
	}

	return &linearClassifier{
		classes:  doc.Classes,
		weights:  mat.NewDense(len(doc.Classes), features, flat),
		bias:     doc.Bias,
		features: features,
	}, nil
}

// linearClassifier scores each class as w·x + b and converts the logits to
// probabilities with a softmax.
type linearClassifier struct {
	classes  []string
	weights  *mat.Dense
	bias     []float64
	features int
}

func (c *linearClassifier) FeatureCount() int { return c.features }

func (c *linearClassifier) Classes() []string { return c.classes }

func (c *linearClassifier) PredictProbabilities(vector []float64) ([]ClassProb, error) {
	if len(vector) != c.features {
		return nil, fmt.Errorf("feature vector has length %d, model expects %d", len(vector), c.features)
	}

	logits := mat.NewVecDense(len(c.classes), nil)
	logits.MulVec(c.weights, mat.NewVecDense(len(vector), vector))

	// Softmax with max subtraction for numerical stability.
	scores := make([]float64, len(c.classes))
	for i := range scores {
		scores[i] = logits.AtVec(i) + c.bias[i]
	}
	max := floats.Max(scores)
	for i := range scores {
		scores[i] = math.Exp(scores[i] - max)
	}
	total := floats.Sum(scores)
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return nil, fmt.Errorf("classifier produced degenerate probability mass %v", total)
	}
	floats.Scale(1/total, scores)

	out := make([]ClassProb, len(c.classes))
	for i, label := range c.classes {
		out[i] = ClassProb{Label: label, Probability: scores[i]}
	}
	return out, nil
}
