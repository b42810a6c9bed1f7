// Package triagemodel loads and runs the urgency text classifier: a TF-IDF
// vectorizer feeding a linear head over a small fixed label set.
package triagemodel

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/calyx-health/triage.report/internal/symptom"
)

// TextClassifier maps a free-text blob to one label from a fixed set. The
// shipped implementation is artifact-backed; the interface keeps the model
// swappable without touching callers.
type TextClassifier interface {
	Classify(text string) (string, error)
	Labels() []string
}

// BuildText assembles the classification input for one disease: name,
// description, and precautions joined and run through the shared cleaner.
func BuildText(disease, description string, precautions []string) string {
	parts := []string{disease, description}
	parts = append(parts, precautions...)
	return symptom.CleanText(strings.Join(parts, " "))
}

type modelDoc struct {
	Vectorizer struct {
		Vocabulary map[string]int `json:"vocabulary"`
		IDF        []float64      `json:"idf"`
	} `json:"vectorizer"`
	Model struct {
		Type    string      `json:"type"`
		Classes []string    `json:"classes"`
		Weights [][]float64 `json:"weights"`
		Bias    []float64   `json:"bias"`
	} `json:"model"`
}

// Model is the immutable triage classification pipeline.
type Model struct {
	vocabulary map[string]int
	idf        []float64
	classes    []string
	weights    [][]float64
	bias       []float64
}

// Load reads and validates a triage model artifact. Malformed artifacts are
// configuration errors and should be fatal at warm-up.
func Load(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read triage model: %w", err)
	}
	var doc modelDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse triage model %s: %w", path, err)
	}

	if doc.Model.Type != "linear_softmax" {
		return nil, fmt.Errorf("triage model %s: unsupported classifier type %q", path, doc.Model.Type)
	}
	if len(doc.Model.Classes) == 0 {
		return nil, fmt.Errorf("triage model %s has no labels", path)
	}
	if len(doc.Vectorizer.Vocabulary) != len(doc.Vectorizer.IDF) {
		return nil, fmt.Errorf("triage model %s: vocabulary size %d does not match idf length %d",
			path, len(doc.Vectorizer.Vocabulary), len(doc.Vectorizer.IDF))
	}
	if len(doc.Model.Weights) != len(doc.Model.Classes) || len(doc.Model.Bias) != len(doc.Model.Classes) {
		return nil, fmt.Errorf("triage model %s: weight/bias shape does not match %d labels",
			path, len(doc.Model.Classes))
	}
	for i, row := range doc.Model.Weights {
		if len(row) != len(doc.Vectorizer.Vocabulary) {
			return nil, fmt.Errorf("triage model %s: weight row %d has %d terms, vectorizer has %d",
				path, i, len(row), len(doc.Vectorizer.Vocabulary))
		}
	}
	for term, idx := range doc.Vectorizer.Vocabulary {
		if idx < 0 || idx >= len(doc.Vectorizer.IDF) {
			return nil, fmt.Errorf("triage model %s: term %q has out-of-range index %d", path, term, idx)
		}
	}

	return &Model{
		vocabulary: doc.Vectorizer.Vocabulary,
		idf:        doc.Vectorizer.IDF,
		classes:    doc.Model.Classes,
		weights:    doc.Model.Weights,
		bias:       doc.Model.Bias,
	}, nil
}

// Labels returns the fixed label set in the model's class order.
func (m *Model) Labels() []string {
	out := make([]string, len(m.classes))
	copy(out, m.classes)
	return out
}

// vectorize builds the l2-normalized TF-IDF representation of cleaned text.
func (m *Model) vectorize(text string) []float64 {
	vec := make([]float64, len(m.idf))
	for _, term := range strings.Fields(symptom.CleanText(text)) {
		if idx, ok := m.vocabulary[term]; ok {
			vec[idx] += m.idf[idx]
		}
	}
	if norm := math.Sqrt(floats.Dot(vec, vec)); norm > 0 {
		floats.Scale(1/norm, vec)
	}
	return vec
}

// Classify returns exactly one of the model's labels for the given text.
// There is no fallback label: a degenerate score is an error, since a wrong
// default could understate urgency.
func (m *Model) Classify(text string) (string, error) {
	vec := m.vectorize(text)

	best := 0
	bestScore := math.Inf(-1)
	for i := range m.classes {
		score := m.bias[i] + floats.Dot(m.weights[i], vec)
		if math.IsNaN(score) {
			return "", fmt.Errorf("triage classifier produced NaN score for label %q", m.classes[i])
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return m.classes[best], nil
}
