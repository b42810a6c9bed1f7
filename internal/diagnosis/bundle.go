// Package diagnosis implements the symptom-to-disease inference core: the
// persisted model bundle, severity-weighted feature encoding, and top-K
// probability ranking.
package diagnosis

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Bundle is the immutable diagnosis model artifact: a trained classifier,
// the symptom vocabulary it was trained against, and the severity weight
// table. Loaded once per process and never mutated afterward.
type Bundle struct {
	Classifier  Classifier
	Vocabulary  map[string]int
	SeverityMap map[string]float64
}

// bundleDoc is the on-disk layout of the diagnosis artifact.
type bundleDoc struct {
	Model          json.RawMessage    `json:"model"`
	SymptomToIndex map[string]int     `json:"symptom_to_index"`
	SeverityMap    map[string]float64 `json:"severity_map"`
}

// LoadBundle reads and validates a diagnosis model bundle from path. A
// missing file, missing top-level key, or inconsistent vocabulary is a
// configuration error: the caller should treat it as fatal at warm-up.
func LoadBundle(path string) (*Bundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read diagnosis bundle: %w", err)
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("failed to parse diagnosis bundle %s: %w", path, err)
	}
	for _, required := range []string{"model", "symptom_to_index", "severity_map"} {
		if _, ok := keys[required]; !ok {
			return nil, fmt.Errorf("diagnosis bundle %s is missing key %q", path, required)
		}
	}

	var doc bundleDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode diagnosis bundle %s: %w", path, err)
	}

	if err := validateVocabulary(doc.SymptomToIndex); err != nil {
		return nil, fmt.Errorf("diagnosis bundle %s: %w", path, err)
	}

	clf, err := loadClassifier(doc.Model)
	if err != nil {
		return nil, fmt.Errorf("diagnosis bundle %s: %w", path, err)
	}
	if clf.FeatureCount() != len(doc.SymptomToIndex) {
		return nil, fmt.Errorf("diagnosis bundle %s: classifier expects %d features but vocabulary has %d symptoms",
			path, clf.FeatureCount(), len(doc.SymptomToIndex))
	}

	return &Bundle{
		Classifier:  clf,
		Vocabulary:  doc.SymptomToIndex,
		SeverityMap: doc.SeverityMap,
	}, nil
}

// validateVocabulary checks that feature indices are dense and contiguous:
// exactly 0..n-1 with no gaps or duplicates.
func validateVocabulary(vocab map[string]int) error {
	if len(vocab) == 0 {
		return fmt.Errorf("symptom vocabulary is empty")
	}
	indices := make([]int, 0, len(vocab))
	for _, idx := range vocab {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	for i, idx := range indices {
		if idx != i {
			return fmt.Errorf("symptom vocabulary indices are not dense: expected %d, found %d", i, idx)
		}
	}
	return nil
}

// Symptoms returns the vocabulary identifiers in feature-index order.
func (b *Bundle) Symptoms() []string {
	out := make([]string, len(b.Vocabulary))
	for symptom, idx := range b.Vocabulary {
		out[idx] = symptom
	}
	return out
}
