package diagnosis

import (
	"github.com/calyx-health/triage.report/internal/symptom"
)

// overrideScale converts a user-reported 0-10 severity into a multiplier in
// [1.0, 2.0]. The cap keeps a single extreme self-report from dominating
// classification. Calibration parameter; value asserted, not derived.
func overrideScale(v float64) float64 {
	if v < 0 {
		v = 0
	}
	if v > 10 {
		v = 10
	}
	return 1 + v/10
}

// weightFor returns the encoded weight for one normalized symptom: the
// severity-table base weight (default 1.0) scaled by the user override
// factor when an override is present.
func (b *Bundle) weightFor(id string, overrides map[string]float64) float64 {
	weight, ok := b.SeverityMap[id]
	if !ok {
		weight = 1.0
	}
	if override, ok := overrides[id]; ok {
		weight *= overrideScale(override)
	}
	return weight
}

// Encode turns a raw symptom list into the dense feature vector the
// classifier consumes. Input is normalized and deduplicated first; symptoms
// outside the vocabulary are dropped from the vector and returned as
// unmapped so callers can surface them. A vector summing to zero means no
// input mapped, which ranking treats as a rejected input.
func (b *Bundle) Encode(symptoms []string, overrides map[string]float64) (vector []float64, unmapped []string) {
	vector = make([]float64, len(b.Vocabulary))
	for _, id := range symptom.NormalizeSet(symptoms) {
		idx, ok := b.Vocabulary[id]
		if !ok {
			unmapped = append(unmapped, id)
			continue
		}
		vector[idx] = b.weightFor(id, overrides)
	}
	return vector, unmapped
}

// AggregateSeverity sums the per-symptom weights for the full normalized
// set, vocabulary membership notwithstanding. The score is additive, so it
// stays roughly linear in symptom count and weight.
func (b *Bundle) AggregateSeverity(symptoms []string, overrides map[string]float64) float64 {
	total := 0.0
	for _, id := range symptom.NormalizeSet(symptoms) {
		total += b.weightFor(id, overrides)
	}
	return total
}
