// Package followup maps individual symptoms to clarifying questions for the
// user to answer before or alongside a prediction.
package followup

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/calyx-health/triage.report/internal/symptom"
)

// DefaultLimit caps the number of suggested questions when the caller does
// not ask for a specific count.
const DefaultLimit = 5

// Bank holds the symptom-to-questions table. Questions for one symptom keep
// their declared order.
type Bank struct {
	questions map[string][]string
}

// DefaultQuestions is the built-in question table.
func DefaultQuestions() map[string][]string {
	return map[string][]string{
		"chest_pain": {
			"Does the pain worsen with exertion?",
			"Does the pain radiate to arm, jaw, or back?",
			"How long has the pain been present?",
		},
		"shortness_of_breath": {
			"Do you feel breathless at rest?",
			"Do you wake up at night short of breath?",
		},
		"fever": {
			"Is the fever above 38°C?",
			"Are there chills or night sweats?",
		},
		"abdominal_pain": {
			"Has the location of the pain changed?",
			"Is there nausea or vomiting?",
			"Does passing gas or stool relieve the pain?",
		},
		"headache": {
			"Is this the sudden worst headache of your life?",
			"Is there sensitivity to light or sound?",
		},
		"vomiting": {
			"Is there blood or coffee-ground material in vomit?",
			"Is severe dizziness present with vomiting?",
		},
	}
}

// NewBank builds a bank from a symptom-to-questions table, normalizing the
// symptom keys.
func NewBank(table map[string][]string) (*Bank, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("follow-up question table is empty")
	}
	questions := make(map[string][]string, len(table))
	for key, qs := range table {
		id := symptom.Normalize(key)
		if id == "" {
			return nil, fmt.Errorf("follow-up table key %q normalizes to nothing", key)
		}
		if len(qs) == 0 {
			return nil, fmt.Errorf("follow-up table entry %q has no questions", key)
		}
		questions[id] = qs
	}
	return &Bank{questions: questions}, nil
}

// NewDefaultBank builds a bank over the built-in table.
func NewDefaultBank() *Bank {
	bank, err := NewBank(DefaultQuestions())
	if err != nil {
		panic(err) // built-in table is known good
	}
	return bank
}

// LoadBank reads a replacement question table from a JSON file: an object
// mapping symptom to an ordered question array.
func LoadBank(path string) (*Bank, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read follow-up questions: %w", err)
	}
	var table map[string][]string
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("failed to parse follow-up questions %s: %w", path, err)
	}
	bank, err := NewBank(table)
	if err != nil {
		return nil, fmt.Errorf("follow-up questions %s: %w", path, err)
	}
	return bank, nil
}

// Suggest collects the questions for each input symptom, deduplicates by
// exact question text keeping first occurrence, and truncates at limit.
// Symptoms without an entry contribute nothing.
func (b *Bank) Suggest(symptoms []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}

	seen := make(map[string]bool)
	var out []string
	for _, raw := range symptoms {
		for _, question := range b.questions[symptom.Normalize(raw)] {
			if seen[question] {
				continue
			}
			seen[question] = true
			out = append(out, question)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
