// Package redflag evaluates emergency warning rules over a normalized
// symptom set. Matching is subset-based, every matching rule fires, and
// output follows rule declaration order.
package redflag

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/calyx-health/triage.report/internal/symptom"
)

// Rule fires when every required symptom is present in the input set.
type Rule struct {
	Require []string `json:"require"`
	Message string   `json:"message"`
}

// Engine holds an ordered rule table. Static configuration: rules are fixed
// for the lifetime of the engine.
type Engine struct {
	rules []Rule
}

// DefaultRules is the built-in clinical rule table.
func DefaultRules() []Rule {
	return []Rule{
		{Require: []string{"chest_pain", "shortness_of_breath"}, Message: "Chest pain with shortness of breath needs emergency evaluation."},
		{Require: []string{"loss_of_consciousness"}, Message: "Loss of consciousness requires emergency care."},
		{Require: []string{"confusion"}, Message: "Sudden confusion is an emergency warning sign."},
		{Require: []string{"severe_headache", "vision_blurring"}, Message: "Sudden severe headache with vision changes can be an emergency."},
		{Require: []string{"blood_in_sputum", "coughing"}, Message: "Coughing up blood requires urgent assessment."},
		{Require: []string{"stiff_neck", "fever"}, Message: "Fever with stiff neck may indicate an emergency."},
	}
}

// NewEngine builds an engine over the given rule table. Rule symptoms are
// normalized so config files may use free-text spellings.
func NewEngine(rules []Rule) (*Engine, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("red-flag rule table is empty")
	}
	normalized := make([]Rule, 0, len(rules))
	for i, rule := range rules {
		if rule.Message == "" {
			return nil, fmt.Errorf("red-flag rule %d has no message", i)
		}
		require := symptom.NormalizeSet(rule.Require)
		if len(require) == 0 {
			return nil, fmt.Errorf("red-flag rule %d (%q) has no required symptoms", i, rule.Message)
		}
		normalized = append(normalized, Rule{Require: require, Message: rule.Message})
	}
	return &Engine{rules: normalized}, nil
}

// NewDefaultEngine builds an engine over the built-in rule table.
func NewDefaultEngine() *Engine {
	engine, err := NewEngine(DefaultRules())
	if err != nil {
		panic(err) // built-in table is known good
	}
	return engine
}

// LoadEngine reads a replacement rule table from a JSON file. The file is a
// JSON array of {require, message} objects; matching semantics are the same
// as the built-in table.
func LoadEngine(path string) (*Engine, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read red-flag rules: %w", err)
	}
	var rules []Rule
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse red-flag rules %s: %w", path, err)
	}
	engine, err := NewEngine(rules)
	if err != nil {
		return nil, fmt.Errorf("red-flag rules %s: %w", path, err)
	}
	return engine, nil
}

// Evaluate returns the warning message of every rule whose required symptom
// set is contained in the input, in rule declaration order.
func (e *Engine) Evaluate(symptoms []string) []string {
	present := make(map[string]bool)
	for _, id := range symptom.NormalizeSet(symptoms) {
		present[id] = true
	}

	var warnings []string
	for _, rule := range e.rules {
		matched := true
		for _, required := range rule.Require {
			if !present[required] {
				matched = false
				break
			}
		}
		if matched {
			warnings = append(warnings, rule.Message)
		}
	}
	return warnings
}

// Rules returns a copy of the active rule table.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}
