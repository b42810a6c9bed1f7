// Package engine wires the inference pipeline together: encoding, ranking,
// metadata lookup, triage classification, red-flag rules, and follow-up
// questions, behind one Predict operation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/calyx-health/triage.report/internal/diagnosis"
	"github.com/calyx-health/triage.report/internal/followup"
	"github.com/calyx-health/triage.report/internal/metadata"
	"github.com/calyx-health/triage.report/internal/redflag"
	"github.com/calyx-health/triage.report/internal/symptom"
	"github.com/calyx-health/triage.report/internal/triagemodel"
)

// ErrNoValidSymptoms reports that every provided symptom normalized to the
// empty identifier. Like diagnosis.ErrEmptyEncoding it is a
// client-correctable input error.
var ErrNoValidSymptoms = errors.New("no valid symptoms were provided")

// IsInputError reports whether err is a client-correctable input condition
// rather than a server fault.
func IsInputError(err error) bool {
	return errors.Is(err, ErrNoValidSymptoms) || errors.Is(err, diagnosis.ErrEmptyEncoding)
}

// Loaders supplies the three model artifacts. Each loader runs at most once
// per Engine, on first use; tests inject fakes here.
type Loaders struct {
	Bundle   func() (*diagnosis.Bundle, error)
	Triage   func() (triagemodel.TextClassifier, error)
	Metadata func() (*metadata.Index, error)
}

// PathLoaders builds Loaders that read the artifacts from disk.
func PathLoaders(diagnosisPath, triagePath, precautionsPath, descriptionsPath string) Loaders {
	return Loaders{
		Bundle: func() (*diagnosis.Bundle, error) {
			return diagnosis.LoadBundle(diagnosisPath)
		},
		Triage: func() (triagemodel.TextClassifier, error) {
			return triagemodel.Load(triagePath)
		},
		Metadata: func() (*metadata.Index, error) {
			return metadata.LoadIndex(precautionsPath, descriptionsPath)
		},
	}
}

// Engine owns the process-lifetime model artifacts and the two rule tables.
// Artifacts load lazily on first access; the sync.Once guards guarantee
// at most one underlying load under concurrent first access, with every
// caller observing the same result.
type Engine struct {
	loaders       Loaders
	redFlags      *redflag.Engine
	bank          *followup.Bank
	followUpLimit int

	bundleOnce sync.Once
	bundle     *diagnosis.Bundle
	bundleErr  error

	triageOnce sync.Once
	triage     triagemodel.TextClassifier
	triageErr  error

	metaOnce sync.Once
	meta     *metadata.Index
	metaErr  error
}

// New builds an Engine. A nil redFlags or bank falls back to the built-in
// tables.
func New(loaders Loaders, redFlags *redflag.Engine, bank *followup.Bank) *Engine {
	if redFlags == nil {
		redFlags = redflag.NewDefaultEngine()
	}
	if bank == nil {
		bank = followup.NewDefaultBank()
	}
	return &Engine{loaders: loaders, redFlags: redFlags, bank: bank}
}

// SetFollowUpLimit caps the number of follow-up questions per response.
// Zero or negative keeps the built-in default.
func (e *Engine) SetFollowUpLimit(limit int) {
	e.followUpLimit = limit
}

// Bundle returns the diagnosis model bundle, loading it on first call.
func (e *Engine) Bundle() (*diagnosis.Bundle, error) {
	e.bundleOnce.Do(func() {
		e.bundle, e.bundleErr = e.loaders.Bundle()
	})
	return e.bundle, e.bundleErr
}

// TriageModel returns the triage text classifier, loading it on first call.
func (e *Engine) TriageModel() (triagemodel.TextClassifier, error) {
	e.triageOnce.Do(func() {
		e.triage, e.triageErr = e.loaders.Triage()
	})
	return e.triage, e.triageErr
}

// Metadata returns the disease metadata index, loading it on first call.
func (e *Engine) Metadata() (*metadata.Index, error) {
	e.metaOnce.Do(func() {
		e.meta, e.metaErr = e.loaders.Metadata()
	})
	return e.meta, e.metaErr
}

// Warm forces all artifact loads. Configuration problems surface here
// instead of on the first request.
func (e *Engine) Warm(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := e.Bundle(); err != nil {
		return fmt.Errorf("diagnosis bundle warm-up: %w", err)
	}
	if _, err := e.TriageModel(); err != nil {
		return fmt.Errorf("triage model warm-up: %w", err)
	}
	if _, err := e.Metadata(); err != nil {
		return fmt.Errorf("disease metadata warm-up: %w", err)
	}
	return nil
}

// Vocabulary returns the sorted symptom identifiers the diagnosis model
// knows about.
func (e *Engine) Vocabulary() ([]string, error) {
	bundle, err := e.Bundle()
	if err != nil {
		return nil, err
	}
	symptoms := bundle.Symptoms()
	sort.Strings(symptoms)
	return symptoms, nil
}

// Request is one prediction call.
type Request struct {
	Symptoms []string `json:"symptoms"`
	// SymptomSeverity maps symptom (any spelling) to a 0-10 self-reported
	// severity that scales the encoded weight.
	SymptomSeverity map[string]float64 `json:"symptom_severity,omitempty"`
	TopK            int                `json:"top_k,omitempty"`
}

// DiseasePrediction is one ranked disease with its attached metadata.
type DiseasePrediction struct {
	Disease       string   `json:"disease"`
	Probability   float64  `json:"probability"`
	SeverityScore float64  `json:"severity_score"`
	TriageLevel   string   `json:"triage_level"`
	Precautions   []string `json:"precautions"`
	Description   string   `json:"description,omitempty"`
}

// Response is the merged prediction payload.
type Response struct {
	Results            []DiseasePrediction `json:"results"`
	NormalizedSymptoms []string            `json:"normalized_symptoms"`
	UnmappedSymptoms   []string            `json:"unmapped_symptoms"`
	RedFlags           []string            `json:"red_flags"`
	FollowUpQuestions  []string            `json:"follow_up_questions"`
}

// Predict runs the full pipeline for one request. Input errors are
// detectable with IsInputError; anything else is a server fault for the
// boundary layer to mask.
func (e *Engine) Predict(req Request) (*Response, error) {
	normalized := symptom.NormalizeSet(req.Symptoms)
	if len(normalized) == 0 {
		return nil, ErrNoValidSymptoms
	}

	overrides := normalizeOverrides(req.SymptomSeverity)

	bundle, err := e.Bundle()
	if err != nil {
		return nil, err
	}
	ranked, unmapped, err := bundle.Rank(normalized, req.TopK, overrides)
	if err != nil {
		return nil, err
	}

	meta, err := e.Metadata()
	if err != nil {
		return nil, err
	}
	triage, err := e.TriageModel()
	if err != nil {
		return nil, err
	}

	severityScore := bundle.AggregateSeverity(normalized, overrides)

	results := make([]DiseasePrediction, 0, len(ranked))
	for _, p := range ranked {
		entry := meta.Lookup(p.Disease)
		level, err := triage.Classify(triagemodel.BuildText(p.Disease, entry.Description, entry.Precautions))
		if err != nil {
			// No fallback label: a wrong default could understate urgency.
			return nil, fmt.Errorf("triage classification for %q: %w", p.Disease, err)
		}
		precautions := entry.Precautions
		if precautions == nil {
			precautions = []string{}
		}
		results = append(results, DiseasePrediction{
			Disease:       p.Disease,
			Probability:   p.Probability,
			SeverityScore: severityScore,
			TriageLevel:   level,
			Precautions:   precautions,
			Description:   entry.Description,
		})
	}

	if unmapped == nil {
		unmapped = []string{}
	}
	return &Response{
		Results:            results,
		NormalizedSymptoms: normalized,
		UnmappedSymptoms:   unmapped,
		RedFlags:           orEmpty(e.redFlags.Evaluate(req.Symptoms)),
		FollowUpQuestions:  orEmpty(e.bank.Suggest(req.Symptoms, e.followUpLimit)),
	}, nil
}

// normalizeOverrides rekeys user-supplied severities by normalized
// identifier so any input spelling lines up with the encoder.
func normalizeOverrides(overrides map[string]float64) map[string]float64 {
	if len(overrides) == 0 {
		return nil
	}
	out := make(map[string]float64, len(overrides))
	for key, value := range overrides {
		if id := symptom.Normalize(key); id != "" {
			out[id] = value
		}
	}
	return out
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
