package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/calyx-health/triage.report/internal/auth"
	"github.com/calyx-health/triage.report/internal/db"
	"github.com/calyx-health/triage.report/internal/httputil"
	"github.com/calyx-health/triage.report/internal/monitoring"
	"github.com/calyx-health/triage.report/internal/report"
	"github.com/calyx-health/triage.report/internal/symptom"
)

type timelineAddRequest struct {
	Symptoms        []string           `json:"symptoms"`
	SymptomSeverity map[string]float64 `json:"symptom_severity,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	EntryType       string             `json:"entry_type,omitempty"`
	TopPrediction   string             `json:"top_prediction,omitempty"`
	TriageLevel     string             `json:"triage_level,omitempty"`
	SeverityScore   float64            `json:"severity_score,omitempty"`
	OccurredAt      string             `json:"occurred_at,omitempty"`
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTimeline(w, r)
	case http.MethodPost:
		s.addTimelineEntry(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) listTimeline(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	entries, err := s.db.EntriesForUser(user.ID)
	if err != nil {
		monitoring.Logf("failed to list timeline for user %s: %v", user.ID, err)
		httputil.InternalServerError(w, "failed to load timeline")
		return
	}
	if entries == nil {
		entries = []db.TimelineEntry{}
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

func (s *Server) addTimelineEntry(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	var req timelineAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid JSON body")
		return
	}

	symptoms := symptom.NormalizeSet(req.Symptoms)
	if len(symptoms) == 0 {
		httputil.BadRequest(w, "at least one recognizable symptom is required")
		return
	}

	occurredAt := time.Time{}
	if req.OccurredAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			httputil.BadRequest(w, "occurred_at must be RFC 3339")
			return
		}
		occurredAt = parsed.UTC()
	}

	entry := &db.TimelineEntry{
		UserID:          user.ID,
		Symptoms:        symptoms,
		SymptomSeverity: req.SymptomSeverity,
		Notes:           req.Notes,
		EntryType:       req.EntryType,
		TopPrediction:   req.TopPrediction,
		TriageLevel:     req.TriageLevel,
		SeverityScore:   req.SeverityScore,
		OccurredAt:      occurredAt,
	}
	if err := s.db.AddEntry(entry); err != nil {
		monitoring.Logf("failed to add timeline entry for user %s: %v", user.ID, err)
		httputil.InternalServerError(w, "failed to store timeline entry")
		return
	}

	httputil.WriteJSONCreated(w, entry)
}

// handleTimelineEntry serves /api/timeline/{id}.
func (s *Server) handleTimelineEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		httputil.MethodNotAllowed(w)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/timeline/")
	if id == "" || strings.Contains(id, "/") {
		httputil.NotFound(w, "timeline entry not found")
		return
	}

	user := auth.UserFromContext(r.Context())
	err := s.db.DeleteEntry(id, user.ID)
	if errors.Is(err, db.ErrNotFound) {
		httputil.NotFound(w, "timeline entry not found")
		return
	}
	if err != nil {
		monitoring.Logf("failed to delete timeline entry %s: %v", id, err)
		httputil.InternalServerError(w, "failed to delete timeline entry")
		return
	}

	httputil.WriteJSONOK(w, map[string]string{"deleted": id})
}

func (s *Server) handlePrivacySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	user := auth.UserFromContext(r.Context())

	count, err := s.db.EntryCount(user.ID)
	if err != nil {
		monitoring.Logf("failed to count entries for user %s: %v", user.ID, err)
		httputil.InternalServerError(w, "failed to build privacy summary")
		return
	}

	summary := map[string]interface{}{
		"entry_count": count,
		"has_data":    count > 0,
		"stored_categories": []string{
			"symptoms", "symptom_severity", "notes", "predictions",
		},
		"last_entry_at": nil,
	}

	if lastAt, ok, err := s.db.LastEntryAt(user.ID); err != nil {
		monitoring.Logf("failed to find last entry for user %s: %v", user.ID, err)
		httputil.InternalServerError(w, "failed to build privacy summary")
		return
	} else if ok {
		summary["last_entry_at"] = lastAt.UTC().Format(time.RFC3339)
	}

	httputil.WriteJSONOK(w, summary)
}

func (s *Server) handlePrivacyClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		httputil.MethodNotAllowed(w)
		return
	}

	user := auth.UserFromContext(r.Context())

	deleted, err := s.db.ClearEntries(user.ID)
	if err != nil {
		monitoring.Logf("failed to clear timeline for user %s: %v", user.ID, err)
		httputil.InternalServerError(w, "failed to clear timeline")
		return
	}
	if deleted == 0 {
		httputil.NotFound(w, "no timeline data to delete")
		return
	}

	httputil.WriteJSONOK(w, map[string]int64{"deleted": deleted})
}

func (s *Server) handleTimelineReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	user := auth.UserFromContext(r.Context())

	entries, err := s.db.EntriesForUser(user.ID)
	if err != nil {
		monitoring.Logf("failed to load timeline for report, user %s: %v", user.ID, err)
		httputil.InternalServerError(w, "failed to build report")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderSeverityChart(w, user.Name, entries); err != nil {
		monitoring.Logf("failed to render severity chart for user %s: %v", user.ID, err)
	}
}
