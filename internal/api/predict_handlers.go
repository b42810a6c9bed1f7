package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/calyx-health/triage.report/internal/diagnosis"
	"github.com/calyx-health/triage.report/internal/engine"
	"github.com/calyx-health/triage.report/internal/httputil"
	"github.com/calyx-health/triage.report/internal/monitoring"
)

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req engine.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid JSON body")
		return
	}
	if req.TopK == 0 {
		req.TopK = s.cfg.GetTopK()
	}

	resp, err := s.engine.Predict(req)
	switch {
	case err == nil:
		httputil.WriteJSONOK(w, resp)
	case errors.Is(err, engine.ErrNoValidSymptoms):
		httputil.BadRequest(w, "no recognizable symptoms in request")
	case errors.Is(err, diagnosis.ErrEmptyEncoding):
		httputil.UnprocessableEntity(w, "symptoms are not covered by the diagnosis model")
	default:
		monitoring.Logf("prediction failed: %v", err)
		httputil.InternalServerError(w, "prediction failed")
	}
}

func (s *Server) handleSymptoms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	symptoms, err := s.engine.Vocabulary()
	if err != nil {
		monitoring.Logf("failed to load symptom vocabulary: %v", err)
		httputil.InternalServerError(w, "failed to load symptom vocabulary")
		return
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"symptoms": symptoms,
		"count":    len(symptoms),
	})
}
