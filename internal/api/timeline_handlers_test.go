package api

import (
	"net/http"
	"strings"
	"testing"
)

func addTimelineEntry(t *testing.T, s *Server, token string, body map[string]interface{}) string {
	t.Helper()

	rec := doJSON(t, s, http.MethodPost, "/api/timeline", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add entry status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID string `json:"id"`
	}
	decodeJSON(t, rec, &resp)
	if resp.ID == "" {
		t.Fatal("no entry id returned")
	}
	return resp.ID
}

func TestTimelineRequiresAuth(t *testing.T) {
	s := newTestServer(t)

	paths := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/timeline"},
		{http.MethodPost, "/api/timeline"},
		{http.MethodDelete, "/api/timeline/some-id"},
		{http.MethodGet, "/api/timeline/report"},
		{http.MethodGet, "/api/privacy/summary"},
		{http.MethodDelete, "/api/privacy/timeline"},
	}
	for _, p := range paths {
		rec := doJSON(t, s, p.method, p.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want %d", p.method, p.path, rec.Code, http.StatusUnauthorized)
		}
	}
}

func TestTimelineAddAndList(t *testing.T) {
	s := newTestServer(t)
	token := signupTestUser(t, s, "timeline@example.com")

	addTimelineEntry(t, s, token, map[string]interface{}{
		"symptoms":       []string{"Fever", "Headache"},
		"notes":          "started overnight",
		"triage_level":   "Medium",
		"severity_score": 8,
		"occurred_at":    "2026-04-01T10:00:00Z",
	})
	addTimelineEntry(t, s, token, map[string]interface{}{
		"symptoms":    []string{"cough"},
		"occurred_at": "2026-04-02T09:00:00Z",
	})

	rec := doJSON(t, s, http.MethodGet, "/api/timeline", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Entries []struct {
			Symptoms []string `json:"symptoms"`
			Notes    string   `json:"notes"`
		} `json:"entries"`
		Count int `json:"count"`
	}
	decodeJSON(t, rec, &resp)

	if resp.Count != 2 {
		t.Fatalf("count = %d, want 2", resp.Count)
	}
	// Newest first.
	if resp.Entries[0].Symptoms[0] != "cough" {
		t.Errorf("first entry symptom = %q, want 'cough'", resp.Entries[0].Symptoms[0])
	}
	if resp.Entries[1].Notes != "started overnight" {
		t.Errorf("notes = %q, want 'started overnight'", resp.Entries[1].Notes)
	}
	// Symptoms are stored normalized.
	if resp.Entries[1].Symptoms[0] != "fever" {
		t.Errorf("stored symptom = %q, want normalized 'fever'", resp.Entries[1].Symptoms[0])
	}
}

func TestTimelineListEmpty(t *testing.T) {
	s := newTestServer(t)
	token := signupTestUser(t, s, "empty@example.com")

	rec := doJSON(t, s, http.MethodGet, "/api/timeline", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"entries":[]`) {
		t.Errorf("empty timeline should encode as [], got %s", rec.Body.String())
	}
}

func TestTimelineAddValidation(t *testing.T) {
	s := newTestServer(t)
	token := signupTestUser(t, s, "invalid@example.com")

	// No usable symptoms.
	rec := doJSON(t, s, http.MethodPost, "/api/timeline", token, map[string]interface{}{
		"symptoms": []string{"nan", ""},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty symptoms status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	// Bad timestamp.
	rec = doJSON(t, s, http.MethodPost, "/api/timeline", token, map[string]interface{}{
		"symptoms":    []string{"fever"},
		"occurred_at": "yesterday",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad occurred_at status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestTimelineDelete(t *testing.T) {
	s := newTestServer(t)
	token := signupTestUser(t, s, "delete@example.com")
	other := signupTestUser(t, s, "other@example.com")

	id := addTimelineEntry(t, s, token, map[string]interface{}{
		"symptoms": []string{"fever"},
	})

	// Another user cannot delete it.
	rec := doJSON(t, s, http.MethodDelete, "/api/timeline/"+id, other, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-user delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/timeline/"+id, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Gone now.
	rec = doJSON(t, s, http.MethodDelete, "/api/timeline/"+id, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("repeat delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestPrivacySummary(t *testing.T) {
	s := newTestServer(t)
	token := signupTestUser(t, s, "privacy@example.com")

	rec := doJSON(t, s, http.MethodGet, "/api/privacy/summary", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		EntryCount  int     `json:"entry_count"`
		HasData     bool    `json:"has_data"`
		LastEntryAt *string `json:"last_entry_at"`
	}
	decodeJSON(t, rec, &resp)
	if resp.EntryCount != 0 || resp.HasData || resp.LastEntryAt != nil {
		t.Errorf("empty summary = %+v", resp)
	}

	addTimelineEntry(t, s, token, map[string]interface{}{
		"symptoms":    []string{"fever"},
		"occurred_at": "2026-04-01T10:00:00Z",
	})

	rec = doJSON(t, s, http.MethodGet, "/api/privacy/summary", token, nil)
	decodeJSON(t, rec, &resp)
	if resp.EntryCount != 1 || !resp.HasData {
		t.Errorf("summary after add = %+v", resp)
	}
	if resp.LastEntryAt == nil || *resp.LastEntryAt != "2026-04-01T10:00:00Z" {
		t.Errorf("last_entry_at = %v, want 2026-04-01T10:00:00Z", resp.LastEntryAt)
	}
}

func TestPrivacyClear(t *testing.T) {
	s := newTestServer(t)
	token := signupTestUser(t, s, "clear@example.com")

	// Nothing to delete yet.
	rec := doJSON(t, s, http.MethodDelete, "/api/privacy/timeline", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("empty clear status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	addTimelineEntry(t, s, token, map[string]interface{}{"symptoms": []string{"fever"}})
	addTimelineEntry(t, s, token, map[string]interface{}{"symptoms": []string{"cough"}})

	rec = doJSON(t, s, http.MethodDelete, "/api/privacy/timeline", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]int64
	decodeJSON(t, rec, &resp)
	if resp["deleted"] != 2 {
		t.Errorf("deleted = %d, want 2", resp["deleted"])
	}
}

func TestTimelineReport(t *testing.T) {
	s := newTestServer(t)
	token := signupTestUser(t, s, "report@example.com")

	addTimelineEntry(t, s, token, map[string]interface{}{
		"symptoms":       []string{"fever"},
		"severity_score": 6,
		"triage_level":   "Medium",
		"occurred_at":    "2026-04-01T10:00:00Z",
	})

	rec := doJSON(t, s, http.MethodGet, "/api/timeline/report", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content-type = %q, want text/html", ct)
	}
	if !strings.Contains(rec.Body.String(), "Symptom Severity Over Time") {
		t.Error("chart title missing from report")
	}
}
