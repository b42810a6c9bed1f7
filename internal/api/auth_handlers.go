package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/calyx-health/triage.report/internal/auth"
	"github.com/calyx-health/triage.report/internal/db"
	"github.com/calyx-health/triage.report/internal/httputil"
	"github.com/calyx-health/triage.report/internal/monitoring"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User  *db.User `json:"user"`
	Token string   `json:"token"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid JSON body")
		return
	}

	if minLen := s.cfg.GetMinPasswordLength(); len(req.Password) < minLen {
		httputil.BadRequest(w, fmt.Sprintf("password must be at least %d characters", minLen))
		return
	}

	user, err := s.db.CreateUser(req.Name, req.Email, req.Password)
	if errors.Is(err, db.ErrEmailTaken) {
		httputil.WriteJSONError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	token, err := s.db.IssueToken(user.ID, s.cfg.GetTokenTTL())
	if err != nil {
		monitoring.Logf("failed to issue token for new user %s: %v", user.ID, err)
		httputil.InternalServerError(w, "failed to create session")
		return
	}

	httputil.WriteJSONCreated(w, sessionResponse{User: user, Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid JSON body")
		return
	}

	user, err := s.db.Authenticate(req.Email, req.Password)
	if errors.Is(err, db.ErrBadCredentials) {
		httputil.Unauthorized(w, "invalid email or password")
		return
	}
	if err != nil {
		monitoring.Logf("login failed for %s: %v", db.NormalizeEmail(req.Email), err)
		httputil.InternalServerError(w, "login failed")
		return
	}

	token, err := s.db.IssueToken(user.ID, s.cfg.GetTokenTTL())
	if err != nil {
		monitoring.Logf("failed to issue token for user %s: %v", user.ID, err)
		httputil.InternalServerError(w, "failed to create session")
		return
	}

	httputil.WriteJSONOK(w, sessionResponse{User: user, Token: token})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, auth.UserFromContext(r.Context()))
}
