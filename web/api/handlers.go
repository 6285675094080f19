package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mfo-tools/mfo-claim/internal/domain"
	"github.com/mfo-tools/mfo-claim/internal/runner"
)

// RunResponse is the API response for a run
type RunResponse struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	Status     string  `json:"status"`
	DayNo      int     `json:"day_no"`
	BonusDay   bool    `json:"bonus_day"`
	StartedAt  string  `json:"started_at"`
	FinishedAt *string `json:"finished_at,omitempty"`
}

// AccountResponse is the API response for an account entry. Passwords
// never leave the process.
type AccountResponse struct {
	Label    string `json:"label,omitempty"`
	Username string `json:"username"`
}

// StatusResponse is the API response for overall status
type StatusResponse struct {
	Running      bool   `json:"running"`
	LastStage    string `json:"last_stage"`
	CaptchaReady bool   `json:"captcha_ready"`
	Total        int    `json:"total_runs"`
	Completed    int    `json:"completed"`
	Failed       int    `json:"failed"`
}

// StartRunRequest is the request body for starting a run
type StartRunRequest struct {
	Username      string `json:"username"`
	CaptchaAnswer string `json:"captcha_answer"`
}

func runToResponse(r *domain.Run) RunResponse {
	resp := RunResponse{
		ID:        r.ID,
		Username:  r.Username,
		Status:    string(r.Status),
		DayNo:     r.DayNo,
		BonusDay:  r.BonusDay,
		StartedAt: r.StartedAt.Format(time.RFC3339),
	}
	if r.FinishedAt != nil {
		t := r.FinishedAt.Format(time.RFC3339)
		resp.FinishedAt = &t
	}
	return resp
}

func (s *Server) statusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		runs, err := s.store.ListRuns(0)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		s.mu.RLock()
		status := StatusResponse{
			Running:      s.runner.Running(),
			LastStage:    string(s.lastStage),
			CaptchaReady: s.gate.Image() != nil,
			Total:        len(runs),
		}
		s.mu.RUnlock()

		for _, run := range runs {
			switch run.Status {
			case domain.RunCompleted:
				status.Completed++
			case domain.RunFailed:
				status.Failed++
			}
		}

		writeJSON(w, status)
	}
}

func (s *Server) listAccountsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		accounts := s.accounts()
		resp := make([]AccountResponse, len(accounts))
		for i, a := range accounts {
			resp[i] = AccountResponse{Label: a.Label, Username: a.Username}
		}

		writeJSON(w, resp)
	}
}

func (s *Server) runsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.listRuns(w)
		case http.MethodPost:
			s.startRun(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *Server) listRuns(w http.ResponseWriter) {
	runs, err := s.store.ListRuns(50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]RunResponse, len(runs))
	for i, run := range runs {
		resp[i] = runToResponse(run)
	}

	writeJSON(w, resp)
}

func (s *Server) startRun(w http.ResponseWriter, r *http.Request) {
	var req StartRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var account *domain.Account
	for _, a := range s.accounts() {
		if a.Username == req.Username || a.Label == req.Username {
			account = &a
			break
		}
	}
	if account == nil {
		writeError(w, http.StatusNotFound, "unknown account")
		return
	}

	s.gate.SetAnswer(req.CaptchaAnswer)

	// The run outlives the request: the request context dies as soon as
	// the response is written, so the worker gets its own context.
	runID, err := s.runner.Start(context.Background(), *account)
	switch {
	case errors.Is(err, runner.ErrRunInFlight):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, runner.ErrNoCaptchaAnswer):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, map[string]string{"run_id": runID})
}

func (s *Server) getRunHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		// /api/runs/{id} or /api/runs/{id}/events
		path := strings.TrimPrefix(r.URL.Path, "/api/runs/")
		if path == "" {
			writeError(w, http.StatusBadRequest, "run ID required")
			return
		}

		if id, ok := strings.CutSuffix(path, "/events"); ok {
			events, err := s.store.ListEvents(id)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, events)
			return
		}

		run, err := s.store.GetRun(path)
		if err != nil {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}

		writeJSON(w, runToResponse(run))
	}
}

func (s *Server) captchaImageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		img := s.gate.Image()
		if img == nil {
			writeError(w, http.StatusNotFound, "no captcha loaded, refresh first")
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(img)
	}
}

func (s *Server) captchaRefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		if err := s.gate.Refresh(r.Context()); err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}

		writeJSON(w, map[string]string{"status": "refreshed"})
	}
}
