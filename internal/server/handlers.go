package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/querysight/querysight/internal/chart"
	"github.com/querysight/querysight/internal/errs"
	"github.com/querysight/querysight/internal/executor"
	"github.com/querysight/querysight/internal/logger"
	"github.com/querysight/querysight/internal/modules"
	"github.com/querysight/querysight/internal/pipeline"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps an *errs.Error kind to an HTTP status.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	kind := ""

	var e *errs.Error
	if errors.As(err, &e) {
		kind = e.Kind.String()
		switch {
		case errs.IsInvalidInput(err):
			status = http.StatusBadRequest
		case errs.IsNotFound(err):
			status = http.StatusNotFound
		case errs.IsBlocked(err):
			status = http.StatusForbidden
		case errs.IsPlanning(err):
			status = http.StatusUnprocessableEntity
		case errs.IsTimeout(err):
			status = http.StatusGatewayTimeout
		}
	}

	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "question is required"})
		return
	}

	schema, err := s.describe(r.Context(), false)
	if err != nil {
		writeError(w, err)
		return
	}

	analysis, err := s.pipe.Ask(r.Context(), req.Question, schema)
	if err != nil {
		logger.FromContext(r.Context()).With().Err(err).Logger().Warn("planning failed")
		writeError(w, err)
		return
	}

	s.recordAnalysis(analysis)
	writeJSON(w, statusOf(analysis), analysis)
}

type queryRequest struct {
	SQL      string `json:"sql"`
	Question string `json:"question,omitempty"`
}

// handleQuery runs user-edited SQL. The guardrail still applies — there
// is no execution path around it.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SQL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "sql is required"})
		return
	}

	analysis := s.pipe.RunSQL(r.Context(), req.SQL, req.Question)
	s.recordAnalysis(analysis)
	writeJSON(w, statusOf(analysis), analysis)
}

// statusOf maps an analysis outcome to an HTTP status: blocked statements
// are reported as forbidden, everything else (including query errors,
// which are data for the UI) as OK.
func statusOf(a *pipeline.Analysis) int {
	if a.Result != nil && a.Result.Status == executor.StatusBlocked {
		return http.StatusForbidden
	}
	return http.StatusOK
}

func (s *Server) recordAnalysis(a *pipeline.Analysis) {
	rows := 0
	if a.Result != nil && a.Result.Records != nil {
		rows = len(a.Result.Records.Rows)
	}
	status := ""
	if a.Result != nil {
		status = string(a.Result.Status)
	}
	s.record(HistoryEntry{
		Question: a.Question,
		SQL:      a.SQL,
		Status:   status,
		RowCount: rows,
		At:       time.Now().UTC(),
	})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := s.describe(r.Context(), false)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

func (s *Server) handleSchemaRefresh(w http.ResponseWriter, r *http.Request) {
	schema, err := s.describe(r.Context(), true)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	entries := make([]HistoryEntry, len(s.history))
	copy(entries, s.history)
	s.mu.Unlock()

	// Newest first for the UI's log panel.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	writeJSON(w, http.StatusOK, entries)
}

type moduleSaveRequest struct {
	Title    string     `json:"title"`
	Question string     `json:"question,omitempty"`
	SQL      string     `json:"sql"`
	Spec     chart.Spec `json:"spec"`
}

func (s *Server) handleModuleSave(w http.ResponseWriter, r *http.Request) {
	var req moduleSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" || req.SQL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "title and sql are required"})
		return
	}

	m := &modules.Module{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Question:  req.Question,
		SQL:       req.SQL,
		Spec:      req.Spec,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.mods.Save(r.Context(), m); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleModuleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.mods.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []*modules.Module{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleModuleGet(w http.ResponseWriter, r *http.Request) {
	m, err := s.mods.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleModuleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.mods.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
