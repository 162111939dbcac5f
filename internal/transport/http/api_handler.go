package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"ranking-session-service/internal/app"
	"ranking-session-service/internal/domain"
)

// APIHandler exposes the non-session surface: the quiz catalog, graded
// history, result projections, and instructor corrections. The attempt
// itself only moves over the websocket.
type APIHandler struct {
	service *app.SessionService
}

func NewAPIHandler(service *app.SessionService) *APIHandler {
	return &APIHandler{service: service}
}

// Register mounts the API routes on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/quizzes", h.listQuizzes)
	mux.HandleFunc("GET /api/scores", h.learnerScores)
	mux.HandleFunc("GET /api/results/{scoreID}", h.results)
	mux.HandleFunc("POST /api/results/{scoreID}/corrections", h.correct)
}

func (h *APIHandler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	learnerID := r.URL.Query().Get("learnerId")
	if learnerID == "" {
		http.Error(w, "missing learnerId", http.StatusBadRequest)
		return
	}
	quizzes, err := h.service.AvailableQuizzes(r.Context(), learnerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *APIHandler) learnerScores(w http.ResponseWriter, r *http.Request) {
	learnerID := r.URL.Query().Get("learnerId")
	if learnerID == "" {
		http.Error(w, "missing learnerId", http.StatusBadRequest)
		return
	}
	records, err := h.service.LearnerScores(r.Context(), learnerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *APIHandler) results(w http.ResponseWriter, r *http.Request) {
	record, insights, err := h.service.Results(r.Context(), r.PathValue("scoreID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultsPayload{Record: record, Insights: insights})
}

type correctionRequest struct {
	Scope         domain.CorrectionScope `json:"scope"`
	QuestionIndex int                    `json:"questionIndex"`
	NewValue      float64                `json:"newValue"`
	Reason        string                 `json:"reason"`
	Editor        string                 `json:"editor"`
}

func (h *APIHandler) correct(w http.ResponseWriter, r *http.Request) {
	var req correctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid correction body", http.StatusBadRequest)
		return
	}
	record, err := h.service.Correct(r.Context(), r.PathValue("scoreID"), domain.AuditEntry{
		Scope:         req.Scope,
		QuestionIndex: req.QuestionIndex,
		NewValue:      req.NewValue,
		Reason:        req.Reason,
		Editor:        req.Editor,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var correction *domain.CorrectionError
	switch {
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrScoreNotFound):
		status = http.StatusNotFound
	case errors.As(err, &correction):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	}
	http.Error(w, err.Error(), status)
}
