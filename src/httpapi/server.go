// Package httpapi exposes the session manager and answerer over a
// small JSON HTTP API.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/askimmigrate/askimmigrate/src/agent"
	"github.com/askimmigrate/askimmigrate/src/observability"
	"github.com/askimmigrate/askimmigrate/src/session"
	"github.com/askimmigrate/askimmigrate/src/storage"
)

type Server struct {
	manager  *session.Manager
	answerer agent.Answerer
	metrics  *observability.Metrics
	logger   *slog.Logger
}

func New(manager *session.Manager, answerer agent.Answerer, metrics *observability.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		manager:  manager,
		answerer: answerer,
		metrics:  metrics,
		logger:   logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/query", s.handleQuery)
	r.Get("/v1/sessions", s.handleListSessions)
	r.Get("/v1/sessions/{id}/history", s.handleHistory)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type queryRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Question  string `json:"question"`
}

type queryResponse struct {
	SessionID      string   `json:"session_id"`
	SessionCreated bool     `json:"session_created"`
	TurnNumber     int      `json:"turn_number"`
	Question       string   `json:"question"`
	Answer         string   `json:"answer"`
	QuestionType   string   `json:"question_type"`
	IsFollowup     bool     `json:"is_followup"`
	Reason         string   `json:"followup_reason"`
	ToolsUsed      []string `json:"tools_used,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ctx := r.Context()
	start := time.Now()

	state, err := s.manager.CreateInitialState(ctx, req.SessionID, req.Question)
	if err != nil {
		if errors.Is(err, session.ErrEmptyQuestion) {
			respondError(w, http.StatusBadRequest, "empty_question", "question must not be empty")
			return
		}
		s.logger.Error("failed to prepare session state", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to prepare session state")
		return
	}
	if state.SessionCreated {
		s.metrics.SessionsCreated.Inc()
	}
	s.metrics.Followups.WithLabelValues(string(state.Reason)).Inc()

	answer, err := s.answerer.Answer(ctx, req.Question, state)
	if err != nil {
		s.logger.Error("answerer failed", "session_id", state.SessionID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to answer question")
		return
	}

	turn, err := s.manager.SaveConversationResult(ctx, state.SessionID, req.Question, answer.Text, session.TurnMetadata{
		ToolsUsed: answer.ToolsUsed,
	})
	if err != nil {
		s.logger.Error("failed to save conversation turn", "session_id", state.SessionID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to save conversation turn")
		return
	}
	s.metrics.TurnsSaved.Inc()
	s.metrics.QuestionTypes.WithLabelValues(string(turn.QuestionType)).Inc()
	s.metrics.ObserveSaveLatency(time.Since(start))

	respondJSON(w, http.StatusOK, queryResponse{
		SessionID:      state.SessionID,
		SessionCreated: state.SessionCreated,
		TurnNumber:     turn.TurnNumber,
		Question:       turn.Question,
		Answer:         turn.Answer,
		QuestionType:   string(turn.QuestionType),
		IsFollowup:     state.IsFollowup,
		Reason:         string(state.Reason),
		ToolsUsed:      []string(turn.ToolsUsed),
	})
}

type sessionSummary struct {
	SessionID string                 `json:"session_id"`
	TurnCount int                    `json:"turn_count"`
	Context   storage.SessionContext `json:"context"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.manager.ListSessions(r.Context())
	if err != nil {
		s.logger.Error("failed to list sessions", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list sessions")
		return
	}

	summaries := make([]sessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		summaries = append(summaries, sessionSummary{
			SessionID: sess.SessionID,
			TurnCount: sess.TurnCount,
			Context:   sess.Context,
			CreatedAt: sess.CreatedAt,
			UpdatedAt: sess.UpdatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"sessions": summaries})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	turns, err := s.manager.History(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to load history", "session_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load history")
		return
	}
	if len(turns) == 0 {
		respondError(w, http.StatusNotFound, "session_not_found", "no turns recorded for session")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"turns":      turns,
	})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
