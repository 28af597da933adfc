package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"eco-menu/internal/auth"
	"eco-menu/internal/history"
	"eco-menu/internal/llm"
	"eco-menu/internal/logger"
	"eco-menu/internal/media"
	"eco-menu/internal/menu"
	"eco-menu/internal/metrics"
	"eco-menu/internal/session"
)

// defaultHistoryLimit matches the generation path: three recent plans.
const defaultHistoryLimit = 3

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Warn("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRecognize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Image string `json:"image"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}

	img, err := media.ParseDataURL(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	comp, err := s.provider.RecognizeIngredients(r.Context(), img)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	s.recordUsage(r.Context(), metrics.OpRecognize, comp.Usage, time.Since(start))

	ingredients, err := s.decoder.DecodeIngredients(comp.Text)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{"ingredients": ingredients})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ingredients []string         `json:"ingredients"`
		History     *[]history.Entry `json:"history"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Ingredients) == 0 {
		writeError(w, http.StatusBadRequest, "ingredients must not be empty")
		return
	}

	// An explicit history in the request wins; otherwise look up the
	// caller's recent plans.
	var recent []history.Entry
	if req.History != nil {
		recent = *req.History
	} else {
		recent = s.history.FetchRecent(r.Context(), auth.UserIDFromContext(r.Context()), defaultHistoryLimit)
	}

	start := time.Now()
	comp, err := s.provider.GenerateMenu(r.Context(), req.Ingredients, recent)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	s.recordUsage(r.Context(), metrics.OpGenerateMenu, comp.Usage, time.Since(start))

	plan, err := s.decoder.DecodeMenuPlan(comp.Text)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries := s.history.FetchRecent(r.Context(), auth.UserIDFromContext(r.Context()), limit)
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string][]history.Entry{"history": entries})
}

func (s *Server) handleHistorySave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Plan            menu.MenuPlan `json:"plan"`
		UsedIngredients []string      `json:"used_ingredients"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Plan.Days) != menu.PlanDays {
		writeError(w, http.StatusBadRequest, "plan must contain exactly three days")
		return
	}

	saved := s.history.Save(r.Context(), auth.UserIDFromContext(r.Context()), req.Plan, req.UsedIngredients)
	writeJSON(w, http.StatusOK, map[string]bool{"saved": saved})
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, s.sessions.Create())
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Image string `json:"image"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}

	sess, err := s.sessions.SetImage(chi.URLParam(r, "id"), req.Image)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionAnalyze(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Analyze(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionAddIngredient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	sess, err := s.sessions.AddIngredient(chi.URLParam(r, "id"), req.Name)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionRemoveIngredient(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "ingredient index must be an integer")
		return
	}

	sess, err := s.sessions.RemoveIngredient(chi.URLParam(r, "id"), index)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionGenerate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Generate(r.Context(), chi.URLParam(r, "id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionAdopt(w http.ResponseWriter, r *http.Request) {
	sess, saved, err := s.sessions.Adopt(r.Context(), chi.URLParam(r, "id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		session.Session
		Saved bool `json:"saved"`
	}{Session: sess, Saved: saved})
}

func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Reset(chi.URLParam(r, "id"))
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// writePipelineError maps provider and decoding failures to 500s with
// messages the user acts on: the shape violation has its own retry
// wording, a parse failure is surfaced distinctly, and transport failures
// stay generic.
func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	var shapeErr *menu.ShapeError
	var provErr *llm.ProviderError

	switch {
	case errors.As(err, &shapeErr):
		logger.L().Warn("menu plan shape violation", zap.Int("days", shapeErr.Got))
		writeError(w, http.StatusInternalServerError, "menu generation failed, please retry")
	case errors.Is(err, menu.ErrMalformedResponse):
		logger.L().Warn("malformed model response", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not parse the model response, please retry")
	case errors.As(err, &provErr):
		logger.L().Error("provider call failed",
			zap.String("provider", provErr.Provider), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "the model service did not respond, please retry")
	default:
		logger.L().Error("unexpected pipeline failure", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrNoImage),
		errors.Is(err, session.ErrNoIngredients),
		errors.Is(err, session.ErrNoPlan),
		errors.Is(err, session.ErrEmptyIngredient),
		errors.Is(err, session.ErrDuplicateIngredient),
		errors.Is(err, session.ErrBadIngredientIndex),
		errors.Is(err, media.ErrNotDataURL),
		errors.Is(err, media.ErrUnsupportedMediaType):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.writePipelineError(w, err)
	}
}

func (s *Server) recordUsage(ctx context.Context, operation string, usage llm.TokenUsage, latency time.Duration) {
	if s.metrics == nil {
		return
	}
	if err := s.metrics.RecordUsage(ctx, operation, s.provider.Name(), usage, latency); err != nil {
		logger.L().Warn("failed to record usage metric",
			zap.String("operation", operation), zap.Error(err))
	}
}
