// Package api exposes the analysis pipeline over a local REST API and an
// MCP server.
package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/forme-app/forme/internal/ingest"
	"github.com/forme-app/forme/internal/ingredient"
	"github.com/forme-app/forme/internal/pipeline"
	"github.com/forme-app/forme/internal/profile"
	"github.com/forme-app/forme/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB
const maxLabelBodySize = 10 << 20  // 10MB

const maxBatchItems = 20

type AppDeps struct {
	Store    *storage.Store
	Profiles *profile.Manager
	Analyzer *pipeline.Analyzer
	Token    string
	LabelDir string // directory where uploaded label documents are spooled
}

// NewAppHandler returns the REST API handler. /health is open; everything
// else requires the bearer token.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/analyze", handleAnalyze(deps))
		r.Post("/analyze/batch", handleBatchAnalyze(deps))
		r.Post("/labels", handleSubmitLabel(deps))

		r.Get("/users/{id}/profile", handleGetProfile(deps))
		r.Put("/users/{id}/profile", handlePutProfile(deps))
		r.Get("/users/{id}/profile/summary", handleProfileSummary(deps))
		r.Post("/users/{id}/reactions", handleAddReaction(deps))
		r.Get("/users/{id}/analyses", handleListAnalyses(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleAnalyze(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req pipeline.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.UserID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id is required")
			return
		}
		if req.RawText == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "raw_text is required")
			return
		}

		res, err := deps.Analyzer.Analyze(r.Context(), req)
		if err != nil {
			analysisError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(res)
	}
}

type batchRequest struct {
	UserID string             `json:"user_id"`
	Items  []pipeline.Request `json:"items"`
}

func handleBatchAnalyze(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req batchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.UserID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id is required")
			return
		}
		if len(req.Items) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "items is required and must not be empty")
			return
		}
		if len(req.Items) > maxBatchItems {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "too many items: %d (max %d)", len(req.Items), maxBatchItems)
			return
		}

		results, err := deps.Analyzer.BatchAnalyze(r.Context(), req.UserID, req.Items)
		if err != nil {
			analysisError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"results": results})
	}
}

type labelRequest struct {
	UserID       string `json:"user_id"`
	Filename     string `json:"filename"`
	Content      string `json:"content"` // base64-encoded document
	ProductName  string `json:"product_name"`
	CategoryHint string `json:"category_hint"`
}

// handleSubmitLabel spools an uploaded label document to disk and queues a
// label_ingest job for the background worker.
func handleSubmitLabel(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxLabelBodySize)
		defer r.Body.Close()

		var req labelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.UserID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id is required")
			return
		}
		if req.Content == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "content is required")
			return
		}

		decoded, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid base64 content")
			return
		}

		if err := os.MkdirAll(deps.LabelDir, 0o755); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create label directory: %v", err)
			return
		}
		name := uuid.New().String() + filepath.Ext(req.Filename)
		path := filepath.Join(deps.LabelDir, name)
		if err := os.WriteFile(path, decoded, 0o644); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to store label: %v", err)
			return
		}

		payload, err := json.Marshal(ingest.LabelJobPayload{
			UserID:       req.UserID,
			Path:         path,
			ProductName:  req.ProductName,
			CategoryHint: req.CategoryHint,
		})
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create job payload: %v", err)
			return
		}
		job := storage.Job{
			ID:          uuid.New().String(),
			Type:        "label_ingest",
			PayloadJSON: string(payload),
		}
		if err := deps.Store.EnqueueJob(job); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to enqueue job: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"job_id": job.ID,
			"status": "queued",
		})
	}
}

func handleGetProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "id")

		p, err := deps.Profiles.Get(userID)
		if err != nil {
			analysisError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(p)
	}
}

func handlePutProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "id")

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var p profile.Profile
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		if err := deps.Profiles.Save(userID, p); err != nil {
			analysisError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "updated"})
	}
}

func handleProfileSummary(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "id")

		p, err := deps.Profiles.Get(userID)
		if err != nil {
			analysisError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"summary":    p.Summary(),
			"is_minimal": p.IsMinimal(),
		})
	}
}

func handleAddReaction(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "id")

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var reaction profile.Reaction
		if err := json.NewDecoder(r.Body).Decode(&reaction); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if reaction.Ingredient == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "ingredient is required")
			return
		}

		if err := deps.Profiles.AppendReaction(userID, reaction); err != nil {
			analysisError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"status": "recorded"})
	}
}

func handleListAnalyses(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "id")
		limit := parseIntParam(r, "limit", 20, 100)

		analyses, err := deps.Analyzer.History(userID, limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list analyses: %v", err)
			return
		}
		if analyses == nil {
			analyses = []storage.Analysis{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(analyses)
	}
}

// analysisError maps pipeline errors to HTTP responses: malformed input and
// profile data are the caller's problem, everything else is ours.
func analysisError(w http.ResponseWriter, err error) {
	var parseErr *ingredient.ParseError
	var profileErr *profile.InvalidProfileError
	switch {
	case errors.As(err, &parseErr):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", parseErr)
	case errors.As(err, &profileErr):
		httpError(w, http.StatusUnprocessableEntity, "invalid_profile_error", "%v", profileErr)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
