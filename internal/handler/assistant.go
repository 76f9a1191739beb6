package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/carbon-assistant/server/internal/agent/pipeline"
	errx "github.com/carbon-assistant/server/internal/core/error"
	"github.com/carbon-assistant/server/internal/ingest"
	"github.com/carbon-assistant/server/internal/metrics"
)

const maxUploadBytes = 10 << 20

// AssistantHandler serves the assistant flow over HTTP.
type AssistantHandler struct {
	assistant *pipeline.Assistant
	metrics   *metrics.Metrics
}

func NewAssistantHandler(assistant *pipeline.Assistant, m *metrics.Metrics) *AssistantHandler {
	return &AssistantHandler{assistant: assistant, metrics: m}
}

// RegisterRoutes mounts the assistant routes on r.
func (h *AssistantHandler) RegisterRoutes(r chi.Router) {
	h.route(r, http.MethodPost, "/upload", h.handleUpload)
	h.route(r, http.MethodPost, "/predict", h.handlePredict)
	h.route(r, http.MethodPost, "/optimize", h.handleOptimize)
	h.route(r, http.MethodGet, "/readiness", h.handleReadiness)
	h.route(r, http.MethodPost, "/confirm", h.handleConfirm)
	h.route(r, http.MethodPost, "/generate-report", h.handleGenerateReport)
	h.route(r, http.MethodGet, "/stats", h.handleStats)
}

func (h *AssistantHandler) route(r chi.Router, method, pattern string, fn http.HandlerFunc) {
	r.Method(method, pattern, h.metrics.WrapHandler(pattern, fn))
}

func (h *AssistantHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("uploaded file exceeds %d MiB", tooLarge.Limit>>20))
			return
		}
		RespondError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	table, err := ingest.ReadCSV(file)
	if err != nil {
		RespondAppError(w, r, errx.InvalidInput(err, fmt.Sprintf("could not parse CSV: %v", err)))
		return
	}

	res, err := h.assistant.Upload(r.Context(),
		strings.TrimSpace(r.Header.Get(HeaderSessionID)),
		strings.TrimSpace(r.Header.Get(HeaderCompanyName)),
		table,
	)
	if err != nil {
		RespondAppError(w, r, err)
		return
	}

	w.Header().Set(HeaderSessionID, res.SessionID)
	RespondJSON(w, http.StatusOK, map[string]any{
		"message":    "File uploaded and processed successfully",
		"session_id": res.SessionID,
		"preview":    res.Preview,
		"rows":       res.Rows,
	})
}

func (h *AssistantHandler) handlePredict(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSessionID(w, r)
	if !ok {
		return
	}
	out, err := h.assistant.Predict(r.Context(), id)
	if err != nil {
		RespondAppError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, out)
}

func (h *AssistantHandler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSessionID(w, r)
	if !ok {
		return
	}
	out, err := h.assistant.Optimize(r.Context(), id)
	if err != nil {
		RespondAppError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, out)
}

func (h *AssistantHandler) handleReadiness(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSessionID(w, r)
	if !ok {
		return
	}
	out, err := h.assistant.Readiness(r.Context(), id)
	if err != nil {
		RespondAppError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, out)
}

func (h *AssistantHandler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSessionID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.assistant.Confirm(r.Context(), id, payload.Response)
	if err != nil {
		RespondAppError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, out)
}

func (h *AssistantHandler) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSessionID(w, r)
	if !ok {
		return
	}
	rep, err := h.assistant.Report(r.Context(), id, strings.TrimSpace(r.Header.Get(HeaderCompanyName)))
	if err != nil {
		RespondAppError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", rep.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", rep.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rep.Body)
}

func (h *AssistantHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.assistant.Stats(r.Context())
	if err != nil {
		RespondAppError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, out)
}

func requireSessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get(HeaderSessionID))
	if id == "" {
		RespondError(w, http.StatusBadRequest, HeaderSessionID+" header is required")
		return "", false
	}
	return id, true
}
