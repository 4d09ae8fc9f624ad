package workflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sightline-ai/visibility-engine/internal/model"
	"github.com/sightline-ai/visibility-engine/internal/platform/errs"
)

// Transport handles the HTTP job-control surface.
type Transport struct {
	orch   *Orchestrator
	logger *slog.Logger
}

// NewTransport creates an HTTP transport backed by the given orchestrator.
func NewTransport(orch *Orchestrator, logger *slog.Logger) *Transport {
	return &Transport{orch: orch, logger: logger}
}

// RegisterRoutes attaches the transport's handlers to the given mux.
func (t *Transport) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /workflow/start", t.handleStart)
	mux.HandleFunc("GET /workflow/by-url", t.handleByURL)
	mux.HandleFunc("GET /workflow/{id}/status", t.handleStatus)
	mux.HandleFunc("GET /workflow/{id}/result", t.handleResult)
	mux.HandleFunc("DELETE /workflow/{id}", t.handleCancel)
	mux.HandleFunc("GET /healthz", t.handleHealth)
}

type startRequest struct {
	URL   string `json:"url"`
	Brand string `json:"brand"`
}

func (r startRequest) target() string {
	if r.URL != "" {
		return r.URL
	}
	return r.Brand
}

type startResponse struct {
	JobID  string    `json:"job_id"`
	Status JobStatus `json:"status"`
	Cached bool      `json:"cached"`
}

type statusResponse struct {
	Status         JobStatus `json:"status"`
	Progress       int       `json:"progress"`
	CurrentStep    string    `json:"current_step,omitempty"`
	CompletedSteps []string  `json:"completed_steps"`
	Error          string    `json:"error,omitempty"`
}

func (t *Transport) handleStart(w http.ResponseWriter, r *http.Request) {
	const maxRequestBody = 1 << 20 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.renderError(w, http.StatusBadRequest, "Invalid request body. Please send a JSON object with a \"url\" or \"brand\" field.")
		return
	}

	view, err := t.orch.Start(req.target())
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	status := http.StatusAccepted
	if view.Status == StatusCompleted {
		status = http.StatusOK
	}
	t.renderJSON(w, status, startResponse{JobID: view.ID, Status: view.Status, Cached: view.Cached})
}

func (t *Transport) handleStatus(w http.ResponseWriter, r *http.Request) {
	view, err := t.orch.Status(r.PathValue("id"))
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	status := http.StatusOK
	if !view.Status.Terminal() {
		status = http.StatusAccepted
	}
	t.renderJSON(w, status, statusResponse{
		Status:         view.Status,
		Progress:       view.Progress,
		CurrentStep:    view.CurrentStep,
		CompletedSteps: view.CompletedSteps,
		Error:          view.Error,
	})
}

func (t *Transport) handleResult(w http.ResponseWriter, r *http.Request) {
	view, err := t.orch.Result(r.PathValue("id"))
	if err != nil {
		t.handleServiceError(w, err)
		return
	}

	switch view.Status {
	case StatusCompleted:
		t.renderJSON(w, http.StatusOK, view.Result)
	case StatusFailed:
		t.renderError(w, http.StatusBadGateway, view.Error)
	case StatusCancelled:
		t.renderError(w, http.StatusConflict, "job was cancelled")
	default:
		// Still processing; 202 is a signal, not an error.
		t.renderJSON(w, http.StatusAccepted, statusResponse{
			Status:         view.Status,
			Progress:       view.Progress,
			CurrentStep:    view.CurrentStep,
			CompletedSteps: view.CompletedSteps,
		})
	}
}

func (t *Transport) handleCancel(w http.ResponseWriter, r *http.Request) {
	view, err := t.orch.Cancel(r.PathValue("id"))
	if err != nil {
		t.handleServiceError(w, err)
		return
	}
	t.renderJSON(w, http.StatusOK, statusResponse{
		Status:         view.Status,
		Progress:       view.Progress,
		CompletedSteps: view.CompletedSteps,
	})
}

func (t *Transport) handleByURL(w http.ResponseWriter, r *http.Request) {
	report, err := t.orch.ByURL(r.URL.Query().Get("url"))
	if err != nil {
		t.handleServiceError(w, err)
		return
	}
	t.renderJSON(w, http.StatusOK, report)
}

func (t *Transport) handleHealth(w http.ResponseWriter, _ *http.Request) {
	t.renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (t *Transport) handleServiceError(w http.ResponseWriter, err error) {
	var appErr *errs.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Kind {
		case errs.InvalidInput:
			status = http.StatusBadRequest
		case errs.Unreachable:
			status = http.StatusBadGateway
		case errs.Timeout:
			status = http.StatusGatewayTimeout
		case errs.CapacityExceeded:
			status = http.StatusTooManyRequests
		case errs.NotFound:
			status = http.StatusNotFound
		case errs.Conflict:
			status = http.StatusConflict
		case errs.ParsingFailed, errs.Unknown:
			// 500 Internal Server Error
		}
		t.renderError(w, status, appErr.Message)
		return
	}

	t.renderError(w, http.StatusInternalServerError, "An unexpected error occurred.")
}

func (t *Transport) renderJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		t.logger.Error("failed to encode response", "error", err)
		http.Error(w, `{"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (t *Transport) renderError(w http.ResponseWriter, status int, message string) {
	t.renderJSON(w, status, model.ErrorResponse{
		Error:      http.StatusText(status),
		StatusCode: status,
		Message:    message,
	})
}
