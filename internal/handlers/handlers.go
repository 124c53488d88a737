package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Brownie44l1/angle-api/internal/response"
	"github.com/Brownie44l1/angle-api/internal/samples"
)

// Classifier turns encoded image bytes into a class label. *model.Server
// satisfies it.
type Classifier interface {
	Classify(data []byte) (string, error)
}

type SamplePicker interface {
	Pick(group string) (samples.Frame, error)
}

type FrameSource interface {
	Fetch(ctx context.Context) (samples.Frame, error)
}

type Handler struct {
	classifier Classifier
	samples    SamplePicker
	live       FrameSource
	formatter  *response.Formatter
	indexPath  string
	staticDir  string
}

type Options struct {
	Classifier Classifier
	Samples    SamplePicker
	Live       FrameSource
	Formatter  *response.Formatter
	IndexPath  string
	StaticDir  string
}

func NewHandler(opts Options) *Handler {
	return &Handler{
		classifier: opts.Classifier,
		samples:    opts.Samples,
		live:       opts.Live,
		formatter:  opts.Formatter,
		indexPath:  opts.IndexPath,
		staticDir:  opts.StaticDir,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// badRequest marks errors caused by the caller's input.
type badRequest struct{ error }

// statusError carries an explicit HTTP status.
type statusError struct {
	status int
	error
}

func statusFor(err error) int {
	var br badRequest
	var se statusError
	switch {
	case errors.As(err, &se):
		return se.status
	case errors.As(err, &br):
		return http.StatusBadRequest
	case errors.Is(err, samples.ErrLiveSource):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
