package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Brownie44l1/angle-api/internal/model"
	"github.com/Brownie44l1/angle-api/internal/response"
	"github.com/Brownie44l1/angle-api/internal/samples"
)

const maxUploadSize = 10 << 20

// EvalSample classifies a random bundled image from group and answers with
// the voice-assistant envelope.
func (h *Handler) EvalSample(group string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		frame, err := h.samples.Pick(group)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		label, err := h.classifier.Classify(frame.Data)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("failed to classify %s: %w", frame.Name, err))
			return
		}

		slog.Info("Sample classified", "group", group, "sample", frame.Name, "label", label)
		h.writeJSON(w, http.StatusOK, h.formatter.Voice(label, frame.Name))
	}
}

// Analyze classifies the image uploaded in the multipart field "file".
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.writeError(w, r, badRequest{fmt.Errorf("failed to parse form: %w", err)})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, badRequest{errors.New("no image file provided, use 'file' as the form field name")})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, r, badRequest{fmt.Errorf("failed to read upload: %w", err)})
		return
	}

	slog.Info("Received file", "filename", header.Filename, "size", header.Size)

	label, err := h.classifier.Classify(data)
	if errors.Is(err, model.ErrInvalidImage) {
		h.writeError(w, r, badRequest{err})
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewSimple(label))
}

// Live classifies a fresh frame from the capture service.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	frame, err := h.live.Fetch(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	label, err := h.classifier.Classify(frame.Data)
	if errors.Is(err, model.ErrInvalidImage) {
		h.writeError(w, r, fmt.Errorf("%w: %w", samples.ErrLiveSource, err))
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	slog.Info("Live frame classified", "label", label)
	h.writeJSON(w, http.StatusOK, h.formatter.Voice(label, frame.Name))
}
