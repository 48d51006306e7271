// Package api provides the HTTP bridge between dashboard pages and the
// assistant engine.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/moviops/movi-console/internal/assistant"
	"github.com/moviops/movi-console/internal/bus"
)

// maxRequestBodySize caps inbound bridge bodies (4MB, image payloads included).
const maxRequestBodySize = 4 << 20

// Handler exposes the assistant engine to external collaborators: the
// chat box, the voice button, the image picker and the dashboard pages
// that inject intents.
type Handler struct {
	engine *assistant.Coordinator
	bus    *bus.Bus
}

// NewHandler creates a bridge handler over the engine and intent bus.
func NewHandler(engine *assistant.Coordinator, intentBus *bus.Bus) *Handler {
	return &Handler{
		engine: engine,
		bus:    intentBus,
	}
}

// RegisterRoutes registers the assistant bridge routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/assistant", func(r chi.Router) {
		r.Post("/message", h.HandleMessage)
		r.Post("/image", h.HandleImage)
		r.Post("/voice", h.HandleVoice)
		r.Post("/intent", h.HandleIntent)
		r.Get("/history", h.HandleHistory)
		r.Delete("/history", h.HandleClearHistory)
		r.Get("/state", h.HandleState)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

type messageRequest struct {
	Message string `json:"message"`
	Context string `json:"context,omitempty"`
}

type imageRequest struct {
	Image   string `json:"image"`
	Caption string `json:"caption,omitempty"`
	Context string `json:"context,omitempty"`
}

type voiceRequest struct {
	Context string `json:"context,omitempty"`
}

// HandleMessage handles POST /api/assistant/message: one typed turn,
// processed to completion before the response is written.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	h.respondToSubmit(w, r, h.engine.Submit(r.Context(), assistant.Submission{
		Text:    req.Message,
		Context: req.Context,
		Source:  assistant.SourceTyped,
	}))
}

// HandleImage handles POST /api/assistant/image: an attachment with an
// implicit caption.
func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Image == "" {
		Error(w, http.StatusBadRequest, "image is required")
		return
	}
	caption := req.Caption
	if caption == "" {
		caption = assistant.DefaultImageCaption
	}

	h.respondToSubmit(w, r, h.engine.Submit(r.Context(), assistant.Submission{
		Text:    caption,
		Image:   req.Image,
		Context: req.Context,
		Source:  assistant.SourceImage,
	}))
}

// HandleVoice handles POST /api/assistant/voice: captures one utterance
// through the speech capability and submits the transcript.
func (h *Handler) HandleVoice(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.engine.Listen(r.Context(), req.Context)
	if errors.Is(err, assistant.ErrRecognizerUnavailable) {
		Error(w, http.StatusServiceUnavailable, "speech recognition not supported")
		return
	}
	if errors.Is(err, assistant.ErrEmptySubmission) || errors.Is(err, assistant.ErrBusy) {
		h.respondToSubmit(w, r, err)
		return
	}
	if err != nil {
		slog.Warn("voice capture failed", "error", err)
		Error(w, http.StatusBadGateway, "voice capture failed")
		return
	}
	h.respondToSubmit(w, r, nil)
}

// HandleIntent handles POST /api/assistant/intent: dashboard pages inject
// an assistant-equivalent command without coupling to the engine.
func (h *Handler) HandleIntent(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Message == "" {
		Error(w, http.StatusBadRequest, "message is required")
		return
	}

	h.bus.Publish(bus.Intent{Message: req.Message})
	JSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// HandleHistory handles GET /api/assistant/history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	messages, err := h.engine.History(r.Context())
	if err != nil {
		slog.Error("failed to load transcript", "error", err)
		Error(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// HandleClearHistory handles DELETE /api/assistant/history.
func (h *Handler) HandleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ClearHistory(r.Context()); err != nil {
		slog.Error("failed to clear transcript", "error", err)
		Error(w, http.StatusInternalServerError, "failed to clear history")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// HandleState handles GET /api/assistant/state: the presentation-layer
// affordance signals.
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"loading":              h.engine.Loading(),
		"awaitingConfirmation": h.engine.AwaitingConfirmation(),
		"sessionId":            h.engine.SessionID(),
	})
}

// respondToSubmit maps the engine's drop policy onto bridge status codes:
// an empty submission is a silent no-op, a busy drop is a conflict.
func (h *Handler) respondToSubmit(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, assistant.ErrEmptySubmission):
		JSON(w, http.StatusOK, map[string]string{"status": "ignored"})
	case errors.Is(err, assistant.ErrBusy):
		Error(w, http.StatusConflict, "request already in flight")
	case err != nil:
		slog.Error("submission failed", "error", err)
		Error(w, http.StatusInternalServerError, "submission failed")
	default:
		JSON(w, http.StatusOK, map[string]interface{}{
			"status":               "completed",
			"awaitingConfirmation": h.engine.AwaitingConfirmation(),
			"sessionId":            h.engine.SessionID(),
		})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
