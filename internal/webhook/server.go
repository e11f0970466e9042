// Package webhook receives platform updates over HTTP and hands them to
// the moderator workers through NATS. The receiver validates and forwards;
// it never decides or enforces anything itself.
package webhook

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/namegate/namegate/internal/telegram"
)

// maxBodyBytes bounds an update payload. Real updates are a few KB.
const maxBodyBytes = 1 << 20

// UpdatePublisher forwards a serialized update to the workers. The NATS
// client implements it.
type UpdatePublisher interface {
	PublishUpdate(data []byte) error
}

// HandlerConfig holds receiver settings.
type HandlerConfig struct {
	// SecretToken, when set, must match the X-Telegram-Bot-Api-Secret-Token
	// header on every update. Requests without it are rejected.
	SecretToken string
}

// Handler is the webhook HTTP surface.
type Handler struct {
	config    HandlerConfig
	publisher UpdatePublisher
}

// NewHandler creates a webhook handler publishing to publisher.
func NewHandler(config HandlerConfig, publisher UpdatePublisher) *Handler {
	return &Handler{config: config, publisher: publisher}
}

// Mux returns the receiver's routes: POST /webhook and GET /healthz.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", h.handleUpdate)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	return mux
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if h.config.SecretToken != "" &&
		r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != h.config.SecretToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "bad secret token"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(body) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty request"})
		return
	}

	// Parse before publishing so malformed payloads are rejected here
	// instead of poisoning a worker.
	var update telegram.Update
	if err := json.Unmarshal(body, &update); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if err := h.publisher.PublishUpdate(body); err != nil {
		log.Printf("[webhook] publish update=%d failed: %v", update.UpdateID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "update processing failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ready",
		"service": "namegate-webhook",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[webhook] write response: %v", err)
	}
}
