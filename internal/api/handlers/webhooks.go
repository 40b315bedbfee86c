package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tablecraft/integration-hub/internal/api/dto"
	"github.com/tablecraft/integration-hub/internal/infrastructure/storage"
	"github.com/tablecraft/integration-hub/internal/providers"
)

// WebhooksHandler receives provider push events, verifies their signatures,
// and dispatches them to the provider's ProcessWebhook.
type WebhooksHandler struct {
	Base
	registry *providers.Registry
	repo     storage.Repository
	secrets  map[string]string // provider name -> webhook secret
	logger   *slog.Logger
}

// NewWebhooksHandler creates a new webhooks handler.
func NewWebhooksHandler(registry *providers.Registry, repo storage.Repository, secrets map[string]string, logger *slog.Logger) *WebhooksHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhooksHandler{
		registry: registry,
		repo:     repo,
		secrets:  secrets,
		logger:   logger,
	}
}

// Receive handles POST /api/webhooks/{name}. The raw body is verified
// against the X-Webhook-Signature header before any processing.
func (h *WebhooksHandler) Receive(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	provider, err := h.registry.Get(name)
	if err != nil {
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("provider "+name))
		return
	}

	handler, ok := provider.(providers.WebhookHandler)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("provider does not support webhooks"))
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("unreadable body"))
		return
	}

	signature := r.Header.Get("X-Webhook-Signature")
	secret := h.secrets[name]
	verified := secret != "" && handler.VerifyWebhook(payload, signature, secret)

	event := &storage.WebhookEvent{
		ID:         uuid.NewString(),
		Provider:   name,
		EventType:  eventType(payload),
		Payload:    string(payload),
		Verified:   verified,
		ReceivedAt: time.Now().UTC(),
	}
	if h.repo != nil {
		if err := h.repo.SaveWebhookEvent(event); err != nil {
			h.logger.Error("failed to save webhook event", slog.String("error", err.Error()))
		}
	}

	if !verified {
		h.logger.Warn("rejected webhook with bad signature", slog.String("provider", name))
		h.WriteError(w, http.StatusUnauthorized, dto.UnauthorizedError("invalid webhook signature"))
		return
	}

	if err := handler.ProcessWebhook(r.Context(), payload); err != nil {
		h.logger.Error("webhook processing failed",
			slog.String("provider", name),
			slog.String("error", err.Error()),
		)
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.WebhookAckResponse{
		EventID:  event.ID,
		Provider: name,
		Accepted: true,
	})
}

// eventType pulls the event type field out of the envelope for the audit
// trail, tolerating any payload shape.
func eventType(payload []byte) string {
	var envelope struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil || envelope.EventType == "" {
		return "unknown"
	}
	return envelope.EventType
}
