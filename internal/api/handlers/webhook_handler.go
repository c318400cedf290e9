package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chitragupta-ai/chitragupta-server/internal/core/intake"
	"github.com/chitragupta-ai/chitragupta-server/internal/models"
	"github.com/chitragupta-ai/chitragupta-server/internal/services"
)

// WebhookHandler receives social platform events (Instagram, Facebook,
// YouTube). Payload shapes vary per platform, so the body is normalized into
// the canonical enquiry before ingestion.
type WebhookHandler struct {
	leads *services.LeadService
}

func NewWebhookHandler(leads *services.LeadService) *WebhookHandler {
	return &WebhookHandler{leads: leads}
}

func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	if !intake.ValidSource(source) || source == models.SourceManual {
		http.Error(w, "unknown source", http.StatusBadRequest)
		return
	}

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	enquiry := intake.NormalizeWebhook(source, payload, time.Now())
	res, err := h.leads.Ingest(r.Context(), enquiry, models.ChannelSocial)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"enquiry_id": res.Enquiry.ID,
		"created":    res.Created,
	})
}
