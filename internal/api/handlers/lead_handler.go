package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chitragupta-ai/chitragupta-server/internal/core"
	"github.com/chitragupta-ai/chitragupta-server/internal/services"
)

type LeadHandler struct {
	store core.Store
	leads *services.LeadService
}

func NewLeadHandler(store core.Store, leads *services.LeadService) *LeadHandler {
	return &LeadHandler{store: store, leads: leads}
}

func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	leads, err := h.store.ListLeads(r.Context(), queryLimit(r, 100))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(leads)
}

// Get returns one lead with its recent conversation.
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	lead, err := h.store.GetLeadByID(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if lead == nil {
		http.Error(w, "lead not found", http.StatusNotFound)
		return
	}

	messages, err := h.store.ListMessagesByLead(r.Context(), id, queryLimit(r, 50))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"lead":     lead,
		"messages": messages,
	})
}

type consentRequest struct {
	ConsentStatus string `json:"consent_status"`
}

func (h *LeadHandler) UpdateConsent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req consentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	status, err := h.leads.UpdateConsent(r.Context(), id, req.ConsentStatus)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeStatus(w, status, map[string]string{"consent_status": req.ConsentStatus})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *LeadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	status, err := h.leads.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeStatus(w, status, map[string]string{"status": req.Status})
}

// writeStatus maps a service status code onto the HTTP response.
func writeStatus(w http.ResponseWriter, status core.StatusCode, body any) {
	switch status {
	case core.StatusNotFound:
		http.Error(w, "not found", http.StatusNotFound)
	case core.StatusValidation:
		http.Error(w, "invalid value", http.StatusBadRequest)
	case core.StatusNotActionable:
		http.Error(w, "not actionable", http.StatusConflict)
	default:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}
}
