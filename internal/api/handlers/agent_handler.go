package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/chitragupta-ai/chitragupta-server/internal/core"
	"github.com/chitragupta-ai/chitragupta-server/internal/services"
)

// AgentHandler exposes the drafting assistant: next-best-action suggestions,
// LLM-composed drafts and brand voice memory.
type AgentHandler struct {
	store  core.Store
	drafts *services.DraftService
}

func NewAgentHandler(store core.Store, drafts *services.DraftService) *AgentHandler {
	return &AgentHandler{store: store, drafts: drafts}
}

type suggestRequest struct {
	Content string `json:"content"`
}

func (h *AgentHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.drafts.Suggest(req.Content))
}

type composeRequest struct {
	LeadID  string `json:"lead_id"`
	Content string `json:"content"`
}

// Compose drafts a reply for the lead. The result is only a draft; sending
// still goes through the approval queue.
func (h *AgentHandler) Compose(w http.ResponseWriter, r *http.Request) {
	var req composeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	lead, err := h.store.GetLeadByID(r.Context(), req.LeadID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if lead == nil {
		http.Error(w, "lead not found", http.StatusNotFound)
		return
	}

	draft, err := h.drafts.Compose(r.Context(), lead, req.Content)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"draft": draft})
}

type rememberRequest struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

func (h *AgentHandler) Remember(w http.ResponseWriter, r *http.Request) {
	var req rememberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Type == "" {
		req.Type = "brand_voice"
	}

	memory, err := h.drafts.Remember(r.Context(), req.Content, req.Type)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"id": memory.ID})
}
