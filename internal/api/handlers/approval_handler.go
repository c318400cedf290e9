package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chitragupta-ai/chitragupta-server/internal/core"
	"github.com/chitragupta-ai/chitragupta-server/internal/models"
	"github.com/chitragupta-ai/chitragupta-server/internal/services"
)

type ApprovalHandler struct {
	approvals *services.ApprovalService
}

func NewApprovalHandler(approvals *services.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvals: approvals}
}

type draftRequest struct {
	LeadID  string `json:"lead_id"`
	Message string `json:"message"`
}

// CreateDraft queues a WhatsApp draft for review.
func (h *ApprovalHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	approval, status, err := h.approvals.CreateWhatsAppDraft(r.Context(), req.LeadID, req.Message)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeStatus(w, status, approval)
}

// List returns approvals filtered by status; pending is the default queue.
func (h *ApprovalHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = models.ApprovalPending
	}

	approvals, err := h.approvals.ListByStatus(r.Context(), status, queryLimit(r, 100))
	if err == core.ErrNotFound {
		http.Error(w, "unknown status", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(approvals)
}

func (h *ApprovalHandler) Get(w http.ResponseWriter, r *http.Request) {
	approval, err := h.approvals.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if approval == nil {
		http.Error(w, "approval not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(approval)
}

type decideRequest struct {
	Decision string `json:"decision"`
}

// Decide settles one approval. A finalized decision always answers 200 with
// the recorded outcome, even when the gateway refused the send; the approval
// is terminal either way.
func (h *ApprovalHandler) Decide(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		http.Error(w, "user_id not found in context", http.StatusUnauthorized)
		return
	}

	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	res, err := h.approvals.Decide(r.Context(), chi.URLParam(r, "id"), req.Decision, userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// A finalized approval carries its terminal state; anything else is a
	// precondition failure.
	if res.Approval == "" {
		switch res.Status {
		case core.StatusNotFound:
			http.Error(w, res.Reason, http.StatusNotFound)
			return
		case core.StatusValidation:
			http.Error(w, res.Reason, http.StatusBadRequest)
			return
		}
	}
	if res.Status == core.StatusNotActionable {
		http.Error(w, res.Reason, http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
