package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chitragupta-ai/chitragupta-server/internal/config"
	"github.com/chitragupta-ai/chitragupta-server/internal/core"
	"github.com/chitragupta-ai/chitragupta-server/internal/models"
	"github.com/chitragupta-ai/chitragupta-server/internal/services"
)

type QuoteHandler struct {
	store        core.Store
	objectclient core.ObjectClient
	approvals    *services.ApprovalService
	cfg          *config.Config
}

func NewQuoteHandler(store core.Store, objectclient core.ObjectClient, approvals *services.ApprovalService, cfg *config.Config) *QuoteHandler {
	return &QuoteHandler{store: store, objectclient: objectclient, approvals: approvals, cfg: cfg}
}

// Create stores a quotation draft and queues it for approval. The request is
// multipart: an items JSON field plus an optional PDF that is uploaded to
// object storage and linked by URL.
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.ParseMultipartForm(20 << 20)

	leadID := r.FormValue("lead_id")
	if leadID == "" {
		http.Error(w, "lead_id is required", http.StatusBadRequest)
		return
	}

	var items []models.QuoteItem
	if err := json.Unmarshal([]byte(r.FormValue("items")), &items); err != nil {
		http.Error(w, "invalid items", http.StatusBadRequest)
		return
	}

	pdfURL := ""
	if file, header, err := r.FormFile("pdf"); err == nil {
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, "could not read pdf", http.StatusBadRequest)
			return
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/pdf"
		}

		key := fmt.Sprintf("quotes/%s/%s.pdf", leadID, uuid.NewString())

		uploadCtx, cancel := context.WithTimeout(r.Context(), time.Minute)
		defer cancel()

		pdfURL, err = h.objectclient.UploadFile(uploadCtx, h.cfg.BucketName, key, data, contentType)
		if err != nil {
			http.Error(w, fmt.Sprintf("upload failed: %v", err), http.StatusInternalServerError)
			return
		}
	}

	approval, quote, status, err := h.approvals.CreateQuoteDraft(r.Context(), leadID, items, pdfURL)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeStatus(w, status, map[string]any{
		"quote":    quote,
		"approval": approval,
	})
}

func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	quote, err := h.store.GetQuoteByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if quote == nil {
		http.Error(w, "quote not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(quote)
}
