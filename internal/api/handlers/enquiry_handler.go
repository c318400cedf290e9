package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chitragupta-ai/chitragupta-server/internal/core"
	"github.com/chitragupta-ai/chitragupta-server/internal/core/intake"
	"github.com/chitragupta-ai/chitragupta-server/internal/models"
	"github.com/chitragupta-ai/chitragupta-server/internal/services"
)

// EnquiryHandler covers every way enquiries enter the system: CSV import,
// manual entry, document upload and the IndiaMART poll, plus triage.
type EnquiryHandler struct {
	store     core.Store
	leads     *services.LeadService
	indiamart *intake.IndiaMartClient
}

func NewEnquiryHandler(store core.Store, leads *services.LeadService, indiamart *intake.IndiaMartClient) *EnquiryHandler {
	return &EnquiryHandler{store: store, leads: leads, indiamart: indiamart}
}

type importSummary struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Leads    int `json:"leads_created"`
}

// ImportCSV ingests a CSV export from IndiaMART, TradeIndia or similar. The
// column mapping is auto-detected from the header row and can be overridden
// with a mapping form field.
func (h *EnquiryHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	r.ParseMultipartForm(10 << 20)

	source := r.FormValue("source")
	if !intake.ValidSource(source) {
		http.Error(w, "unknown source", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	headers, rows, err := intake.ParseCSV(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	mapping := intake.DetectCSVMapping(headers)
	if raw := r.FormValue("mapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			http.Error(w, "invalid mapping", http.StatusBadRequest)
			return
		}
	}

	now := time.Now()
	summary := importSummary{}
	for _, row := range rows {
		enquiry := intake.EnquiryFromCSVRow(source, row, mapping, now)
		res, err := h.leads.Ingest(r.Context(), enquiry, models.ChannelManual)
		if err != nil {
			log.Printf("[enquiries] import row failed: %v", err)
			summary.Skipped++
			continue
		}
		if res.Created {
			summary.Imported++
		} else {
			summary.Skipped++
		}
		if res.LeadCreated {
			summary.Leads++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

type manualEnquiryRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Content string `json:"content"`
}

// CreateManual records a walk-in or phone enquiry typed in by an operator.
func (h *EnquiryHandler) CreateManual(w http.ResponseWriter, r *http.Request) {
	var req manualEnquiryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Phone == "" && req.Email == "" {
		http.Error(w, "phone or email is required", http.StatusBadRequest)
		return
	}

	contact := models.Contact{Name: req.Name, Phone: req.Phone, Email: req.Email}
	enquiry := intake.NewEnquiry(models.SourceManual, intake.FallbackRef("man"), req.Content, contact, time.Now())

	res, err := h.leads.Ingest(r.Context(), enquiry, models.ChannelManual)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// UploadDocument ingests an enquiry document (emailed PDF, scanned letter).
// The extracted text becomes the enquiry content.
func (h *EnquiryHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.ParseMultipartForm(20 << 20)

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "could not read file", http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	text, err := intake.ExtractDocumentText(data, contentType)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	contact := models.Contact{
		Name:  r.FormValue("name"),
		Phone: r.FormValue("phone"),
		Email: r.FormValue("email"),
	}
	if contact.Phone == "" && contact.Email == "" {
		http.Error(w, "phone or email is required", http.StatusBadRequest)
		return
	}

	enquiry := intake.NewEnquiry(models.SourceManual, intake.FallbackRef("doc"), text, contact, time.Now())
	res, err := h.leads.Ingest(r.Context(), enquiry, models.ChannelManual)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// ListUntriaged returns the enquiry inbox.
func (h *EnquiryHandler) ListUntriaged(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50)
	enquiries, err := h.store.ListUntriagedEnquiries(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(enquiries)
}

// Triage marks one enquiry as handled.
func (h *EnquiryHandler) Triage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status, err := h.leads.Triage(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	switch status {
	case core.StatusNotFound:
		http.Error(w, "enquiry not found", http.StatusNotFound)
	case core.StatusNotActionable:
		http.Error(w, "enquiry already triaged", http.StatusConflict)
	default:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "triaged"})
	}
}

// PollIndiaMART pulls the last poll window from the IndiaMART CRM API and
// ingests whatever it returns. Query ids dedupe repeat polls.
func (h *EnquiryHandler) PollIndiaMART(w http.ResponseWriter, r *http.Request) {
	if h.indiamart == nil {
		http.Error(w, "indiamart is not configured", http.StatusServiceUnavailable)
		return
	}

	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 168 {
			hours = n
		}
	}

	to := time.Now()
	from := to.Add(-time.Duration(hours) * time.Hour)

	enquiries, err := h.indiamart.FetchEnquiries(r.Context(), from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	summary := importSummary{}
	for _, enquiry := range enquiries {
		res, err := h.leads.Ingest(r.Context(), enquiry, models.ChannelManual)
		if err != nil {
			log.Printf("[enquiries] indiamart ingest failed: %v", err)
			summary.Skipped++
			continue
		}
		if res.Created {
			summary.Imported++
		} else {
			summary.Skipped++
		}
		if res.LeadCreated {
			summary.Leads++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

func queryLimit(r *http.Request, fallback int) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			return n
		}
	}
	return fallback
}
