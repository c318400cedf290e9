package models

import (
	"time"
)

// User represents an operator of the console. Director users are allowed to
// decide approvals and mutate CRM state.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Director     bool      `db:"director" json:"director"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Enquiry source values.
const (
	SourceIndiaMart  = "indiamart"
	SourceTradeIndia = "tradeindia"
	SourceInstagram  = "instagram"
	SourceFacebook   = "facebook"
	SourceYouTube    = "youtube"
	SourceManual     = "manual"
)

// Lead status values. Status moves forward under normal flow; lost is
// reachable from any state.
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusQuoted    = "quoted"
	LeadStatusWon       = "won"
	LeadStatusLost      = "lost"
)

// Consent status values. Outbound WhatsApp is only permitted for opt_in.
const (
	ConsentUnknown = "unknown"
	ConsentOptIn   = "opt_in"
	ConsentOptOut  = "opt_out"
)

// Lead is the deduplicated customer identity. At most one lead exists per
// distinct non-empty phone and per distinct non-empty email.
type Lead struct {
	ID              string     `db:"id" json:"id"`
	Name            string     `db:"name" json:"name,omitempty"`
	Phone           string     `db:"phone" json:"phone,omitempty"`
	Email           string     `db:"email" json:"email,omitempty"`
	WhatsAppNumber  string     `db:"whatsapp_number" json:"whatsapp_number,omitempty"`
	Source          string     `db:"source" json:"source"`
	Status          string     `db:"status" json:"status"`
	ConsentStatus   string     `db:"consent_status" json:"consent_status"`
	LastContactedAt *time.Time `db:"last_contacted_at" json:"last_contacted_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Contact carries whatever sender details an inbound channel provided.
type Contact struct {
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

// Enquiry is a raw inbound contact event, pre-dedup. Its ID is derived from
// source and sanitized sourceRef, so re-ingesting the same item is idempotent.
type Enquiry struct {
	ID        string    `db:"id" json:"id"`
	Source    string    `db:"source" json:"source"`
	SourceRef string    `db:"source_ref" json:"source_ref"`
	Content   string    `db:"content" json:"content"`
	Contact   Contact   `db:"contact" json:"contact"`
	LeadID    string    `db:"lead_id" json:"lead_id,omitempty"`
	Triaged   bool      `db:"triaged" json:"triaged"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Approval kinds.
const (
	ApprovalKindWhatsApp = "whatsapp"
	ApprovalKindQuote    = "quote"
)

// Approval status values. pending is the only non-terminal state.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Outcome values recorded on a decided approval.
const (
	OutcomeSent           = "sent"
	OutcomeRejected       = "rejected"
	OutcomeNoNumber       = "no_number"
	OutcomeMissingConsent = "missing_consent"
	OutcomeRateLimited    = "rate_limited"
	OutcomeSendFailed     = "send_failed"
)

// Draft is the payload awaiting approval, tagged by kind: whatsapp drafts
// carry a message, quote drafts reference the quote document.
type Draft struct {
	Kind    string  `json:"kind"`
	Message string  `json:"message,omitempty"`
	QuoteID string  `json:"quote_id,omitempty"`
	PDFURL  string  `json:"pdf_url,omitempty"`
	Total   float64 `json:"total,omitempty"`
}

// Approval is a pending human-gated action. Status transitions only
// pending→approved or pending→rejected, exactly once.
type Approval struct {
	ID        string     `db:"id" json:"id"`
	Kind      string     `db:"kind" json:"kind"`
	LeadID    string     `db:"lead_id" json:"lead_id"`
	Draft     Draft      `db:"draft" json:"draft"`
	Status    string     `db:"status" json:"status"`
	Outcome   string     `db:"outcome" json:"outcome,omitempty"`
	DecidedBy string     `db:"decided_by" json:"decided_by,omitempty"`
	DecidedAt *time.Time `db:"decided_at" json:"decided_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// Message direction, channel and status values.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"

	ChannelWhatsApp = "whatsapp"
	ChannelManual   = "manual"
	ChannelSocial   = "social"

	MessageQueued = "queued"
	MessageSent   = "sent"
	MessageFailed = "failed"
)

// Message is one entry in a lead's append-only communication log.
type Message struct {
	ID        string            `db:"id" json:"id"`
	LeadID    string            `db:"lead_id" json:"lead_id"`
	Direction string            `db:"direction" json:"direction"`
	Channel   string            `db:"channel" json:"channel"`
	Content   string            `db:"content" json:"content"`
	Status    string            `db:"status" json:"status,omitempty"`
	Metadata  map[string]string `db:"metadata" json:"metadata,omitempty"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
}

// Quote status values.
const (
	QuoteDraft    = "draft"
	QuoteApproved = "approved"
	QuoteSent     = "sent"
)

// QuoteItem is a single line on a quotation.
type QuoteItem struct {
	Title string  `json:"title"`
	Qty   float64 `json:"qty"`
	Price float64 `json:"price"`
}

type Quote struct {
	ID        string      `db:"id" json:"id"`
	LeadID    string      `db:"lead_id" json:"lead_id"`
	Items     []QuoteItem `db:"items" json:"items"`
	Total     float64     `db:"total" json:"total"`
	Status    string      `db:"status" json:"status"`
	PDFURL    string      `db:"pdf_url" json:"pdf_url,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// DailyMetric holds per-day counters keyed by YYYY-MM-DD. Counters are only
// mutated through atomic increments.
type DailyMetric struct {
	ID               string    `db:"id" json:"id"`
	ApprovalsPending int64     `db:"approvals_pending" json:"approvals_pending"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Memory is a brand-voice or context snippet retrieved by vector similarity
// when drafting outbound content.
type Memory struct {
	ID        string    `db:"id" json:"id"`
	Content   string    `db:"content" json:"content"`
	Embedding []float32 `db:"embedding" json:"embedding,omitempty"`
	Type      string    `db:"type" json:"type"` // brand_voice | past_negotiation | inventory_fact
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DayKey returns the calendar-day key used for daily counters.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// StartOfDay returns local midnight for t; rate limits and "today" metrics
// count from this boundary.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
