package core

import (
	"context"
	"time"

	"github.com/chitragupta-ai/chitragupta-server/internal/models"
)

// Store defines all persistence operations the services need. It abstracts
// Postgres so higher layers never depend on a specific DB; tests run against
// an in-memory implementation.
type Store interface {
	// WithTx runs fn against a transactional view of the store. The attempt
	// is retried on contention (serialization failure or unique-violation
	// races), so fn must be safe to re-run from the top.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	SetUserDirector(ctx context.Context, id string, director bool) error

	CreateLead(ctx context.Context, lead *models.Lead) error
	GetLeadByID(ctx context.Context, id string) (*models.Lead, error)
	FindLeadByPhone(ctx context.Context, phone string) (*models.Lead, error)
	FindLeadByEmail(ctx context.Context, email string) (*models.Lead, error)
	ListLeads(ctx context.Context, limit int) ([]models.Lead, error)
	UpdateLeadStatus(ctx context.Context, id, status string) error
	UpdateLeadConsent(ctx context.Context, id, consentStatus string) error
	TouchLeadContacted(ctx context.Context, id string, at time.Time) error
	CountLeadsCreatedSince(ctx context.Context, since time.Time) (int64, error)

	// UpsertEnquiry inserts the enquiry if its id is unseen and reports
	// whether a row was created. Re-ingesting the same id is a no-op.
	UpsertEnquiry(ctx context.Context, enquiry *models.Enquiry) (created bool, err error)
	GetEnquiryByID(ctx context.Context, id string) (*models.Enquiry, error)
	ListUntriagedEnquiries(ctx context.Context, limit int) ([]models.Enquiry, error)
	// MarkEnquiryTriaged flips triaged exactly once; it reports false when
	// the enquiry was already triaged.
	MarkEnquiryTriaged(ctx context.Context, id string) (bool, error)

	AppendMessage(ctx context.Context, msg *models.Message) error
	ListMessagesByLead(ctx context.Context, leadID string, limit int) ([]models.Message, error)
	CountOutboundWhatsAppSince(ctx context.Context, since time.Time) (int64, error)
	CountOutboundWhatsAppForLeadSince(ctx context.Context, leadID string, since time.Time) (int64, error)

	CreateApproval(ctx context.Context, approval *models.Approval) error
	GetApprovalByID(ctx context.Context, id string) (*models.Approval, error)
	// GetApprovalForDecision loads the approval and, inside a transaction,
	// locks its row until the transaction ends so concurrent decisions
	// serialize.
	GetApprovalForDecision(ctx context.Context, id string) (*models.Approval, error)
	ListApprovalsByStatus(ctx context.Context, status string, limit int) ([]models.Approval, error)
	// FinalizeApproval applies the terminal state only if the approval is
	// still pending and reports whether the write applied.
	FinalizeApproval(ctx context.Context, id, status, outcome, decidedBy string, decidedAt time.Time) (bool, error)
	CountPendingApprovals(ctx context.Context) (int64, error)

	CreateQuote(ctx context.Context, quote *models.Quote) error
	GetQuoteByID(ctx context.Context, id string) (*models.Quote, error)
	UpdateQuoteStatus(ctx context.Context, id, status string) error
	SumOpenQuoteTotals(ctx context.Context) (float64, error)

	// IncDailyMetric atomically adds delta to the named counter for the
	// given day key, creating the row when absent.
	IncDailyMetric(ctx context.Context, dayKey, counter string, delta int64) error
	GetDailyMetric(ctx context.Context, dayKey string) (*models.DailyMetric, error)

	GetSystemConfig(ctx context.Context, id string) (map[string]string, error)
	SetSystemConfig(ctx context.Context, id string, data map[string]string) error

	InsertMemory(ctx context.Context, memory *models.Memory) error
	SearchMemories(ctx context.Context, embedding []float32, limit int) ([]models.Memory, error)
}

// ObjectClient defines interactions with S3 or any object storage. Quote
// PDFs are stored here and referenced by URL.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
}

// LLMProvider generates draft text. Treated as a black box; failures
// propagate as drafting errors.
type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// EmbeddingProvider turns text into vectors for memory retrieval.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SendResult is what the WhatsApp transport reports back; enough detail to
// audit the attempt.
type SendResult struct {
	Success   bool
	Provider  string
	MessageID string
	Error     string
}

// Transport performs the actual external WhatsApp send. Implementations must
// bound the call with a timeout.
type Transport interface {
	Send(ctx context.Context, to, message string) (SendResult, error)
}
