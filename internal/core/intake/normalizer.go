package intake

import (
	"fmt"
	"math/rand"
	"regexp"
	"time"

	"github.com/chitragupta-ai/chitragupta-server/internal/models"
)

var idSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SanitizeRef strips everything outside [a-zA-Z0-9_-] from a source-local
// reference so it is safe inside a document id.
func SanitizeRef(value string) string {
	return idSanitizer.ReplaceAllString(value, "_")
}

// EnquiryID derives the deterministic enquiry id from source and sourceRef.
// Same (source, sourceRef) always yields the same id, which is what makes
// re-ingestion idempotent.
func EnquiryID(source, sourceRef string) string {
	return source + "_" + SanitizeRef(sourceRef)
}

// FallbackRef builds a time+random token for source data with no natural
// key. Enquiries carrying a fallback ref are not deduplicable.
func FallbackRef(prefix string) string {
	return fmt.Sprintf("%s_%d_%04d", prefix, time.Now().UnixMilli(), rand.Intn(10000))
}

// NewEnquiry builds the canonical enquiry record for any channel.
func NewEnquiry(source, sourceRef, content string, contact models.Contact, now time.Time) *models.Enquiry {
	if content == "" {
		content = "Message received"
	}
	return &models.Enquiry{
		ID:        EnquiryID(source, sourceRef),
		Source:    source,
		SourceRef: sourceRef,
		Content:   content,
		Contact:   contact,
		Triaged:   false,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NormalizeWebhook converts an arbitrary social webhook payload into the
// canonical enquiry shape. Field names follow what the platforms actually
// send: message/text for content, then the usual sender fields.
func NormalizeWebhook(source string, payload map[string]any, now time.Time) *models.Enquiry {
	sourceRef := stringField(payload, "id")
	if sourceRef == "" {
		sourceRef = FallbackRef("evt")
	}

	content := stringField(payload, "message")
	if content == "" {
		content = stringField(payload, "text")
	}

	contact := models.Contact{
		Name:     stringField(payload, "name"),
		Phone:    stringField(payload, "phone"),
		Email:    stringField(payload, "email"),
		Username: stringField(payload, "username"),
	}

	return NewEnquiry(source, sourceRef, content, contact, now)
}

func stringField(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

// ValidSource reports whether the channel is one the console knows.
func ValidSource(source string) bool {
	switch source {
	case models.SourceIndiaMart, models.SourceTradeIndia, models.SourceInstagram,
		models.SourceFacebook, models.SourceYouTube, models.SourceManual:
		return true
	}
	return false
}
