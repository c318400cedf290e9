package intake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chitragupta-ai/chitragupta-server/internal/models"
)

func TestSanitizeRef(t *testing.T) {
	assert.Equal(t, "ABC-123_x", SanitizeRef("ABC-123_x"))
	assert.Equal(t, "a_b_c", SanitizeRef("a b/c"))
	assert.Equal(t, "____", SanitizeRef("@#$%"))
}

func TestEnquiryIDIsDeterministic(t *testing.T) {
	first := EnquiryID(models.SourceIndiaMart, "QUERY/42")
	second := EnquiryID(models.SourceIndiaMart, "QUERY/42")
	assert.Equal(t, first, second)
	assert.Equal(t, "indiamart_QUERY_42", first)

	// Different sources never collide on the same ref.
	assert.NotEqual(t, first, EnquiryID(models.SourceTradeIndia, "QUERY/42"))
}

func TestFallbackRefIsUnique(t *testing.T) {
	refs := map[string]bool{}
	for i := 0; i < 100; i++ {
		refs[FallbackRef("evt")] = true
	}
	assert.Greater(t, len(refs), 1)
}

func TestNewEnquiryDefaultsContent(t *testing.T) {
	e := NewEnquiry(models.SourceInstagram, "dm1", "", models.Contact{Username: "asha"}, time.Now())
	assert.Equal(t, "Message received", e.Content)
	assert.Equal(t, "instagram_dm1", e.ID)
	assert.False(t, e.Triaged)
}

func TestNormalizeWebhook(t *testing.T) {
	payload := map[string]any{
		"id":      "evt-99",
		"message": "do you ship to Pune?",
		"name":    "Ravi",
		"phone":   "+911234567890",
	}
	e := NormalizeWebhook(models.SourceFacebook, payload, time.Now())
	assert.Equal(t, "facebook_evt-99", e.ID)
	assert.Equal(t, "do you ship to Pune?", e.Content)
	assert.Equal(t, "Ravi", e.Contact.Name)
	assert.Equal(t, "+911234567890", e.Contact.Phone)

	// text is the fallback content field; a missing id gets a fallback ref.
	e = NormalizeWebhook(models.SourceYouTube, map[string]any{"text": "nice video"}, time.Now())
	assert.Equal(t, "nice video", e.Content)
	assert.NotEmpty(t, e.SourceRef)
}

func TestValidSource(t *testing.T) {
	assert.True(t, ValidSource(models.SourceIndiaMart))
	assert.True(t, ValidSource(models.SourceManual))
	assert.False(t, ValidSource("telegram"))
	assert.False(t, ValidSource(""))
}
