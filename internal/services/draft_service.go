package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chitragupta-ai/chitragupta-server/internal/core"
	"github.com/chitragupta-ai/chitragupta-server/internal/models"
)

// Suggestion is the agent's next-best-action for an enquiry.
type Suggestion struct {
	Intent     string   `json:"intent"`
	Action     string   `json:"action"`
	Reply      string   `json:"reply"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// DraftService composes outbound drafts. Suggestions come from cheap keyword
// heuristics; full drafting goes through the LLM, grounded on brand voice
// memories when an embedder is wired.
type DraftService struct {
	store    core.Store
	llm      core.LLMProvider
	embedder core.EmbeddingProvider
	now      func() time.Time
}

func NewDraftService(store core.Store, llm core.LLMProvider, embedder core.EmbeddingProvider) *DraftService {
	return &DraftService{store: store, llm: llm, embedder: embedder, now: time.Now}
}

var (
	quoteSignals   = []string{"price", "quote", "quotation", "rate"}
	catalogSignals = []string{"catalog", "catalogue", "brochure", "pdf"}
)

// Suggest classifies the enquiry text and proposes a reply. Deterministic on
// purpose: the same text always yields the same suggestion.
func (s *DraftService) Suggest(content string) Suggestion {
	lower := strings.ToLower(content)

	for _, signal := range quoteSignals {
		if strings.Contains(lower, signal) {
			return Suggestion{
				Intent:     "pricing",
				Action:     "draft_quote",
				Reply:      "Thank you for your enquiry. Could you share the quantity and delivery location so we can prepare a quotation?",
				Confidence: 0.7,
				Reasons:    []string{"mentions " + signal},
			}
		}
	}

	for _, signal := range catalogSignals {
		if strings.Contains(lower, signal) {
			return Suggestion{
				Intent:     "catalog",
				Action:     "send_catalog",
				Reply:      "Thank you for reaching out. We will share our latest catalogue with you shortly.",
				Confidence: 0.65,
				Reasons:    []string{"mentions " + signal},
			}
		}
	}

	return Suggestion{
		Intent:     "general",
		Action:     "draft_reply",
		Reply:      "Thank you for contacting us. How can we help you today?",
		Confidence: 0.4,
		Reasons:    []string{"no pricing or catalog signal"},
	}
}

const draftSystemPrompt = `You draft short WhatsApp replies for a manufacturing sales team.
Keep replies under 80 words, polite and specific. Never invent prices or delivery dates.
Match the brand voice examples when given.`

// Compose drafts a reply to the lead's latest enquiry content with the LLM.
// When no LLM is configured it falls back to the heuristic suggestion so the
// approval queue keeps working offline.
func (s *DraftService) Compose(ctx context.Context, lead *models.Lead, content string) (string, error) {
	if s.llm == nil {
		return s.Suggest(content).Reply, nil
	}

	var voice string
	if s.embedder != nil {
		voice = s.brandVoice(ctx, content)
	}

	user := fmt.Sprintf("Lead: %s (status %s)\nEnquiry: %s", lead.Name, lead.Status, content)
	if voice != "" {
		user += "\n\nBrand voice examples:\n" + voice
	}

	draft, err := s.llm.Generate(ctx, draftSystemPrompt, user)
	if err != nil {
		return "", fmt.Errorf("compose draft: %w", err)
	}
	return strings.TrimSpace(draft), nil
}

// brandVoice retrieves the closest stored voice snippets. Retrieval failures
// degrade to an unguided draft rather than failing the compose.
func (s *DraftService) brandVoice(ctx context.Context, content string) string {
	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		log.Printf("[drafts] embed failed, drafting without brand voice: %v", err)
		return ""
	}

	memories, err := s.store.SearchMemories(ctx, embedding, 3)
	if err != nil {
		log.Printf("[drafts] memory search failed, drafting without brand voice: %v", err)
		return ""
	}

	lines := make([]string, 0, len(memories))
	for _, m := range memories {
		lines = append(lines, "- "+m.Content)
	}
	return strings.Join(lines, "\n")
}

// Remember stores a brand voice snippet for later retrieval.
func (s *DraftService) Remember(ctx context.Context, content, kind string) (*models.Memory, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("embedding provider not configured")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("memory content is empty")
	}

	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("embed memory: %w", err)
	}

	memory := &models.Memory{
		ID:        uuid.NewString(),
		Content:   content,
		Type:      kind,
		Embedding: embedding,
		CreatedAt: s.now(),
	}
	if err := s.store.InsertMemory(ctx, memory); err != nil {
		return nil, err
	}
	return memory, nil
}
