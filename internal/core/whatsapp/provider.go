package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/chitragupta-ai/chitragupta-server/internal/config"
	"github.com/chitragupta-ai/chitragupta-server/internal/core"
)

const graphAPIBase = "https://graph.facebook.com/v20.0"

// Provider sends WhatsApp messages through the Meta Business API. When the
// Meta credentials are absent it degrades to a deterministic mock success in
// non-production and a hard "not configured" failure in production, so no
// environment silently drops messages.
type Provider struct {
	token         string
	phoneNumberID string
	production    bool
	baseURL       string
	httpClient    *http.Client
}

func NewProvider(cfg *config.Config) *Provider {
	return &Provider{
		token:         cfg.WhatsAppToken,
		phoneNumberID: cfg.WhatsAppPhoneNumberID,
		production:    cfg.Production(),
		baseURL:       graphAPIBase,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *Provider) configured() bool {
	return p.token != "" && p.phoneNumberID != ""
}

type metaSendRequest struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             metaSendText `json:"text"`
}

type metaSendText struct {
	Body string `json:"body"`
}

type metaSendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

func (p *Provider) Send(ctx context.Context, to, message string) (core.SendResult, error) {
	if !p.configured() {
		if p.production {
			return core.SendResult{
				Success:  false,
				Provider: "mock",
				Error:    "WhatsApp provider not configured",
			}, nil
		}

		log.Printf("[whatsapp][mock] to=%s message=%s", to, message)
		return core.SendResult{
			Success:   true,
			Provider:  "mock",
			MessageID: fmt.Sprintf("mock_%d", time.Now().UnixMilli()),
		}, nil
	}

	payload, err := json.Marshal(metaSendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             metaSendText{Body: message},
	})
	if err != nil {
		return core.SendResult{Success: false, Provider: "meta", Error: err.Error()}, err
	}

	url := fmt.Sprintf("%s/%s/messages", p.baseURL, p.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return core.SendResult{Success: false, Provider: "meta", Error: err.Error()}, err
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		log.Printf("[whatsapp][meta] send failed: %v", err)
		return core.SendResult{Success: false, Provider: "meta", Error: "WhatsApp send failed"}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[whatsapp][meta] send failed: status %d", resp.StatusCode)
		return core.SendResult{Success: false, Provider: "meta", Error: "WhatsApp send failed"}, nil
	}

	var out metaSendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Printf("[whatsapp][meta] decode response: %v", err)
		return core.SendResult{Success: false, Provider: "meta", Error: "WhatsApp send failed"}, nil
	}

	messageID := ""
	if len(out.Messages) > 0 {
		messageID = out.Messages[0].ID
	}
	return core.SendResult{Success: true, Provider: "meta", MessageID: messageID}, nil
}

var _ core.Transport = (*Provider)(nil)
