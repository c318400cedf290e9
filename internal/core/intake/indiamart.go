package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/chitragupta-ai/chitragupta-server/internal/models"
)

const indiaMartBase = "https://mapi.indiamart.com/wservce/crm/crmListing/v2/"

// IndiaMartClient pulls buyer enquiries from the IndiaMART CRM listing API.
type IndiaMartClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewIndiaMartClient(apiKey string) *IndiaMartClient {
	return &IndiaMartClient{
		apiKey:     apiKey,
		baseURL:    indiaMartBase,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type indiaMartListing struct {
	Code     int    `json:"CODE"`
	Status   string `json:"STATUS"`
	Message  string `json:"MESSAGE"`
	Response []struct {
		UniqueQueryID string `json:"UNIQUE_QUERY_ID"`
		QueryMessage  string `json:"QUERY_MESSAGE"`
		SenderName    string `json:"SENDER_NAME"`
		SenderMobile  string `json:"SENDER_MOBILE"`
		SenderEmail   string `json:"SENDER_EMAIL"`
	} `json:"RESPONSE"`
}

// FetchEnquiries returns the canonical enquiries reported between from and
// to. Query ids double as source refs, so a window re-poll is idempotent
// downstream.
func (c *IndiaMartClient) FetchEnquiries(ctx context.Context, from, to time.Time) ([]*models.Enquiry, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("indiamart: api key not configured")
	}

	params := url.Values{}
	params.Set("glusr_crm_key", c.apiKey)
	params.Set("start_time", from.Format("02-Jan-2006 15:04:05"))
	params.Set("end_time", to.Format("02-Jan-2006 15:04:05"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("indiamart: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("indiamart: fetch: status %d", resp.StatusCode)
	}

	var listing indiaMartListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("indiamart: decode: %w", err)
	}
	if listing.Code != 0 && listing.Code != http.StatusOK {
		return nil, fmt.Errorf("indiamart: api error: %s", listing.Message)
	}

	now := time.Now()
	out := make([]*models.Enquiry, 0, len(listing.Response))
	for _, item := range listing.Response {
		sourceRef := item.UniqueQueryID
		if sourceRef == "" {
			sourceRef = FallbackRef("im")
		}
		contact := models.Contact{
			Name:  item.SenderName,
			Phone: item.SenderMobile,
			Email: item.SenderEmail,
		}
		out = append(out, NewEnquiry(models.SourceIndiaMart, sourceRef, item.QueryMessage, contact, now))
	}
	return out, nil
}
