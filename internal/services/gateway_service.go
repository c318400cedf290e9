package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/chitragupta-ai/chitragupta-server/internal/core"
	"github.com/chitragupta-ai/chitragupta-server/internal/models"
)

// RateLimits caps outbound WhatsApp volume per calendar day.
type RateLimits struct {
	MaxPerDay        int
	MaxPerLeadPerDay int
}

// DefaultRateLimits matches the production WhatsApp policy.
var DefaultRateLimits = RateLimits{MaxPerDay: 200, MaxPerLeadPerDay: 20}

// GatewayResult is the verdict of one delivery attempt.
type GatewayResult struct {
	Delivered bool
	Outcome   string
	Status    core.StatusCode
	Provider  string
	MessageID string
	Reason    string
}

// OutboundGateway is the single choke point for outbound WhatsApp. Every send
// passes the same gates in the same order: destination number, consent, daily
// rate limits, then the provider. On success it appends the outbound message
// and stamps the lead's last contacted time in the caller's transaction.
type OutboundGateway struct {
	store     core.Store
	transport core.Transport
	defaults  RateLimits
	now       func() time.Time
}

func NewOutboundGateway(store core.Store, transport core.Transport, defaults RateLimits) *OutboundGateway {
	if defaults.MaxPerDay <= 0 {
		defaults.MaxPerDay = DefaultRateLimits.MaxPerDay
	}
	if defaults.MaxPerLeadPerDay <= 0 {
		defaults.MaxPerLeadPerDay = DefaultRateLimits.MaxPerLeadPerDay
	}
	return &OutboundGateway{store: store, transport: transport, defaults: defaults, now: time.Now}
}

// onceTransport replays the first provider result on subsequent calls.
// Transaction retries re-run the whole delivery closure; without this a
// retried commit could reach the provider twice for one decision.
type onceTransport struct {
	inner core.Transport
	done  bool
	res   core.SendResult
	err   error
}

func (o *onceTransport) Send(ctx context.Context, to, message string) (core.SendResult, error) {
	if o.done {
		return o.res, o.err
	}
	o.res, o.err = o.inner.Send(ctx, to, message)
	o.done = true
	return o.res, o.err
}

// sendOnce returns a gateway copy whose transport fires at most once.
func (g *OutboundGateway) sendOnce() *OutboundGateway {
	clone := *g
	clone.transport = &onceTransport{inner: g.transport}
	return &clone
}

// Limits resolves the effective rate limits: the stored whatsapp config
// document first, environment-seeded defaults otherwise.
func (g *OutboundGateway) Limits(ctx context.Context) RateLimits {
	limits := g.defaults
	cfg, err := g.store.GetSystemConfig(ctx, "whatsapp")
	if err != nil {
		log.Printf("[gateway] failed to load whatsapp config, using defaults: %v", err)
		return limits
	}
	if v, err := strconv.Atoi(cfg["maxPerDay"]); err == nil && v > 0 {
		limits.MaxPerDay = v
	}
	if v, err := strconv.Atoi(cfg["maxPerLeadPerDay"]); err == nil && v > 0 {
		limits.MaxPerLeadPerDay = v
	}
	return limits
}

// Deliver runs the full gate sequence for one message to one lead. The tx
// argument carries the caller's transaction so the outbound message lands
// atomically with whatever decision triggered it. A non-nil error means a
// storage failure and the transaction must abort. Counting at or above the
// limit blocks the send, so the caps are hard ceilings.
func (g *OutboundGateway) Deliver(ctx context.Context, tx core.Store, lead *models.Lead, content string) (GatewayResult, error) {
	to := lead.WhatsAppNumber
	if to == "" {
		to = lead.Phone
	}
	if to == "" {
		return GatewayResult{
			Outcome: models.OutcomeNoNumber,
			Status:  core.StatusValidation,
			Reason:  "lead has no WhatsApp number or phone",
		}, nil
	}

	if lead.ConsentStatus != models.ConsentOptIn {
		return GatewayResult{
			Outcome: models.OutcomeMissingConsent,
			Status:  core.StatusPolicyBlocked,
			Reason:  "lead has not opted in to WhatsApp messages",
		}, nil
	}

	now := g.now()
	since := models.StartOfDay(now)
	limits := g.Limits(ctx)

	total, err := tx.CountOutboundWhatsAppSince(ctx, since)
	if err != nil {
		return GatewayResult{}, fmt.Errorf("count outbound messages: %w", err)
	}
	if total >= int64(limits.MaxPerDay) {
		return GatewayResult{
			Outcome: models.OutcomeRateLimited,
			Status:  core.StatusPolicyBlocked,
			Reason:  "daily WhatsApp limit reached",
		}, nil
	}

	perLead, err := tx.CountOutboundWhatsAppForLeadSince(ctx, lead.ID, since)
	if err != nil {
		return GatewayResult{}, fmt.Errorf("count outbound messages for lead: %w", err)
	}
	if perLead >= int64(limits.MaxPerLeadPerDay) {
		return GatewayResult{
			Outcome: models.OutcomeRateLimited,
			Status:  core.StatusPolicyBlocked,
			Reason:  "daily WhatsApp limit for this lead reached",
		}, nil
	}

	sent, err := g.transport.Send(ctx, to, content)
	if err != nil || !sent.Success {
		reason := sent.Error
		if reason == "" && err != nil {
			reason = err.Error()
		}
		if reason == "" {
			reason = "provider rejected the message"
		}
		log.Printf("[gateway] send to lead %s failed: %s", lead.ID, reason)
		return GatewayResult{
			Outcome:  models.OutcomeSendFailed,
			Status:   core.StatusTransportFailure,
			Provider: sent.Provider,
			Reason:   reason,
		}, nil
	}

	msg := &models.Message{
		ID:        uuid.NewString(),
		LeadID:    lead.ID,
		Direction: models.DirectionOutbound,
		Channel:   models.ChannelWhatsApp,
		Content:   content,
		Status:    models.MessageSent,
		Metadata: map[string]string{
			"provider":   sent.Provider,
			"message_id": sent.MessageID,
		},
		CreatedAt: now,
	}
	if err := tx.AppendMessage(ctx, msg); err != nil {
		return GatewayResult{}, fmt.Errorf("record outbound message: %w", err)
	}
	if err := tx.TouchLeadContacted(ctx, lead.ID, now); err != nil {
		return GatewayResult{}, fmt.Errorf("stamp last contact: %w", err)
	}

	return GatewayResult{
		Delivered: true,
		Outcome:   models.OutcomeSent,
		Status:    core.StatusOK,
		Provider:  sent.Provider,
		MessageID: sent.MessageID,
	}, nil
}
