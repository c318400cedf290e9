package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chitragupta-ai/chitragupta-server/internal/core"
	"github.com/chitragupta-ai/chitragupta-server/internal/models"
)

func seedOutbound(t *testing.T, store *fakeStore, leadID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := store.AppendMessage(context.Background(), &models.Message{
			ID:        uuid.NewString(),
			LeadID:    leadID,
			Direction: models.DirectionOutbound,
			Channel:   models.ChannelWhatsApp,
			Content:   "earlier",
			CreatedAt: time.Now(),
		})
		require.NoError(t, err)
	}
}

func TestDeliverBlocksAtGlobalLimit(t *testing.T) {
	store := newFakeStore()
	transport := newFakeTransport()
	gateway := NewOutboundGateway(store, transport, RateLimits{MaxPerDay: 3, MaxPerLeadPerDay: 10})
	ctx := context.Background()

	lead := seedLead(t, store, models.ConsentOptIn)
	other := &models.Lead{
		ID: uuid.NewString(), Phone: "+918888888888", Source: models.SourceManual,
		Status: models.LeadStatusNew, ConsentStatus: models.ConsentOptIn,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, store.CreateLead(ctx, other))

	// Two sends already today; the third fills the cap.
	seedOutbound(t, store, other.ID, 2)

	res, err := gateway.Deliver(ctx, store, lead, "one more fits")
	require.NoError(t, err)
	assert.True(t, res.Delivered)

	// Count is now at the cap; >= blocks.
	res, err = gateway.Deliver(ctx, store, lead, "over the cap")
	require.NoError(t, err)
	assert.False(t, res.Delivered)
	assert.Equal(t, models.OutcomeRateLimited, res.Outcome)
	assert.Equal(t, core.StatusPolicyBlocked, res.Status)
	assert.Equal(t, 1, transport.callCount())
}

func TestDeliverBlocksAtPerLeadLimit(t *testing.T) {
	store := newFakeStore()
	transport := newFakeTransport()
	gateway := NewOutboundGateway(store, transport, RateLimits{MaxPerDay: 100, MaxPerLeadPerDay: 2})
	ctx := context.Background()
	lead := seedLead(t, store, models.ConsentOptIn)

	seedOutbound(t, store, lead.ID, 2)

	res, err := gateway.Deliver(ctx, store, lead, "hello")
	require.NoError(t, err)
	assert.False(t, res.Delivered)
	assert.Equal(t, models.OutcomeRateLimited, res.Outcome)
	assert.Equal(t, 0, transport.callCount())
}

func TestDeliverPrefersWhatsAppNumber(t *testing.T) {
	store := newFakeStore()
	transport := newFakeTransport()
	gateway := NewOutboundGateway(store, transport, DefaultRateLimits)
	ctx := context.Background()

	lead := seedLead(t, store, models.ConsentOptIn)
	lead.WhatsAppNumber = "+917777777777"

	res, err := gateway.Deliver(ctx, store, lead, "hello")
	require.NoError(t, err)
	require.True(t, res.Delivered)
	assert.Contains(t, transport.calls[0], "+917777777777")
}

func TestLimitsReadStoredConfigOverrides(t *testing.T) {
	store := newFakeStore()
	gateway := NewOutboundGateway(store, newFakeTransport(), DefaultRateLimits)
	ctx := context.Background()

	limits := gateway.Limits(ctx)
	assert.Equal(t, 200, limits.MaxPerDay)
	assert.Equal(t, 20, limits.MaxPerLeadPerDay)

	err := store.SetSystemConfig(ctx, "whatsapp", map[string]string{
		"maxPerDay":        "5",
		"maxPerLeadPerDay": "1",
	})
	require.NoError(t, err)

	limits = gateway.Limits(ctx)
	assert.Equal(t, 5, limits.MaxPerDay)
	assert.Equal(t, 1, limits.MaxPerLeadPerDay)

	// Garbage values fall back to defaults.
	err = store.SetSystemConfig(ctx, "whatsapp", map[string]string{"maxPerDay": "lots"})
	require.NoError(t, err)
	limits = gateway.Limits(ctx)
	assert.Equal(t, 200, limits.MaxPerDay)
}
