package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chitragupta-ai/chitragupta-server/internal/models"
)

func TestDashboardAggregates(t *testing.T) {
	store := newFakeStore()
	svc := NewMetricsService(store)
	ctx := context.Background()

	lead := seedLead(t, store, models.ConsentOptIn)

	require.NoError(t, store.CreateApproval(ctx, &models.Approval{
		ID: uuid.NewString(), Kind: models.ApprovalKindWhatsApp, LeadID: lead.ID,
		Status: models.ApprovalPending, CreatedAt: time.Now(),
	}))
	require.NoError(t, store.CreateQuote(ctx, &models.Quote{
		ID: uuid.NewString(), LeadID: lead.ID, Total: 1500, Status: models.QuoteDraft, CreatedAt: time.Now(),
	}))
	require.NoError(t, store.CreateQuote(ctx, &models.Quote{
		ID: uuid.NewString(), LeadID: lead.ID, Total: 900, Status: models.QuoteApproved, CreatedAt: time.Now(),
	}))
	// Sent quotes leave the pipeline.
	require.NoError(t, store.CreateQuote(ctx, &models.Quote{
		ID: uuid.NewString(), LeadID: lead.ID, Total: 10000, Status: models.QuoteSent, CreatedAt: time.Now(),
	}))

	metrics, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), metrics.LeadsToday)
	assert.Equal(t, int64(1), metrics.PendingApprovals)
	assert.Equal(t, 2400.0, metrics.PipelineValue)
	assert.Equal(t, "healthy", metrics.SystemHealth)
}

func TestDailyDefaultsToToday(t *testing.T) {
	store := newFakeStore()
	svc := NewMetricsService(store)
	ctx := context.Background()

	require.NoError(t, store.IncDailyMetric(ctx, models.DayKey(time.Now()), "approvals_pending", 2))

	metric, err := svc.Daily(ctx, "")
	require.NoError(t, err)
	require.NotNil(t, metric)
	assert.Equal(t, int64(2), metric.ApprovalsPending)
}
