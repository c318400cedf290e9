package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chitragupta-ai/chitragupta-server/internal/core"
	"github.com/chitragupta-ai/chitragupta-server/internal/core/intake"
	"github.com/chitragupta-ai/chitragupta-server/internal/models"
)

func testEnquiry(sourceRef, phone, email string) *models.Enquiry {
	return intake.NewEnquiry(models.SourceIndiaMart, sourceRef, "Need 100 units",
		models.Contact{Name: "Asha", Phone: phone, Email: email}, time.Now())
}

func TestIngestCreatesLeadAndMessage(t *testing.T) {
	store := newFakeStore()
	svc := NewLeadService(store)

	res, err := svc.Ingest(context.Background(), testEnquiry("Q1", "+919900112233", ""), models.ChannelManual)
	require.NoError(t, err)
	require.True(t, res.Created)
	require.True(t, res.LeadCreated)

	lead := res.Lead
	assert.Equal(t, models.LeadStatusNew, lead.Status)
	assert.Equal(t, models.ConsentUnknown, lead.ConsentStatus)
	assert.Equal(t, models.SourceIndiaMart, lead.Source)

	msgs, err := store.ListMessagesByLead(context.Background(), lead.ID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.DirectionInbound, msgs[0].Direction)
	assert.Equal(t, "Need 100 units", msgs[0].Content)
}

func TestIngestIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := NewLeadService(store)
	ctx := context.Background()

	first, err := svc.Ingest(ctx, testEnquiry("Q1", "+919900112233", ""), models.ChannelManual)
	require.NoError(t, err)
	require.True(t, first.Created)

	second, err := svc.Ingest(ctx, testEnquiry("Q1", "+919900112233", ""), models.ChannelManual)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.False(t, second.LeadCreated)
	assert.Equal(t, first.Lead.ID, second.Lead.ID)

	// Still one enquiry, one lead, one inbound message.
	leads, err := store.ListLeads(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, leads, 1)
	msgs, err := store.ListMessagesByLead(ctx, first.Lead.ID, 10)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestIngestDeduplicatesByPhoneThenEmail(t *testing.T) {
	store := newFakeStore()
	svc := NewLeadService(store)
	ctx := context.Background()

	first, err := svc.Ingest(ctx, testEnquiry("Q1", "+919900112233", "asha@example.com"), models.ChannelManual)
	require.NoError(t, err)

	// Same phone, different source ref: same lead.
	byPhone, err := svc.Ingest(ctx, testEnquiry("Q2", "+919900112233", ""), models.ChannelManual)
	require.NoError(t, err)
	assert.True(t, byPhone.Created)
	assert.False(t, byPhone.LeadCreated)
	assert.Equal(t, first.Lead.ID, byPhone.Lead.ID)

	// No phone but matching email: same lead.
	byEmail, err := svc.Ingest(ctx, testEnquiry("Q3", "", "asha@example.com"), models.ChannelManual)
	require.NoError(t, err)
	assert.False(t, byEmail.LeadCreated)
	assert.Equal(t, first.Lead.ID, byEmail.Lead.ID)
}

func TestResolvePhoneWinsOverEmail(t *testing.T) {
	store := newFakeStore()
	svc := NewLeadService(store)
	ctx := context.Background()

	phoneLead, err := svc.Ingest(ctx, testEnquiry("P", "+911111111111", ""), models.ChannelManual)
	require.NoError(t, err)
	emailLead, err := svc.Ingest(ctx, testEnquiry("E", "", "other@example.com"), models.ChannelManual)
	require.NoError(t, err)
	require.NotEqual(t, phoneLead.Lead.ID, emailLead.Lead.ID)

	resolved, err := svc.Resolve(ctx, store, "+911111111111", "other@example.com")
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, phoneLead.Lead.ID, resolved.ID)
}

func TestTriageFlipsExactlyOnce(t *testing.T) {
	store := newFakeStore()
	svc := NewLeadService(store)
	ctx := context.Background()

	res, err := svc.Ingest(ctx, testEnquiry("Q1", "+919900112233", ""), models.ChannelManual)
	require.NoError(t, err)

	status, err := svc.Triage(ctx, res.Enquiry.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusOK, status)

	status, err = svc.Triage(ctx, res.Enquiry.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusNotActionable, status)

	status, err = svc.Triage(ctx, "indiamart_missing")
	require.NoError(t, err)
	assert.Equal(t, core.StatusNotFound, status)
}

func TestUpdateStatusRefusesBackwardMoves(t *testing.T) {
	store := newFakeStore()
	svc := NewLeadService(store)
	ctx := context.Background()

	res, err := svc.Ingest(ctx, testEnquiry("Q1", "+919900112233", ""), models.ChannelManual)
	require.NoError(t, err)
	id := res.Lead.ID

	status, err := svc.UpdateStatus(ctx, id, models.LeadStatusQualified)
	require.NoError(t, err)
	assert.Equal(t, core.StatusOK, status)

	status, err = svc.UpdateStatus(ctx, id, models.LeadStatusNew)
	require.NoError(t, err)
	assert.Equal(t, core.StatusValidation, status)

	// Lost is reachable from anywhere.
	status, err = svc.UpdateStatus(ctx, id, models.LeadStatusLost)
	require.NoError(t, err)
	assert.Equal(t, core.StatusOK, status)

	status, err = svc.UpdateStatus(ctx, id, "archived")
	require.NoError(t, err)
	assert.Equal(t, core.StatusValidation, status)
}

func TestUpdateConsent(t *testing.T) {
	store := newFakeStore()
	svc := NewLeadService(store)
	ctx := context.Background()

	res, err := svc.Ingest(ctx, testEnquiry("Q1", "+919900112233", ""), models.ChannelManual)
	require.NoError(t, err)

	status, err := svc.UpdateConsent(ctx, res.Lead.ID, models.ConsentOptIn)
	require.NoError(t, err)
	assert.Equal(t, core.StatusOK, status)

	status, err = svc.UpdateConsent(ctx, res.Lead.ID, "maybe")
	require.NoError(t, err)
	assert.Equal(t, core.StatusValidation, status)

	status, err = svc.UpdateConsent(ctx, "missing", models.ConsentOptIn)
	require.NoError(t, err)
	assert.Equal(t, core.StatusNotFound, status)
}
