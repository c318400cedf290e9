package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/chitragupta-ai/chitragupta-server/internal/core"
	"github.com/chitragupta-ai/chitragupta-server/internal/models"
)

// fakeStore is an in-memory core.Store. WithTx serializes callers on a
// mutex, which is what makes the concurrent decision tests meaningful: two
// decisions cannot interleave, exactly like row locking in Postgres.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users     map[string]models.User
	leads     map[string]models.Lead
	enquiries map[string]models.Enquiry
	messages  []models.Message
	approvals map[string]models.Approval
	quotes    map[string]models.Quote
	metrics   map[string]*models.DailyMetric
	configs   map[string]map[string]string
	memories  []models.Memory
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     map[string]models.User{},
		leads:     map[string]models.Lead{},
		enquiries: map[string]models.Enquiry{},
		approvals: map[string]models.Approval{},
		quotes:    map[string]models.Quote{},
		metrics:   map[string]*models.DailyMetric{},
		configs:   map[string]map[string]string{},
	}
}

var _ core.Store = (*fakeStore)(nil)

func (s *fakeStore) WithTx(ctx context.Context, fn func(tx core.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}

func (s *fakeStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return errors.New("user exists")
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *fakeStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		out := u
		return &out, nil
	}
	return nil, nil
}

func (s *fakeStore) SetUserDirector(ctx context.Context, id string, director bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.ErrNotFound
	}
	u.Director = director
	s.users[id] = u
	return nil
}

func (s *fakeStore) CreateLead(ctx context.Context, lead *models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.leads {
		if lead.Phone != "" && l.Phone == lead.Phone {
			return errors.New("duplicate phone")
		}
		if lead.Email != "" && l.Email == lead.Email {
			return errors.New("duplicate email")
		}
	}
	s.leads[lead.ID] = *lead
	return nil
}

func (s *fakeStore) GetLeadByID(ctx context.Context, id string) (*models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.leads[id]; ok {
		out := l
		return &out, nil
	}
	return nil, nil
}

func (s *fakeStore) FindLeadByPhone(ctx context.Context, phone string) (*models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if phone == "" {
		return nil, nil
	}
	for _, l := range s.leads {
		if l.Phone == phone {
			out := l
			return &out, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindLeadByEmail(ctx context.Context, email string) (*models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if email == "" {
		return nil, nil
	}
	for _, l := range s.leads {
		if l.Email == email {
			out := l
			return &out, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) ListLeads(ctx context.Context, limit int) ([]models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Lead, 0, len(s.leads))
	for _, l := range s.leads {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) UpdateLeadStatus(ctx context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[id]
	if !ok {
		return core.ErrNotFound
	}
	l.Status = status
	s.leads[id] = l
	return nil
}

func (s *fakeStore) UpdateLeadConsent(ctx context.Context, id, consentStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[id]
	if !ok {
		return core.ErrNotFound
	}
	l.ConsentStatus = consentStatus
	s.leads[id] = l
	return nil
}

func (s *fakeStore) TouchLeadContacted(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[id]
	if !ok {
		return core.ErrNotFound
	}
	l.LastContactedAt = &at
	s.leads[id] = l
	return nil
}

func (s *fakeStore) CountLeadsCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, l := range s.leads {
		if !l.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) UpsertEnquiry(ctx context.Context, enquiry *models.Enquiry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.enquiries[enquiry.ID]; ok {
		return false, nil
	}
	s.enquiries[enquiry.ID] = *enquiry
	return true, nil
}

func (s *fakeStore) GetEnquiryByID(ctx context.Context, id string) (*models.Enquiry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.enquiries[id]; ok {
		out := e
		return &out, nil
	}
	return nil, nil
}

func (s *fakeStore) ListUntriagedEnquiries(ctx context.Context, limit int) ([]models.Enquiry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Enquiry{}
	for _, e := range s.enquiries {
		if !e.Triaged {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) MarkEnquiryTriaged(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.enquiries[id]
	if !ok || e.Triaged {
		return false, nil
	}
	e.Triaged = true
	s.enquiries[id] = e
	return true, nil
}

func (s *fakeStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *fakeStore) ListMessagesByLead(ctx context.Context, leadID string, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Message{}
	for _, m := range s.messages {
		if m.LeadID == leadID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *fakeStore) CountOutboundWhatsAppSince(ctx context.Context, since time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.messages {
		if m.Direction == models.DirectionOutbound && m.Channel == models.ChannelWhatsApp && !m.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) CountOutboundWhatsAppForLeadSince(ctx context.Context, leadID string, since time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.messages {
		if m.LeadID == leadID && m.Direction == models.DirectionOutbound && m.Channel == models.ChannelWhatsApp && !m.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) CreateApproval(ctx context.Context, approval *models.Approval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvals[approval.ID] = *approval
	return nil
}

func (s *fakeStore) GetApprovalByID(ctx context.Context, id string) (*models.Approval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.approvals[id]; ok {
		out := a
		return &out, nil
	}
	return nil, nil
}

func (s *fakeStore) GetApprovalForDecision(ctx context.Context, id string) (*models.Approval, error) {
	return s.GetApprovalByID(ctx, id)
}

func (s *fakeStore) ListApprovalsByStatus(ctx context.Context, status string, limit int) ([]models.Approval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Approval{}
	for _, a := range s.approvals {
		if a.Status == status {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) FinalizeApproval(ctx context.Context, id, status, outcome, decidedBy string, decidedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.approvals[id]
	if !ok || a.Status != models.ApprovalPending {
		return false, nil
	}
	a.Status = status
	a.Outcome = outcome
	a.DecidedBy = decidedBy
	a.DecidedAt = &decidedAt
	s.approvals[id] = a
	return true, nil
}

func (s *fakeStore) CountPendingApprovals(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, a := range s.approvals {
		if a.Status == models.ApprovalPending {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) CreateQuote(ctx context.Context, quote *models.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[quote.ID] = *quote
	return nil
}

func (s *fakeStore) GetQuoteByID(ctx context.Context, id string) (*models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.quotes[id]; ok {
		out := q
		return &out, nil
	}
	return nil, nil
}

func (s *fakeStore) UpdateQuoteStatus(ctx context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[id]
	if !ok {
		return core.ErrNotFound
	}
	q.Status = status
	s.quotes[id] = q
	return nil
}

func (s *fakeStore) SumOpenQuoteTotals(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, q := range s.quotes {
		if q.Status == models.QuoteDraft || q.Status == models.QuoteApproved {
			total += q.Total
		}
	}
	return total, nil
}

func (s *fakeStore) IncDailyMetric(ctx context.Context, dayKey, counter string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.metrics[dayKey]
	if !ok {
		m = &models.DailyMetric{ID: dayKey}
		s.metrics[dayKey] = m
	}
	switch counter {
	case "approvals_pending":
		m.ApprovalsPending += delta
	default:
		return errors.New("unknown counter " + counter)
	}
	m.UpdatedAt = time.Now()
	return nil
}

func (s *fakeStore) GetDailyMetric(ctx context.Context, dayKey string) (*models.DailyMetric, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.metrics[dayKey]; ok {
		out := *m
		return &out, nil
	}
	return nil, nil
}

func (s *fakeStore) GetSystemConfig(ctx context.Context, id string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]string{}
	for k, v := range s.configs[id] {
		out[k] = v
	}
	return out, nil
}

func (s *fakeStore) SetSystemConfig(ctx context.Context, id string, data map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := map[string]string{}
	for k, v := range data {
		copied[k] = v
	}
	s.configs[id] = copied
	return nil
}

func (s *fakeStore) InsertMemory(ctx context.Context, memory *models.Memory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memories = append(s.memories, *memory)
	return nil
}

func (s *fakeStore) SearchMemories(ctx context.Context, embedding []float32, limit int) ([]models.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.Memory{}, s.memories...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeTransport records every send and answers with a scripted result.
type fakeTransport struct {
	mu     sync.Mutex
	calls  []string
	result core.SendResult
	err    error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{result: core.SendResult{Success: true, Provider: "fake", MessageID: "msg_1"}}
}

func (t *fakeTransport) Send(ctx context.Context, to, message string) (core.SendResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, to+"|"+message)
	return t.result, t.err
}

func (t *fakeTransport) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}
