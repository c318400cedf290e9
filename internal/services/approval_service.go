package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chitragupta-ai/chitragupta-server/internal/core"
	"github.com/chitragupta-ai/chitragupta-server/internal/models"
)

// pendingCounter is the daily metric tracking open approvals.
const pendingCounter = "approvals_pending"

// ApprovalService is the human-in-the-loop ledger. Drafts enter as pending
// approvals; a director decision moves each one to exactly one terminal
// state, and an approval triggers at most one provider send.
type ApprovalService struct {
	store   core.Store
	gateway *OutboundGateway
	now     func() time.Time
}

func NewApprovalService(store core.Store, gateway *OutboundGateway) *ApprovalService {
	return &ApprovalService{store: store, gateway: gateway, now: time.Now}
}

// CreateWhatsAppDraft queues a WhatsApp message for director review.
func (s *ApprovalService) CreateWhatsAppDraft(ctx context.Context, leadID, message string) (*models.Approval, core.StatusCode, error) {
	if strings.TrimSpace(message) == "" {
		return nil, core.StatusValidation, nil
	}

	var approval *models.Approval
	status := core.StatusOK
	err := s.store.WithTx(ctx, func(tx core.Store) error {
		lead, err := tx.GetLeadByID(ctx, leadID)
		if err != nil {
			return err
		}
		if lead == nil {
			status = core.StatusNotFound
			return nil
		}

		now := s.now()
		approval = &models.Approval{
			ID:     uuid.NewString(),
			LeadID: leadID,
			Kind:   models.ApprovalKindWhatsApp,
			Draft: models.Draft{
				Kind:    models.ApprovalKindWhatsApp,
				Message: message,
			},
			Status:    models.ApprovalPending,
			CreatedAt: now,
		}
		if err := tx.CreateApproval(ctx, approval); err != nil {
			return err
		}
		return tx.IncDailyMetric(ctx, models.DayKey(now), pendingCounter, 1)
	})
	if err != nil {
		return nil, "", err
	}
	if status != core.StatusOK {
		return nil, status, nil
	}
	return approval, core.StatusOK, nil
}

// CreateQuoteDraft stores a quotation and queues its approval in one
// transaction. The quote stays in draft until the approval is decided.
func (s *ApprovalService) CreateQuoteDraft(ctx context.Context, leadID string, items []models.QuoteItem, pdfURL string) (*models.Approval, *models.Quote, core.StatusCode, error) {
	if len(items) == 0 {
		return nil, nil, core.StatusValidation, nil
	}

	total := 0.0
	for _, item := range items {
		if item.Qty <= 0 || item.Price < 0 {
			return nil, nil, core.StatusValidation, nil
		}
		total += item.Qty * item.Price
	}

	var (
		approval *models.Approval
		quote    *models.Quote
	)
	status := core.StatusOK
	err := s.store.WithTx(ctx, func(tx core.Store) error {
		lead, err := tx.GetLeadByID(ctx, leadID)
		if err != nil {
			return err
		}
		if lead == nil {
			status = core.StatusNotFound
			return nil
		}

		now := s.now()
		quote = &models.Quote{
			ID:        uuid.NewString(),
			LeadID:    leadID,
			Items:     items,
			Total:     total,
			PDFURL:    pdfURL,
			Status:    models.QuoteDraft,
			CreatedAt: now,
		}
		if err := tx.CreateQuote(ctx, quote); err != nil {
			return err
		}

		approval = &models.Approval{
			ID:     uuid.NewString(),
			LeadID: leadID,
			Kind:   models.ApprovalKindQuote,
			Draft: models.Draft{
				Kind:    models.ApprovalKindQuote,
				QuoteID: quote.ID,
				PDFURL:  pdfURL,
				Total:   total,
			},
			Status:    models.ApprovalPending,
			CreatedAt: now,
		}
		if err := tx.CreateApproval(ctx, approval); err != nil {
			return err
		}
		return tx.IncDailyMetric(ctx, models.DayKey(now), pendingCounter, 1)
	})
	if err != nil {
		return nil, nil, "", err
	}
	if status != core.StatusOK {
		return nil, nil, status, nil
	}
	return approval, quote, core.StatusOK, nil
}

// DecisionResult reports how one decision landed.
type DecisionResult struct {
	Status    core.StatusCode `json:"status"`
	Outcome   string          `json:"outcome,omitempty"`
	Approval  string          `json:"approval_status,omitempty"`
	MessageID string          `json:"message_id,omitempty"`
	Reason    string          `json:"reason,omitempty"`
}

// Decide settles a pending approval. The approval row is locked for the
// duration, so concurrent decisions serialize and the loser sees a terminal
// state. Rejection finalizes immediately; approval hands the draft to the
// outbound gateway, and a gateway refusal finalizes the approval as rejected
// with the refusal outcome so it never re-enters the queue.
func (s *ApprovalService) Decide(ctx context.Context, approvalID, decision, decidedBy string) (*DecisionResult, error) {
	if decision != models.ApprovalApproved && decision != models.ApprovalRejected {
		return &DecisionResult{Status: core.StatusValidation, Reason: "decision must be approved or rejected"}, nil
	}

	// A transaction retry must not reach the provider a second time.
	gw := s.gateway.sendOnce()

	var res DecisionResult
	err := s.store.WithTx(ctx, func(tx core.Store) error {
		approval, err := tx.GetApprovalForDecision(ctx, approvalID)
		if err != nil {
			return err
		}
		if approval == nil {
			res = DecisionResult{Status: core.StatusNotFound, Reason: "approval not found"}
			return nil
		}
		if approval.Status != models.ApprovalPending {
			res = DecisionResult{
				Status:   core.StatusNotActionable,
				Approval: approval.Status,
				Reason:   "approval already " + approval.Status,
			}
			return nil
		}

		now := s.now()
		finalize := func(status, outcome string) (bool, error) {
			applied, err := tx.FinalizeApproval(ctx, approvalID, status, outcome, decidedBy, now)
			if err != nil {
				return false, err
			}
			if !applied {
				res = DecisionResult{Status: core.StatusNotActionable, Reason: "approval already decided"}
				return false, nil
			}
			return true, tx.IncDailyMetric(ctx, models.DayKey(now), pendingCounter, -1)
		}

		if decision == models.ApprovalRejected {
			applied, err := finalize(models.ApprovalRejected, models.OutcomeRejected)
			if err != nil {
				return err
			}
			if !applied {
				return nil
			}
			res = DecisionResult{
				Status:   core.StatusOK,
				Outcome:  models.OutcomeRejected,
				Approval: models.ApprovalRejected,
			}
			return nil
		}

		lead, err := tx.GetLeadByID(ctx, approval.LeadID)
		if err != nil {
			return err
		}
		if lead == nil {
			// The approval stays pending so the dangling reference is
			// visible instead of silently swallowed.
			res = DecisionResult{Status: core.StatusNotFound, Reason: "lead not found"}
			return nil
		}

		content := approval.Draft.Message
		if approval.Kind == models.ApprovalKindQuote {
			content = quoteMessage(approval.Draft.PDFURL)
		}

		delivery, err := gw.Deliver(ctx, tx, lead, content)
		if err != nil {
			return err
		}

		if !delivery.Delivered {
			applied, err := finalize(models.ApprovalRejected, delivery.Outcome)
			if err != nil {
				return err
			}
			if !applied {
				return nil
			}
			res = DecisionResult{
				Status:   delivery.Status,
				Outcome:  delivery.Outcome,
				Approval: models.ApprovalRejected,
				Reason:   delivery.Reason,
			}
			return nil
		}

		applied, err := finalize(models.ApprovalApproved, models.OutcomeSent)
		if err != nil {
			return err
		}
		if !applied {
			return nil
		}
		if approval.Kind == models.ApprovalKindQuote && approval.Draft.QuoteID != "" {
			if err := tx.UpdateQuoteStatus(ctx, approval.Draft.QuoteID, models.QuoteApproved); err != nil {
				return err
			}
			if err := tx.UpdateLeadStatus(ctx, lead.ID, models.LeadStatusQuoted); err != nil {
				return err
			}
		}
		res = DecisionResult{
			Status:    core.StatusOK,
			Outcome:   models.OutcomeSent,
			Approval:  models.ApprovalApproved,
			MessageID: delivery.MessageID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func quoteMessage(pdfURL string) string {
	if pdfURL == "" {
		return "Your quotation is ready."
	}
	return "Your quotation is ready: " + pdfURL
}

// ListByStatus returns approvals in the given state, newest first.
func (s *ApprovalService) ListByStatus(ctx context.Context, status string, limit int) ([]models.Approval, error) {
	switch status {
	case models.ApprovalPending, models.ApprovalApproved, models.ApprovalRejected:
		return s.store.ListApprovalsByStatus(ctx, status, limit)
	}
	return nil, core.ErrNotFound
}

// Get returns one approval by id, nil when absent.
func (s *ApprovalService) Get(ctx context.Context, id string) (*models.Approval, error) {
	return s.store.GetApprovalByID(ctx, id)
}
