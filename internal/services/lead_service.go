package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/chitragupta-ai/chitragupta-server/internal/core"
	"github.com/chitragupta-ai/chitragupta-server/internal/models"
)

// LeadService owns lead identity: it deduplicates enquiries into leads and
// keeps lead status moves sane.
type LeadService struct {
	store core.Store
	now   func() time.Time
}

func NewLeadService(store core.Store) *LeadService {
	return &LeadService{store: store, now: time.Now}
}

// IngestResult reports what one enquiry ingestion did.
type IngestResult struct {
	Enquiry     *models.Enquiry `json:"enquiry"`
	Lead        *models.Lead    `json:"lead"`
	Created     bool            `json:"created"`      // enquiry row was new
	LeadCreated bool            `json:"lead_created"` // lead row was new
}

// Resolve finds the lead owning the given contact details. Phone is checked
// first, then email; first match wins. When both are present and point at
// different leads the phone match wins and the conflict is logged for manual
// review.
func (s *LeadService) Resolve(ctx context.Context, store core.Store, phone, email string) (*models.Lead, error) {
	if phone == "" && email == "" {
		return nil, nil
	}

	var byPhone *models.Lead
	if phone != "" {
		lead, err := store.FindLeadByPhone(ctx, phone)
		if err != nil {
			return nil, err
		}
		byPhone = lead
	}

	if email != "" {
		byEmail, err := store.FindLeadByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if byPhone != nil && byEmail != nil && byPhone.ID != byEmail.ID {
			log.Printf("[leads] phone %s and email %s match different leads (%s vs %s); phone wins",
				phone, email, byPhone.ID, byEmail.ID)
			return byPhone, nil
		}
		if byPhone == nil {
			return byEmail, nil
		}
	}
	return byPhone, nil
}

// Ingest stores one canonical enquiry: it resolves or creates the lead,
// writes the enquiry and appends the inbound message inside one transaction,
// so a failure anywhere surfaces to the caller instead of leaving a
// half-ingested enquiry. Re-ingesting an enquiry id that already exists is a
// no-op.
func (s *LeadService) Ingest(ctx context.Context, enquiry *models.Enquiry, channel string) (*IngestResult, error) {
	if enquiry == nil || enquiry.ID == "" || enquiry.Source == "" {
		return nil, errors.New("invalid enquiry")
	}
	if channel == "" {
		channel = models.ChannelManual
	}

	var res IngestResult
	err := s.store.WithTx(ctx, func(tx core.Store) error {
		existing, err := tx.GetEnquiryByID(ctx, enquiry.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			lead, err := tx.GetLeadByID(ctx, existing.LeadID)
			if err != nil {
				return err
			}
			res = IngestResult{Enquiry: existing, Lead: lead, Created: false, LeadCreated: false}
			return nil
		}

		lead, err := s.Resolve(ctx, tx, enquiry.Contact.Phone, enquiry.Contact.Email)
		if err != nil {
			return err
		}

		leadCreated := false
		if lead == nil {
			now := s.now()
			name := enquiry.Contact.Name
			if name == "" {
				name = "Unknown"
			}
			lead = &models.Lead{
				ID:            uuid.NewString(),
				Name:          name,
				Phone:         enquiry.Contact.Phone,
				Email:         enquiry.Contact.Email,
				Source:        enquiry.Source,
				Status:        models.LeadStatusNew,
				ConsentStatus: models.ConsentUnknown,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := tx.CreateLead(ctx, lead); err != nil {
				return err
			}
			leadCreated = true
		}

		enquiry.LeadID = lead.ID
		created, err := tx.UpsertEnquiry(ctx, enquiry)
		if err != nil {
			return err
		}
		if !created {
			// Lost a race with a concurrent ingest of the same item.
			res = IngestResult{Enquiry: enquiry, Lead: lead}
			return nil
		}

		msg := &models.Message{
			ID:        uuid.NewString(),
			LeadID:    lead.ID,
			Direction: models.DirectionInbound,
			Channel:   channel,
			Content:   enquiry.Content,
			CreatedAt: s.now(),
		}
		if err := tx.AppendMessage(ctx, msg); err != nil {
			return err
		}

		res = IngestResult{Enquiry: enquiry, Lead: lead, Created: true, LeadCreated: leadCreated}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Triage flips the enquiry's triaged flag, exactly once.
func (s *LeadService) Triage(ctx context.Context, enquiryID string) (core.StatusCode, error) {
	flipped, err := s.store.MarkEnquiryTriaged(ctx, enquiryID)
	if err != nil {
		return "", err
	}
	if flipped {
		return core.StatusOK, nil
	}

	enquiry, err := s.store.GetEnquiryByID(ctx, enquiryID)
	if err != nil {
		return "", err
	}
	if enquiry == nil {
		return core.StatusNotFound, nil
	}
	return core.StatusNotActionable, nil
}

// leadStatusRank orders the forward progression. Lost is reachable from
// anywhere, so it sits outside the ranking.
var leadStatusRank = map[string]int{
	models.LeadStatusNew:       0,
	models.LeadStatusContacted: 1,
	models.LeadStatusQualified: 2,
	models.LeadStatusQuoted:    3,
	models.LeadStatusWon:       4,
}

// UpdateStatus advances a lead's status. Forward moves and lost are allowed;
// backward moves are refused.
func (s *LeadService) UpdateStatus(ctx context.Context, leadID, status string) (core.StatusCode, error) {
	if _, ok := leadStatusRank[status]; !ok && status != models.LeadStatusLost {
		return core.StatusValidation, nil
	}

	lead, err := s.store.GetLeadByID(ctx, leadID)
	if err != nil {
		return "", err
	}
	if lead == nil {
		return core.StatusNotFound, nil
	}

	if status != models.LeadStatusLost {
		cur, curOK := leadStatusRank[lead.Status]
		next := leadStatusRank[status]
		if curOK && next < cur {
			return core.StatusValidation, nil
		}
	}

	if err := s.store.UpdateLeadStatus(ctx, leadID, status); err != nil {
		return "", err
	}
	return core.StatusOK, nil
}

// UpdateConsent records the compliance gate for outbound WhatsApp.
func (s *LeadService) UpdateConsent(ctx context.Context, leadID, consent string) (core.StatusCode, error) {
	switch consent {
	case models.ConsentUnknown, models.ConsentOptIn, models.ConsentOptOut:
	default:
		return core.StatusValidation, nil
	}

	err := s.store.UpdateLeadConsent(ctx, leadID, consent)
	if errors.Is(err, core.ErrNotFound) {
		return core.StatusNotFound, nil
	}
	if err != nil {
		return "", err
	}
	return core.StatusOK, nil
}
