package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/chitragupta-ai/chitragupta-server/internal/core"
	"github.com/chitragupta-ai/chitragupta-server/internal/models"
)

// ─── leads ───

const leadColumns = `id, name, phone, email, whatsapp_number, source, status, consent_status, last_contacted_at, created_at, updated_at`

func (c *DatabaseClient) CreateLead(ctx context.Context, lead *models.Lead) error {
	if lead == nil {
		return errors.New("nil lead")
	}
	const q = `
		INSERT INTO leads (` + leadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, now()), COALESCE($11, now()))
	`
	_, err := c.q().ExecContext(ctx, q,
		lead.ID, lead.Name, lead.Phone, lead.Email, lead.WhatsAppNumber,
		lead.Source, lead.Status, lead.ConsentStatus, lead.LastContactedAt,
		lead.CreatedAt, lead.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetLeadByID(ctx context.Context, id string) (*models.Lead, error) {
	const q = `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	return c.scanLead(c.q().QueryRowContext(ctx, q, id))
}

func (c *DatabaseClient) FindLeadByPhone(ctx context.Context, phone string) (*models.Lead, error) {
	const q = `SELECT ` + leadColumns + ` FROM leads WHERE phone = $1 AND phone <> ''`
	return c.scanLead(c.q().QueryRowContext(ctx, q, phone))
}

func (c *DatabaseClient) FindLeadByEmail(ctx context.Context, email string) (*models.Lead, error) {
	const q = `SELECT ` + leadColumns + ` FROM leads WHERE email = $1 AND email <> ''`
	return c.scanLead(c.q().QueryRowContext(ctx, q, email))
}

func (c *DatabaseClient) scanLead(row *sql.Row) (*models.Lead, error) {
	var (
		l             models.Lead
		lastContacted sql.NullTime
	)
	err := row.Scan(&l.ID, &l.Name, &l.Phone, &l.Email, &l.WhatsAppNumber,
		&l.Source, &l.Status, &l.ConsentStatus, &lastContacted, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lastContacted.Valid {
		t := lastContacted.Time
		l.LastContactedAt = &t
	}
	return &l, nil
}

func (c *DatabaseClient) ListLeads(ctx context.Context, limit int) ([]models.Lead, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + leadColumns + ` FROM leads ORDER BY created_at DESC LIMIT $1`
	rows, err := c.q().QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Lead
	for rows.Next() {
		var (
			l             models.Lead
			lastContacted sql.NullTime
		)
		if err := rows.Scan(&l.ID, &l.Name, &l.Phone, &l.Email, &l.WhatsAppNumber,
			&l.Source, &l.Status, &l.ConsentStatus, &lastContacted, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		if lastContacted.Valid {
			t := lastContacted.Time
			l.LastContactedAt = &t
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateLeadStatus(ctx context.Context, id, status string) error {
	const q = `UPDATE leads SET status = $2, updated_at = now() WHERE id = $1`
	return c.execExpectingRow(ctx, q, id, status)
}

func (c *DatabaseClient) UpdateLeadConsent(ctx context.Context, id, consentStatus string) error {
	const q = `UPDATE leads SET consent_status = $2, updated_at = now() WHERE id = $1`
	return c.execExpectingRow(ctx, q, id, consentStatus)
}

func (c *DatabaseClient) TouchLeadContacted(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE leads SET last_contacted_at = $2, updated_at = now() WHERE id = $1`
	return c.execExpectingRow(ctx, q, id, at)
}

func (c *DatabaseClient) CountLeadsCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	const q = `SELECT COUNT(*) FROM leads WHERE created_at >= $1`
	var n int64
	err := c.q().QueryRowContext(ctx, q, since).Scan(&n)
	return n, err
}

func (c *DatabaseClient) execExpectingRow(ctx context.Context, query string, args ...any) error {
	res, err := c.q().ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ─── enquiries ───

func (c *DatabaseClient) UpsertEnquiry(ctx context.Context, enquiry *models.Enquiry) (bool, error) {
	if enquiry == nil {
		return false, errors.New("nil enquiry")
	}
	contact, err := json.Marshal(enquiry.Contact)
	if err != nil {
		return false, err
	}
	// Same (source, sourceRef) means same id; re-ingesting is a no-op.
	const q = `
		INSERT INTO enquiries (id, source, source_ref, content, contact, lead_id, triaged, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()), COALESCE($9, now()))
		ON CONFLICT (id) DO NOTHING
	`
	res, err := c.q().ExecContext(ctx, q,
		enquiry.ID, enquiry.Source, enquiry.SourceRef, enquiry.Content, contact,
		enquiry.LeadID, enquiry.Triaged, enquiry.CreatedAt, enquiry.UpdatedAt)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

const enquiryColumns = `id, source, source_ref, content, contact, lead_id, triaged, created_at, updated_at`

func (c *DatabaseClient) GetEnquiryByID(ctx context.Context, id string) (*models.Enquiry, error) {
	const q = `SELECT ` + enquiryColumns + ` FROM enquiries WHERE id = $1`
	var (
		e       models.Enquiry
		contact []byte
	)
	err := c.q().QueryRowContext(ctx, q, id).Scan(
		&e.ID, &e.Source, &e.SourceRef, &e.Content, &contact, &e.LeadID, &e.Triaged, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(contact, &e.Contact); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *DatabaseClient) ListUntriagedEnquiries(ctx context.Context, limit int) ([]models.Enquiry, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + enquiryColumns + ` FROM enquiries WHERE triaged = FALSE ORDER BY created_at ASC LIMIT $1`
	rows, err := c.q().QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Enquiry
	for rows.Next() {
		var (
			e       models.Enquiry
			contact []byte
		)
		if err := rows.Scan(&e.ID, &e.Source, &e.SourceRef, &e.Content, &contact,
			&e.LeadID, &e.Triaged, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(contact, &e.Contact); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) MarkEnquiryTriaged(ctx context.Context, id string) (bool, error) {
	const q = `UPDATE enquiries SET triaged = TRUE, updated_at = now() WHERE id = $1 AND triaged = FALSE`
	res, err := c.q().ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ─── messages ───

func (c *DatabaseClient) AppendMessage(ctx context.Context, msg *models.Message) error {
	if msg == nil {
		return errors.New("nil message")
	}
	metadata, err := json.Marshal(msg.Metadata)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO messages (id, lead_id, direction, channel, content, status, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()))
	`
	_, err = c.q().ExecContext(ctx, q,
		msg.ID, msg.LeadID, msg.Direction, msg.Channel, msg.Content, msg.Status, metadata, msg.CreatedAt)
	return err
}

func (c *DatabaseClient) ListMessagesByLead(ctx context.Context, leadID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 200
	}
	const q = `
		SELECT id, lead_id, direction, channel, content, status, metadata, created_at
		FROM messages WHERE lead_id = $1 ORDER BY created_at ASC LIMIT $2
	`
	rows, err := c.q().QueryContext(ctx, q, leadID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var (
			m        models.Message
			metadata []byte
		)
		if err := rows.Scan(&m.ID, &m.LeadID, &m.Direction, &m.Channel, &m.Content,
			&m.Status, &metadata, &m.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metadata, &m.Metadata); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) CountOutboundWhatsAppSince(ctx context.Context, since time.Time) (int64, error) {
	const q = `
		SELECT COUNT(*) FROM messages
		WHERE channel = $1 AND direction = $2 AND created_at >= $3
	`
	var n int64
	err := c.q().QueryRowContext(ctx, q, models.ChannelWhatsApp, models.DirectionOutbound, since).Scan(&n)
	return n, err
}

func (c *DatabaseClient) CountOutboundWhatsAppForLeadSince(ctx context.Context, leadID string, since time.Time) (int64, error) {
	const q = `
		SELECT COUNT(*) FROM messages
		WHERE lead_id = $1 AND channel = $2 AND direction = $3 AND created_at >= $4
	`
	var n int64
	err := c.q().QueryRowContext(ctx, q, leadID, models.ChannelWhatsApp, models.DirectionOutbound, since).Scan(&n)
	return n, err
}
