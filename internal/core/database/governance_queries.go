package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/chitragupta-ai/chitragupta-server/internal/models"
)

// ─── approvals ───

const approvalColumns = `id, kind, lead_id, draft, status, outcome, decided_by, decided_at, created_at`

func (c *DatabaseClient) CreateApproval(ctx context.Context, approval *models.Approval) error {
	if approval == nil {
		return errors.New("nil approval")
	}
	draft, err := json.Marshal(approval.Draft)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO approvals (id, kind, lead_id, draft, status, outcome, decided_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()))
	`
	_, err = c.q().ExecContext(ctx, q,
		approval.ID, approval.Kind, approval.LeadID, draft,
		approval.Status, approval.Outcome, approval.DecidedBy, approval.CreatedAt)
	return err
}

func (c *DatabaseClient) GetApprovalByID(ctx context.Context, id string) (*models.Approval, error) {
	const q = `SELECT ` + approvalColumns + ` FROM approvals WHERE id = $1`
	return c.scanApproval(c.q().QueryRowContext(ctx, q, id))
}

// GetApprovalForDecision locks the approval row until the surrounding
// transaction ends, so two concurrent decisions against the same approval
// serialize and the loser observes the terminal state.
func (c *DatabaseClient) GetApprovalForDecision(ctx context.Context, id string) (*models.Approval, error) {
	q := `SELECT ` + approvalColumns + ` FROM approvals WHERE id = $1`
	if c.tx != nil {
		q += ` FOR UPDATE`
	}
	return c.scanApproval(c.q().QueryRowContext(ctx, q, id))
}

func (c *DatabaseClient) scanApproval(row *sql.Row) (*models.Approval, error) {
	var (
		a         models.Approval
		draft     []byte
		decidedAt sql.NullTime
	)
	err := row.Scan(&a.ID, &a.Kind, &a.LeadID, &draft, &a.Status, &a.Outcome, &a.DecidedBy, &decidedAt, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(draft, &a.Draft); err != nil {
		return nil, err
	}
	if decidedAt.Valid {
		t := decidedAt.Time
		a.DecidedAt = &t
	}
	return &a, nil
}

func (c *DatabaseClient) ListApprovalsByStatus(ctx context.Context, status string, limit int) ([]models.Approval, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + approvalColumns + ` FROM approvals WHERE status = $1 ORDER BY created_at ASC LIMIT $2`
	rows, err := c.q().QueryContext(ctx, q, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Approval
	for rows.Next() {
		var (
			a         models.Approval
			draft     []byte
			decidedAt sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.Kind, &a.LeadID, &draft, &a.Status, &a.Outcome,
			&a.DecidedBy, &decidedAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(draft, &a.Draft); err != nil {
			return nil, err
		}
		if decidedAt.Valid {
			t := decidedAt.Time
			a.DecidedAt = &t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// FinalizeApproval is the single gate out of pending. The WHERE clause makes
// the terminal write conditional, so it applies at most once.
func (c *DatabaseClient) FinalizeApproval(ctx context.Context, id, status, outcome, decidedBy string, decidedAt time.Time) (bool, error) {
	const q = `
		UPDATE approvals
		SET status = $2, outcome = $3, decided_by = $4, decided_at = $5
		WHERE id = $1 AND status = 'pending'
	`
	res, err := c.q().ExecContext(ctx, q, id, status, outcome, decidedBy, decidedAt)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (c *DatabaseClient) CountPendingApprovals(ctx context.Context) (int64, error) {
	const q = `SELECT COUNT(*) FROM approvals WHERE status = 'pending'`
	var n int64
	err := c.q().QueryRowContext(ctx, q).Scan(&n)
	return n, err
}

// ─── quotes ───

func (c *DatabaseClient) CreateQuote(ctx context.Context, quote *models.Quote) error {
	if quote == nil {
		return errors.New("nil quote")
	}
	items, err := json.Marshal(quote.Items)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO quotes (id, lead_id, items, total, status, pdf_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, now()))
	`
	_, err = c.q().ExecContext(ctx, q,
		quote.ID, quote.LeadID, items, quote.Total, quote.Status, quote.PDFURL, quote.CreatedAt)
	return err
}

func (c *DatabaseClient) GetQuoteByID(ctx context.Context, id string) (*models.Quote, error) {
	const q = `SELECT id, lead_id, items, total, status, pdf_url, created_at FROM quotes WHERE id = $1`
	var (
		quote models.Quote
		items []byte
	)
	err := c.q().QueryRowContext(ctx, q, id).Scan(
		&quote.ID, &quote.LeadID, &items, &quote.Total, &quote.Status, &quote.PDFURL, &quote.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &quote.Items); err != nil {
		return nil, err
	}
	return &quote, nil
}

func (c *DatabaseClient) UpdateQuoteStatus(ctx context.Context, id, status string) error {
	const q = `UPDATE quotes SET status = $2 WHERE id = $1`
	return c.execExpectingRow(ctx, q, id, status)
}

func (c *DatabaseClient) SumOpenQuoteTotals(ctx context.Context) (float64, error) {
	const q = `SELECT COALESCE(SUM(total), 0) FROM quotes WHERE status IN ('draft', 'approved')`
	var total float64
	err := c.q().QueryRowContext(ctx, q).Scan(&total)
	return total, err
}

// ─── daily metrics ───

// IncDailyMetric is an atomic read-free increment; two concurrent callers
// never lose an update.
func (c *DatabaseClient) IncDailyMetric(ctx context.Context, dayKey, counter string, delta int64) error {
	// counter names map to columns; whitelist to keep SQL static.
	switch counter {
	case "approvals_pending":
	default:
		return fmt.Errorf("unknown daily counter %q", counter)
	}
	const q = `
		INSERT INTO metrics_daily (id, approvals_pending, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE
		SET approvals_pending = metrics_daily.approvals_pending + EXCLUDED.approvals_pending,
		    updated_at = now()
	`
	_, err := c.q().ExecContext(ctx, q, dayKey, delta)
	return err
}

func (c *DatabaseClient) GetDailyMetric(ctx context.Context, dayKey string) (*models.DailyMetric, error) {
	const q = `SELECT id, approvals_pending, updated_at FROM metrics_daily WHERE id = $1`
	var m models.DailyMetric
	err := c.q().QueryRowContext(ctx, q, dayKey).Scan(&m.ID, &m.ApprovalsPending, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ─── system config ───

func (c *DatabaseClient) GetSystemConfig(ctx context.Context, id string) (map[string]string, error) {
	const q = `SELECT data FROM system_config WHERE id = $1`
	var raw []byte
	err := c.q().QueryRowContext(ctx, q, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	data := map[string]string{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (c *DatabaseClient) SetSystemConfig(ctx context.Context, id string, data map[string]string) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO system_config (id, data) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data
	`
	_, err = c.q().ExecContext(ctx, q, id, raw)
	return err
}

// ─── memories ───

func (c *DatabaseClient) InsertMemory(ctx context.Context, memory *models.Memory) error {
	if memory == nil {
		return errors.New("nil memory")
	}
	const q = `
		INSERT INTO memories (id, content, embedding, type, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`
	_, err := c.q().ExecContext(ctx, q,
		memory.ID, memory.Content, pgvector.NewVector(memory.Embedding), memory.Type, memory.CreatedAt)
	return err
}

func (c *DatabaseClient) SearchMemories(ctx context.Context, embedding []float32, limit int) ([]models.Memory, error) {
	if limit <= 0 {
		limit = 3
	}
	const q = `
		SELECT id, content, embedding, type, created_at
		FROM memories
		ORDER BY embedding <-> $1
		LIMIT $2
	`
	rows, err := c.q().QueryContext(ctx, q, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Memory
	for rows.Next() {
		var (
			m   models.Memory
			emb pgvector.Vector
		)
		if err := rows.Scan(&m.ID, &m.Content, &emb, &m.Type, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Embedding = emb.Slice()
		out = append(out, m)
	}
	return out, rows.Err()
}
