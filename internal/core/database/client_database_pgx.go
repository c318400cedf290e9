package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/chitragupta-ai/chitragupta-server/internal/config"
	"github.com/chitragupta-ai/chitragupta-server/internal/core"
	"github.com/chitragupta-ai/chitragupta-server/internal/models"
)

// queryer is satisfied by both *sql.DB and *sql.Tx so every query method
// works inside and outside a transaction.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type DatabaseClient struct {
	db *sql.DB
	tx *sql.Tx
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *DatabaseClient) q() queryer {
	if c.tx != nil {
		return c.tx
	}
	return c.db
}

const txAttempts = 3

// WithTx runs fn inside a transaction, retrying the whole attempt on
// contention so create-or-match sequences stay correct under concurrency.
// Nested calls reuse the enclosing transaction.
func (c *DatabaseClient) WithTx(ctx context.Context, fn func(tx core.Store) error) error {
	if c.tx != nil {
		return fn(c)
	}

	var lastErr error
	for attempt := 0; attempt < txAttempts; attempt++ {
		tx, err := c.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}

		err = fn(&DatabaseClient{db: c.db, tx: tx})
		if err != nil {
			_ = tx.Rollback()
			if retryableTxError(err) {
				lastErr = err
				continue
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			if retryableTxError(err) {
				lastErr = err
				continue
			}
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	}
	return fmt.Errorf("tx retries exhausted: %w", lastErr)
}

// retryableTxError reports whether the transaction lost a race it can win on
// a clean re-run: serialization failure, deadlock, or a unique-index
// violation from two writers both deciding "no existing row".
func retryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "23505":
		return true
	}
	return false
}

// ─── users ───

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, name, email, password_hash, director, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()), COALESCE($7, now()))
	`
	_, err := c.q().ExecContext(ctx, q,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Director, user.CreatedAt, user.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, name, email, password_hash, director, created_at, updated_at
		FROM users WHERE email = $1
	`
	return c.scanUser(c.q().QueryRowContext(ctx, q, email))
}

func (c *DatabaseClient) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const q = `
		SELECT id, name, email, password_hash, director, created_at, updated_at
		FROM users WHERE id = $1
	`
	return c.scanUser(c.q().QueryRowContext(ctx, q, id))
}

func (c *DatabaseClient) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Director, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *DatabaseClient) SetUserDirector(ctx context.Context, id string, director bool) error {
	const q = `
		UPDATE users SET director = $2, updated_at = now() WHERE id = $1
	`
	res, err := c.q().ExecContext(ctx, q, id, director)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
