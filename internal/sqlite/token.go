package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/ticketdesk/internal/domain/session"
	"github.com/rpggio/ticketdesk/internal/repository"
)

var _ session.TokenRepository = (*TokenRepository)(nil)

// TokenRepository persists the bearer token for one API endpoint.
type TokenRepository struct {
	db       *DB
	endpoint string
	now      func() time.Time
}

// NewTokenRepository creates a TokenRepository keyed by endpoint, usually
// the API base URL.
func NewTokenRepository(db *DB, endpoint string) *TokenRepository {
	return &TokenRepository{db: db, endpoint: endpoint, now: time.Now}
}

// Load returns the stored token or repository.ErrNotFound.
func (r *TokenRepository) Load(ctx context.Context) (string, error) {
	var token string
	err := r.db.QueryRowContext(ctx,
		`SELECT token FROM session_tokens WHERE endpoint = ?`, r.endpoint,
	).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// Save stores token, replacing any previous one.
func (r *TokenRepository) Save(ctx context.Context, token string) error {
	if token == "" {
		return repository.ErrInvalidInput
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_tokens (endpoint, token, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(endpoint) DO UPDATE SET token = excluded.token, saved_at = excluded.saved_at
	`, r.endpoint, token, r.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Clear removes the stored token. Clearing an empty store is not an error.
func (r *TokenRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session_tokens WHERE endpoint = ?`, r.endpoint); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}
