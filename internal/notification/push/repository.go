package push

import (
	"context"
	"fmt"
	"time"

	"promise_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DeviceToken is a registered customer device
type DeviceToken struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"userId"`
	Token      string     `json:"token"`
	Platform   string     `json:"platform"`
	IsActive   bool       `json:"isActive"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
}

// Repository stores device tokens
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a device token repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Register upserts a token. A token moving to another account follows it.
func (r *Repository) Register(ctx context.Context, userID uuid.UUID, token, platform string) (DeviceToken, error) {
	var d DeviceToken
	err := r.pool.QueryRow(ctx, `
		INSERT INTO device_tokens (user_id, token, platform)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE
		SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform, is_active = true
		RETURNING id, user_id, token, platform, is_active, created_at, last_used_at
	`, userID, token, platform).Scan(&d.ID, &d.UserID, &d.Token, &d.Platform, &d.IsActive, &d.CreatedAt, &d.LastUsedAt)
	if err != nil {
		return DeviceToken{}, fmt.Errorf("failed to register device token: %w", err)
	}
	return d, nil
}

// Unregister deactivates a token owned by the user
func (r *Repository) Unregister(ctx context.Context, userID uuid.UUID, token string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE device_tokens SET is_active = false
		WHERE user_id = $1 AND token = $2 AND is_active
	`, userID, token)
	if err != nil {
		return fmt.Errorf("failed to unregister device token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("device token not found")
	}
	return nil
}

// ActiveTokens returns the user's active tokens
func (r *Repository) ActiveTokens(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT token FROM device_tokens
		WHERE user_id = $1 AND is_active
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}
	defer rows.Close()

	tokens := make([]string, 0)
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// Deactivate disables a token the push provider rejected
func (r *Repository) Deactivate(ctx context.Context, token string) error {
	if _, err := r.pool.Exec(ctx, `UPDATE device_tokens SET is_active = false WHERE token = $1`, token); err != nil {
		return fmt.Errorf("failed to deactivate device token: %w", err)
	}
	return nil
}

// Touch records a successful delivery
func (r *Repository) Touch(ctx context.Context, token string) error {
	if _, err := r.pool.Exec(ctx, `UPDATE device_tokens SET last_used_at = now() WHERE token = $1`, token); err != nil {
		return fmt.Errorf("failed to touch device token: %w", err)
	}
	return nil
}

// DeleteInactiveBefore removes deactivated tokens not used since the cutoff
func (r *Repository) DeleteInactiveBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM device_tokens
		WHERE NOT is_active AND COALESCE(last_used_at, created_at) < $1
	`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete inactive device tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
