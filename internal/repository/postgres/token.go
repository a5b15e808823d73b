package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/dentalize/scheduler-api/pkg/errors"
)

func (r *tokenRepository) StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error {
	query := `
		INSERT INTO reset_tokens (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (token) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, token, userID, expiry)
	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

func (r *tokenRepository) ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	query := `
		SELECT user_id FROM reset_tokens
		WHERE token = $1 AND expires_at > NOW() AND used_at IS NULL
	`
	var userID uuid.UUID
	err := r.db.GetContext(ctx, &userID, query, token)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, apperrors.NewUnauthorized("invalid or expired reset token")
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to validate reset token: %w", err)
	}
	return userID, nil
}

func (r *tokenRepository) InvalidateToken(ctx context.Context, token string) error {
	query := `
		UPDATE reset_tokens SET used_at = NOW() WHERE token = $1
	`
	_, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}
	return nil
}
