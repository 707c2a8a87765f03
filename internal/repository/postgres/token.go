package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	tokenTypeReset  = "reset"
	tokenTypeVerify = "verify"
)

func (r *tokenRepository) StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error {
	return r.storeToken(ctx, userID, token, tokenTypeReset, expiry)
}

func (r *tokenRepository) ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	return r.validateToken(ctx, token, tokenTypeReset)
}

func (r *tokenRepository) InvalidateResetToken(ctx context.Context, token string) error {
	return r.invalidateToken(ctx, token, tokenTypeReset)
}

func (r *tokenRepository) StoreVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error {
	return r.storeToken(ctx, userID, token, tokenTypeVerify, expiry)
}

func (r *tokenRepository) ValidateVerificationToken(ctx context.Context, token string) (uuid.UUID, error) {
	return r.validateToken(ctx, token, tokenTypeVerify)
}

func (r *tokenRepository) InvalidateVerificationToken(ctx context.Context, token string) error {
	return r.invalidateToken(ctx, token, tokenTypeVerify)
}

func (r *tokenRepository) storeToken(ctx context.Context, userID uuid.UUID, token, tokenType string, expiry time.Time) error {
	query := `
		INSERT INTO user_tokens (user_id, token, type, expires_at, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id, type) DO UPDATE
		SET token = $2, expires_at = $4, used_at = NULL, updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, userID, token, tokenType, expiry); err != nil {
		return fmt.Errorf("failed to store %s token: %w", tokenType, err)
	}
	return nil
}

func (r *tokenRepository) validateToken(ctx context.Context, token, tokenType string) (uuid.UUID, error) {
	query := `
		SELECT user_id
		FROM user_tokens
		WHERE token = $1
		AND type = $2
		AND expires_at > NOW()
		AND used_at IS NULL
	`
	var userID uuid.UUID
	if err := r.db.GetContext(ctx, &userID, query, token, tokenType); err != nil {
		return uuid.Nil, fmt.Errorf("invalid or expired token: %w", err)
	}
	return userID, nil
}

func (r *tokenRepository) invalidateToken(ctx context.Context, token, tokenType string) error {
	query := `UPDATE user_tokens SET used_at = NOW() WHERE token = $1 AND type = $2`
	if _, err := r.db.ExecContext(ctx, query, token, tokenType); err != nil {
		return fmt.Errorf("failed to invalidate %s token: %w", tokenType, err)
	}
	return nil
}
