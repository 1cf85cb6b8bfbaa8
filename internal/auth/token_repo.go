package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nearmarket/nearmarket-backend/pkg/db/models"
)

// TokenRepository persists refresh token hashes.
type TokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository builds a repository tied to the provided GORM DB.
func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *TokenRepository) WithTx(tx *gorm.DB) *TokenRepository {
	return &TokenRepository{db: tx}
}

// Create inserts a refresh token row.
func (r *TokenRepository) Create(ctx context.Context, token *models.RefreshToken) (*models.RefreshToken, error) {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return nil, err
	}
	return token, nil
}

// FindByHash loads the token row matching the hash.
func (r *TokenRepository) FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// Revoke marks the token row revoked.
func (r *TokenRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("id = ?", id).
		UpdateColumn("revoked", true).Error
}

// RevokeAllForUser invalidates every live token for the user.
func (r *TokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		UpdateColumn("revoked", true).Error
}

// DeleteExpired prunes rows past their expiry.
func (r *TokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
