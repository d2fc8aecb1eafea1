package repositories

import (
	"context"
	"errors"
	"time"

	"corntrack/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// ErrAlreadyRevoked is returned when a refresh token was revoked by a
// concurrent request between read and rotation
var ErrAlreadyRevoked = errors.New("refresh token already revoked")

type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// GetByTokenHash returns the token whether or not it is revoked; reuse
// detection needs revoked rows too
func (r *refreshTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// Revoke revokes one live token. Losing a rotation race yields ErrAlreadyRevoked.
func (r *refreshTokenRepository) Revoke(ctx context.Context, id uint) error {
	n, err := r.revoke(ctx, "id = ?", id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyRevoked
	}
	return nil
}

func (r *refreshTokenRepository) RevokeByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := r.revoke(ctx, "token_hash = ?", tokenHash)
	return err
}

func (r *refreshTokenRepository) RevokeAllByUserID(ctx context.Context, userID uint) error {
	_, err := r.revoke(ctx, "user_id = ?", userID)
	return err
}

// DeleteExpired removes tokens past expiry; run by the cleanup cron job
func (r *refreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}

// revoke stamps revoked_at on the live tokens matching the condition
func (r *refreshTokenRepository) revoke(ctx context.Context, cond string, arg interface{}) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where(cond, arg).
		Where("revoked_at IS NULL").
		Update("revoked_at", time.Now())
	return result.RowsAffected, result.Error
}
