package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/job-board/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrResetTokenInvalid is returned for unknown, expired or already used recovery tokens
var ErrResetTokenInvalid = errors.New("password reset token is invalid or expired")

// TokenRepository stores revoked session tokens and password recovery tokens
type TokenRepository interface {
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) error
	CreatePasswordReset(ctx context.Context, reset *models.PasswordReset) error
	ConsumePasswordReset(ctx context.Context, tokenHash string, now time.Time) (*models.PasswordReset, error)
}

type PostgresTokenRepository struct {
	db *gorm.DB
}

func NewPostgresTokenRepository(db *gorm.DB) *PostgresTokenRepository {
	return &PostgresTokenRepository{db: db}
}

func (r *PostgresTokenRepository) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.RevokedToken{TokenID: tokenID, ExpiresAt: expiresAt}).Error
}

func (r *PostgresTokenRepository) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RevokedToken{}).Where("token_id = ?", tokenID).Count(&count).Error
	return count > 0, err
}

// PurgeExpired drops revocations and recovery tokens that can no longer be presented
func (r *PostgresTokenRepository) PurgeExpired(ctx context.Context, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expires_at < ?", now).Delete(&models.RevokedToken{}).Error; err != nil {
			return err
		}
		return tx.Where("expires_at < ?", now).Delete(&models.PasswordReset{}).Error
	})
}

func (r *PostgresTokenRepository) CreatePasswordReset(ctx context.Context, reset *models.PasswordReset) error {
	return r.db.WithContext(ctx).Create(reset).Error
}

// ConsumePasswordReset marks the token as used and returns it. A token can be consumed once.
func (r *PostgresTokenRepository) ConsumePasswordReset(ctx context.Context, tokenHash string, now time.Time) (*models.PasswordReset, error) {
	res := r.db.WithContext(ctx).Model(&models.PasswordReset{}).
		Where("token_hash = ? AND used_at IS NULL AND expires_at > ?", tokenHash, now).
		Update("used_at", now)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrResetTokenInvalid
	}

	var reset models.PasswordReset
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&reset).Error; err != nil {
		return nil, err
	}
	return &reset, nil
}
