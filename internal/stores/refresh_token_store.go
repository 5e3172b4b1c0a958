package stores

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pg-manager/internal/models"
	"pg-manager/internal/token"
)

type RotateResult struct {
	UserID uint
	Role   models.Role
	NewRaw string
}

type RefreshTokenStore interface {
	CreateRefreshToken(ctx context.Context, rt *models.RefreshToken) error
	Rotate(ctx context.Context, hash []byte, now time.Time, ttl time.Duration) (RotateResult, error)
	RevokeRefreshToken(ctx context.Context, tokenHash []byte) error
}

// GormRefreshTokenStore implements RefreshTokenStore using GORM.
type GormRefreshTokenStore struct {
	DB           *gorm.DB
	TokenService token.TokenService
}

func (s *GormRefreshTokenStore) CreateRefreshToken(ctx context.Context, rt *models.RefreshToken) error {
	return s.DB.WithContext(ctx).Omit("User").Create(rt).Error
}

// Rotate revokes the presented token and issues its successor in one
// transaction. Tokens of deactivated users are refused.
func (s *GormRefreshTokenStore) Rotate(
	ctx context.Context,
	hash []byte,
	now time.Time,
	ttl time.Duration,
) (RotateResult, error) {
	var out RotateResult

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rt models.RefreshToken
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("User").
			Where("token_hash = ? AND expires_at > ? AND revoked = ?", hash, now, false).
			First(&rt).Error; err != nil {

			return ErrInvalidRefresh
		}
		if !rt.User.IsActive {
			return ErrInvalidRefresh
		}

		if err := tx.Model(&rt).Update("revoked", true).Error; err != nil {
			return err
		}

		raw, newHash, err := s.TokenService.GenerateRandomRefreshToken(32)
		if err != nil {
			return err
		}

		newRT := models.RefreshToken{
			TokenHash: newHash,
			UserID:    rt.UserID,
			ExpiresAt: now.Add(ttl),
			Revoked:   false,
		}

		if err := tx.Omit("User").Create(&newRT).Error; err != nil {
			return err
		}

		out = RotateResult{
			UserID: rt.User.ID,
			Role:   rt.User.Role,
			NewRaw: raw,
		}
		return nil
	})

	return out, err
}

func (s *GormRefreshTokenStore) RevokeRefreshToken(ctx context.Context, tokenHash []byte) error {
	return s.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}
