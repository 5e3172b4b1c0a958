package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"pg-manager/internal/models"
	"pg-manager/internal/stores"
)

type RefreshTokenStore struct{ mock.Mock }

func (m *RefreshTokenStore) CreateRefreshToken(ctx context.Context, rt *models.RefreshToken) error {
	return m.Called(ctx, rt).Error(0)
}

func (m *RefreshTokenStore) Rotate(ctx context.Context, hash []byte, now time.Time, ttl time.Duration) (stores.RotateResult, error) {
	args := m.Called(ctx, hash, now, ttl)
	var out stores.RotateResult
	if v := args.Get(0); v != nil {
		out = v.(stores.RotateResult)
	}
	return out, args.Error(1)
}

func (m *RefreshTokenStore) RevokeRefreshToken(ctx context.Context, tokenHash []byte) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}
