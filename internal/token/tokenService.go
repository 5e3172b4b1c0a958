package token

import (
	"errors"
	"time"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type TokenService interface {
	GenerateRandomRefreshToken(length int) (raw string, hash []byte, err error)
	HashRefreshToken(raw string) []byte
	GenerateAccessToken(userID uint, role string, ttl time.Duration) (string, error)
	ParseAccessToken(raw string) (*Claims, error)
}
