package auth

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"pg-manager/internal/apperr"
	"pg-manager/internal/handlers/respond"
	"pg-manager/internal/models"
	"pg-manager/internal/stores"
	"pg-manager/internal/token"
	"pg-manager/internal/user"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AuthHandler struct {
	UserStore         stores.UserStore
	RefreshTokenStore stores.RefreshTokenStore
	Hasher            user.PasswordHasher
	TokenService      token.TokenService
	AccessTTL         time.Duration
	RefreshTTL        time.Duration

	dummyOnce sync.Once
	dummyHash []byte
}

const RefreshTokenExpiration time.Duration = 7 * 24 * time.Hour
const AccessTokenExpiration time.Duration = 15 * time.Minute

// NewAuthHandler constructs an AuthHandler with the default token lifetimes.
func NewAuthHandler(
	userStore stores.UserStore,
	refreshTokenStore stores.RefreshTokenStore,
	hasher user.PasswordHasher,
	tokenService token.TokenService,
) *AuthHandler {
	return &AuthHandler{
		UserStore:         userStore,
		RefreshTokenStore: refreshTokenStore,
		Hasher:            hasher,
		TokenService:      tokenService,
		AccessTTL:         AccessTokenExpiration,
		RefreshTTL:        RefreshTokenExpiration,
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := respond.BindJSON(c, &req); err != nil {
		respond.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	u, err := h.UserStore.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, stores.ErrNotFound) {
		// Unknown emails pay the same hashing cost as wrong passwords.
		_ = h.Hasher.Compare(h.dummy(), []byte(req.Password))
		respond.Error(c, apperr.Unauthenticated("invalid email or password"))
		return
	}
	if err != nil {
		respond.Error(c, apperr.Internal(err, "could not look up user"))
		return
	}

	if err := h.Hasher.Compare([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		respond.Error(c, apperr.Unauthenticated("invalid email or password"))
		return
	}
	if !u.IsActive {
		respond.Error(c, apperr.Forbidden("account is inactive"))
		return
	}

	accessToken, err := h.TokenService.GenerateAccessToken(u.ID, string(u.Role), h.AccessTTL)
	if err != nil {
		respond.Error(c, apperr.Internal(err, "could not sign token"))
		return
	}

	refreshRaw, refreshHash, err := h.TokenService.GenerateRandomRefreshToken(32)
	if err != nil {
		respond.Error(c, apperr.Internal(err, "could not generate refresh token"))
		return
	}

	refreshToken := models.RefreshToken{
		TokenHash: refreshHash,
		UserID:    u.ID,
		ExpiresAt: time.Now().Add(h.RefreshTTL),
	}
	if err := h.RefreshTokenStore.CreateRefreshToken(ctx, &refreshToken); err != nil {
		respond.Error(c, apperr.Internal(err, "could not save refresh token"))
		return
	}

	respond.Logger(c).WithField("user_id", u.ID).Info("User logged in")
	c.JSON(http.StatusOK, h.tokenResponse(accessToken, refreshRaw))
}

// Me returns the caller's account, including the tenant profile and room
// for tenant accounts.
// dummy returns a hash produced by the configured hasher, so comparing
// against it costs what a real comparison does.
func (h *AuthHandler) dummy() []byte {
	h.dummyOnce.Do(func() {
		hash, err := h.Hasher.Hash([]byte("pg-manager-login-placeholder"))
		if err != nil {
			hash = []byte{}
		}
		h.dummyHash = hash
	})
	return h.dummyHash
}

func (h *AuthHandler) Me(c *gin.Context) {
	v, ok := c.Get(respond.UserKey)
	if !ok {
		respond.Error(c, apperr.Unauthenticated("authentication required"))
		return
	}
	c.JSON(http.StatusOK, v.(*models.User))
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := respond.BindJSON(c, &req); err != nil {
		respond.Error(c, err)
		return
	}

	hash := h.TokenService.HashRefreshToken(req.RefreshToken)

	res, err := h.RefreshTokenStore.Rotate(c.Request.Context(), hash, time.Now(), h.RefreshTTL)
	if err != nil {
		if errors.Is(err, stores.ErrInvalidRefresh) {
			respond.Error(c, apperr.Unauthenticated("invalid refresh token"))
			return
		}
		respond.Error(c, apperr.Internal(err, "could not rotate refresh token"))
		return
	}

	accessToken, err := h.TokenService.GenerateAccessToken(res.UserID, string(res.Role), h.AccessTTL)
	if err != nil {
		respond.Error(c, apperr.Internal(err, "could not sign token"))
		return
	}

	c.JSON(http.StatusOK, h.tokenResponse(accessToken, res.NewRaw))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := respond.BindJSON(c, &req); err != nil {
		respond.Error(c, err)
		return
	}

	hashed := h.TokenService.HashRefreshToken(req.RefreshToken)
	if err := h.RefreshTokenStore.RevokeRefreshToken(c.Request.Context(), hashed); err != nil {
		respond.Error(c, apperr.Internal(err, "could not revoke refresh token"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logout successful"})
}

func (h *AuthHandler) tokenResponse(access, refresh string) TokenResponse {
	return TokenResponse{
		AccessToken:  access,
		TokenType:    "bearer",
		RefreshToken: refresh,
		ExpiresIn:    int64(h.AccessTTL / time.Second),
	}
}
