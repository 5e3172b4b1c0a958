package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"pg-manager/internal/access"
	"pg-manager/internal/apperr"
	"pg-manager/internal/handlers/respond"
	"pg-manager/internal/stores"
	"pg-manager/internal/token"
)

// JWTAuthMiddleware resolves the bearer token to a live, active user and
// stores the caller's Principal on the context.
func JWTAuthMiddleware(tokens token.TokenService, users stores.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			respond.Error(c, apperr.Unauthenticated("authorization header must be: Bearer <token>"))
			return
		}

		claims, err := tokens.ParseAccessToken(raw)
		if err != nil {
			respond.Error(c, apperr.Unauthenticated("invalid or expired token"))
			return
		}

		u, err := users.GetByID(c.Request.Context(), claims.UserID)
		if errors.Is(err, stores.ErrNotFound) {
			respond.Error(c, apperr.Unauthenticated("user no longer exists"))
			return
		}
		if err != nil {
			respond.Error(c, apperr.Internal(err, "could not load user"))
			return
		}
		if !u.IsActive {
			respond.Error(c, apperr.Forbidden("account is inactive"))
			return
		}

		principal := access.PrincipalFor(u)
		c.Set(respond.UserKey, u)
		c.Set(respond.PrincipalKey, principal)
		c.Set(respond.LoggerKey, respond.Logger(c).WithField("user_id", u.ID))
		c.Next()
	}
}

// RequireCapability rejects callers whose role does not hold capability.
func RequireCapability(capability access.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := respond.Principal(c)
		if !ok {
			respond.Error(c, apperr.Unauthenticated("authentication required"))
			return
		}
		if !access.Allowed(p.Role, capability) {
			respond.Error(c, apperr.Forbidden("role %s is not allowed to perform %s", p.Role, capability))
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
