// Package respond holds the request-scoped helpers every handler shares:
// context keys, error rendering, binding and pagination parsing.
package respond

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pg-manager/internal/access"
	"pg-manager/internal/apperr"
	"pg-manager/internal/services"
)

const (
	RequestIDKey = "request_id"
	LoggerKey    = "logger"
	PrincipalKey = "principal"
	UserKey      = "user"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// Logger returns the request's log entry, falling back to the standard
// logger outside the middleware chain.
func Logger(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(LoggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// Principal returns the caller set by the auth middleware.
func Principal(c *gin.Context) (access.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return access.Principal{}, false
	}
	p, ok := v.(access.Principal)
	return p, ok
}

// Caller is Principal for handlers behind the auth middleware; a missing
// principal is Unauthenticated.
func Caller(c *gin.Context) (access.Principal, error) {
	p, ok := Principal(c)
	if !ok {
		return p, apperr.Unauthenticated("authentication required")
	}
	return p, nil
}

// Error renders err in the shared error envelope and aborts the chain.
// Internal details are logged, never returned.
func Error(c *gin.Context, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.Internal(err, "internal server error")
	}

	entry := Logger(c).WithField("code", appErr.Kind)
	if appErr.Kind == apperr.KindInternal {
		entry.WithError(err).Error("Request failed")
		appErr = &apperr.Error{Kind: apperr.KindInternal, Message: "internal server error"}
	} else {
		entry.Debug(appErr.Message)
	}

	c.AbortWithStatusJSON(appErr.Kind.Status(), gin.H{
		"error": gin.H{
			"code":    appErr.Kind,
			"message": appErr.Message,
		},
		"request_id": c.GetString(RequestIDKey),
	})
}

// BindJSON decodes the body into dst; malformed bodies are validation errors.
func BindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}

func ParseID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid %s %q", name, raw)
	}
	return uint(id), nil
}

// ParsePage reads skip and limit. limit defaults to DefaultLimit and is
// capped at MaxLimit.
func ParsePage(c *gin.Context) (services.Page, error) {
	page := services.Page{Limit: DefaultLimit}

	if raw := c.Query("skip"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return page, apperr.Validation("skip must be a non-negative integer")
		}
		page.Offset = n
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return page, apperr.Validation("limit must be a positive integer")
		}
		if n > MaxLimit {
			n = MaxLimit
		}
		page.Limit = n
	}
	return page, nil
}

// ParseBool reads an optional boolean query parameter.
func ParseBool(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Validation("%s must be true or false", name)
	}
	return &v, nil
}

// ParseUintQuery reads an optional positive integer query parameter.
func ParseUintQuery(c *gin.Context, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return nil, apperr.Validation("%s must be a positive integer", name)
	}
	id := uint(n)
	return &id, nil
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
