package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pg-manager/internal/apperr"
	"pg-manager/internal/handlers/respond"
)

const RequestIDHeader = "X-Request-ID"

// SetupCORS allows the configured origins to call the API with bearer tokens.
// An empty list or "*" allows any origin without credentials.
func SetupCORS(origins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods: []string{
			"GET", "POST", "PUT", "DELETE", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader,
		},
		ExposeHeaders: []string{
			"Content-Length", RequestIDHeader,
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	for _, o := range origins {
		if o == "*" {
			origins = nil
			break
		}
	}
	if len(origins) == 0 {
		config.AllowAllOrigins = true
		config.AllowCredentials = false
	} else {
		config.AllowOrigins = origins
	}
	return cors.New(config)
}

// RequestID propagates the caller's X-Request-ID or mints one, and attaches
// a request-scoped log entry.
func RequestID(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(respond.RequestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Set(respond.LoggerKey, logger.WithFields(logrus.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		}))
		c.Next()
	}
}

// RequestLogger logs one line per request once it completes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		entry := respond.Logger(c).WithFields(logrus.Fields{
			"status":     c.Writer.Status(),
			"ip":         c.ClientIP(),
			"latency":    time.Since(start).String(),
			"user-agent": c.Request.UserAgent(),
		})

		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("Server error")
		case status >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Request completed")
		}
	}
}

// Recovery turns a panic into a 500 in the shared error envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				respond.Logger(c).WithField("panic", rec).Error("Panic recovered")
				respond.Error(c, &apperr.Error{Kind: apperr.KindInternal, Message: "internal server error"})
			}
		}()
		c.Next()
	}
}
