package api

import (
	"context"
	"strings"
	"time"

	"github.com/Domenick1991/flightstore/internal/domain"
	"github.com/Domenick1991/flightstore/internal/service/admin"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	userEmailHeader = "X-User-Email"
	claimsKey       = "admin_claims"
)

func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logrus.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		})
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("request")
		case c.Writer.Status() >= 400:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}

// Timeout bounds the request context. Handlers observe it through
// c.Request.Context().
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

type TokenParser interface {
	ParseToken(token string) (*admin.Claims, error)
}

func AdminAuth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(c, domain.ErrNotAuthenticated)
			return
		}
		claims, err := parser.ParseToken(token)
		if err != nil {
			respondError(c, domain.ErrNotAuthenticated)
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// userEmail is the customer identity for user-scoped booking calls.
func userEmail(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(userEmailHeader))
}
