package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ferminotify/core/internal/pkg/jwt"
	"github.com/ferminotify/core/internal/pkg/response"
)

const (
	ContextKeyUserID = "user_id"
	ContextKeyEmail  = "user_email"
)

// Auth enforces a bearer access token. A missing token is 401, a token that
// fails verification (bad signature, expired) is 403.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c)
			return
		}
		claims, err := jwt.Parse(token)
		if err != nil || claims.ID == "" {
			response.Forbidden(c)
			return
		}
		c.Set(ContextKeyUserID, claims.ID)
		c.Set(ContextKeyEmail, claims.Email)
		c.Next()
	}
}

// Operator guards broadcast endpoints with a static bearer secret. An empty
// configured secret rejects every request.
func Operator(secret string) gin.HandlerFunc {
	expected := []byte(secret)
	return func(c *gin.Context) {
		got := []byte(NormalizeToken(c.GetHeader("Authorization")))
		if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
			response.UnauthorizedMsg(c, "Unauthorized")
			return
		}
		c.Next()
	}
}

// CurrentUserID extracts the authenticated subscriber ID from context.
func CurrentUserID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyUserID)
	id, _ := v.(string)
	return id
}

// CurrentEmail extracts the authenticated subscriber email from context.
func CurrentEmail(c *gin.Context) string {
	v, _ := c.Get(ContextKeyEmail)
	email, _ := v.(string)
	return email
}

func extractToken(c *gin.Context) string {
	return NormalizeToken(c.GetHeader("Authorization"))
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" || strings.EqualFold(token, "bearer") {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
