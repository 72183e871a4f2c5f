package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vmc-todo/backend/internal/config"
	"github.com/vmc-todo/backend/internal/model"
	"github.com/vmc-todo/backend/internal/service"
)

const (
	authUserKey     = "auth_user_id"
	refreshTokenKey = "auth_refresh_token"
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

// AccessGuard verifies the bearer access token by signature only and
// puts the caller's user id into the context. Access tokens are
// stateless, so there is no store lookup and no per-token revocation
// before expiry.
func AccessGuard(codec *service.TokenCodec, cfg config.ServerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c, cfg)
		if !ok {
			return
		}

		claims, err := codec.VerifyAccess(token)
		if err != nil {
			abortUnauthorized(c, cfg, "Access token invalid or expired.")
			return
		}

		c.Set(authUserKey, claims.UID)
		c.Next()
	}
}

// RefreshGuard verifies the bearer refresh token's signature and puts
// the user id plus the raw token into the context. Presence in the
// store is re-checked by the session service, which is also where
// stale rows get purged.
func RefreshGuard(codec *service.TokenCodec, cfg config.ServerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c, cfg)
		if !ok {
			return
		}

		claims, err := codec.VerifyRefresh(token)
		if err != nil {
			abortUnauthorized(c, cfg, "Refresh token invalid or expired.")
			return
		}

		c.Set(authUserKey, claims.UID)
		c.Set(refreshTokenKey, token)
		c.Next()
	}
}

func bearerToken(c *gin.Context, cfg config.ServerConfig) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		abortUnauthorized(c, cfg, "No authorization header provided.")
		return "", false
	}
	if !strings.HasPrefix(header, "Bearer ") {
		abortUnauthorized(c, cfg, "Authorization header must start with 'Bearer '.")
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		abortUnauthorized(c, cfg, "Token not provided in authorization header.")
		return "", false
	}
	return token, true
}

func abortUnauthorized(c *gin.Context, cfg config.ServerConfig, detail string) {
	message := []string{"Unauthorized"}
	if cfg.IsDevelopment() {
		message = []string{detail}
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		Error:      "Unauthorized",
	})
}

// GetAuthUserID returns the user id a guard stored in the context, or
// false when no guard ran.
func GetAuthUserID(c *gin.Context) (int64, bool) {
	if value, ok := c.Get(authUserKey); ok {
		if uid, ok := value.(int64); ok {
			return uid, true
		}
	}
	return 0, false
}

func GetRefreshToken(c *gin.Context) string {
	if value, ok := c.Get(refreshTokenKey); ok {
		if token, ok := value.(string); ok {
			return token
		}
	}
	return ""
}

// RequestIDMiddleware tags each request with an id for log correlation,
// honoring one supplied by the caller.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	if value, ok := c.Get(requestIDKey); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}

func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	originMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		originMap[trimmed] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := originMap[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
				c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
