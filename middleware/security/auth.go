package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"baatcheet/service/storage"
	"baatcheet/tools/errs"
	security "baatcheet/tools/security"
)

// CtxUserIDKey is where the middleware puts the authenticated user ID.
const CtxUserIDKey = "ctxUserId"

// CookieName matches what the login handler sets.
const CookieName = "jwt"

// Middleware authenticates via the jwt cookie or Authorization: Bearer.
// When redis is up it also requires a live session record, so logout
// revokes tokens before their JWT expiry.
func Middleware(opts security.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFrom(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			return
		}

		userID, err := security.Verify(opts, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.AsCodeError(err))
			return
		}

		if storage.Ready() {
			uid, ok, err := storage.SessionUser(c.Request.Context(), security.HashToken(token))
			if err != nil || !ok || uid != userID {
				c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrSessionRevoked)
				return
			}
		}

		c.Set(CtxUserIDKey, userID)
		c.Next()
	}
}

// UserID reads the authenticated user ID set by Middleware.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

// Token returns the raw token from cookie or header (used by logout).
func Token(c *gin.Context) string {
	return tokenFrom(c)
}

func tokenFrom(c *gin.Context) string {
	if v, err := c.Cookie(CookieName); err == nil && v != "" {
		return v
	}
	authz := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	return ""
}
