package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ypb/phonebook/internal/access"
	"github.com/ypb/phonebook/internal/tokens"
)

const (
	callerKey    = "caller"
	tokenKey     = "token"
	authErrorKey = "authError"
	// AuthCookie holds the login token for browsers.
	AuthCookie = "auth"
)

// Checker is the minimal interface the middleware depends on
type Checker interface {
	Check(ctx context.Context, token string, requireAdmin bool) (access.Caller, error)
}

// TokenFromRequest reads the login token from "Authorization: PHONE <token>"
// or, failing that, from the auth cookie. The cookie may carry the prefix too.
func TokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, tokens.Prefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, tokens.Prefix))
	}
	if v, err := c.Cookie(AuthCookie); err == nil && v != "" {
		return strings.TrimSpace(strings.TrimPrefix(v, tokens.Prefix))
	}
	return ""
}

// Authenticate resolves the caller behind every request. A missing or bad
// token is not an error here: the request simply continues as a guest, and
// routes that need more use RequireResident or RequireAdmin.
func Authenticate(chk Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := access.GuestCaller
		token := TokenFromRequest(c)
		if token != "" {
			if resolved, err := chk.Check(c.Request.Context(), token, false); err == nil {
				caller = resolved
			} else {
				c.Set(authErrorKey, err.Error())
			}
		}
		c.Set(callerKey, caller)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// CallerFrom returns the caller stored by Authenticate, or a guest.
func CallerFrom(c *gin.Context) access.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(access.Caller); ok {
			return caller
		}
	}
	return access.GuestCaller
}

// TokenFrom returns the raw token seen by Authenticate.
func TokenFrom(c *gin.Context) string {
	return c.GetString(tokenKey)
}

// AuthErrorFrom returns why a presented token was rejected, or "".
func AuthErrorFrom(c *gin.Context) string {
	return c.GetString(authErrorKey)
}

// RequireResident rejects guests with 401.
func RequireResident() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CallerFrom(c).Authenticated() {
			msg := "Invalid authentication header"
			if reason := AuthErrorFrom(c); reason != "" {
				msg = reason
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": msg})
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects everyone but the admin number with 401.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := CallerFrom(c)
		if !caller.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Admin request done by non-admin: " + caller.Phone})
			return
		}
		c.Next()
	}
}
