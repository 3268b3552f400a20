package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ypb/phonebook/internal/auth"
	"github.com/ypb/phonebook/internal/tokens"
	"github.com/ypb/phonebook/pkg/logger"
	"github.com/ypb/phonebook/pkg/middleware"
)

// AuthService is what the login endpoints need from internal/auth.
type AuthService interface {
	Login(ctx context.Context, phone string) (auth.Login, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandler holds dependencies
type AuthHandler struct {
	svc          AuthService
	cookieMaxAge time.Duration
	secureCookie bool
}

func NewAuthHandler(svc AuthService, cookieMaxAge time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{svc: svc, cookieMaxAge: cookieMaxAge, secureCookie: secureCookie}
}

// Register routes under /api
func (h *AuthHandler) Register(r gin.IRouter) {
	r.GET("/api/login/:phoneNumber", h.Login)
	r.POST("/api/logout", h.Logout)
	r.GET("/api/checkLogin", h.CheckLogin)
}

// Login resolves the phone number to a page and returns "PHONE <token>".
// The same value is set as the auth cookie for browser clients.
func (h *AuthHandler) Login(c *gin.Context) {
	l, err := h.svc.Login(c.Request.Context(), c.Param("phoneNumber"))
	switch {
	case errors.Is(err, auth.ErrPhoneTooShort):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Login phone number is too short"})
		return
	case errors.Is(err, auth.ErrLoginNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Failed to log in"})
		return
	case err != nil:
		logger.Errorf("login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "login failed"})
		return
	}
	value := tokens.Prefix + l.Token
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AuthCookie, value, int(h.cookieMaxAge.Seconds()), "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"auth": value, "authTitle": l.Title})
}

// Logout revokes the presented token and clears the cookie. Logging out
// without a token is not an error.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := middleware.TokenFrom(c); token != "" {
		err := h.svc.Logout(c.Request.Context(), token)
		if err != nil && !errors.Is(err, auth.ErrUnauthorized) {
			logger.Errorf("logout: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to log out"})
			return
		}
	}
	c.SetCookie(middleware.AuthCookie, "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) CheckLogin(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	if !caller.Authenticated() {
		msg := "Invalid authentication header"
		if reason := middleware.AuthErrorFrom(c); reason != "" {
			msg = reason
		}
		c.JSON(http.StatusUnauthorized, gin.H{"message": msg})
		return
	}
	title := caller.Title
	if title == "" {
		title = auth.FirstLoginTitle
	}
	c.JSON(http.StatusOK, gin.H{"phoneNumber": caller.Phone, "authTitle": title})
}
