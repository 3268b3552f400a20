package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/ypb/phonebook/internal/access"
)

// fakeChecker implements Checker
type fakeChecker struct {
	callers map[string]access.Caller
}

func (f *fakeChecker) Check(ctx context.Context, token string, requireAdmin bool) (access.Caller, error) {
	if c, ok := f.callers[token]; ok {
		return c, nil
	}
	return access.GuestCaller, errors.New("invalid token")
}

func newChecker() *fakeChecker {
	return &fakeChecker{callers: map[string]access.Caller{
		"resident": {Role: access.Resident, Phone: "0501234567", Title: "כהן"},
		"admin":    {Role: access.Admin, Phone: "0509999999"},
	}}
}

func whoami(c *gin.Context) {
	caller := CallerFrom(c)
	c.JSON(http.StatusOK, gin.H{"role": caller.Role.String(), "phone": caller.Phone, "token": TokenFrom(c)})
}

func TestAuthenticate_NoTokenIsGuest(t *testing.T) {
	g := gin.New()
	g.Use(Authenticate(newChecker()))
	g.GET("/", whoami)

	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rw.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &body))
	require.Equal(t, "guest", body["role"])
}

func TestAuthenticate_HeaderAndCookie(t *testing.T) {
	g := gin.New()
	g.Use(Authenticate(newChecker()))
	g.GET("/", whoami)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "PHONE resident")
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &body))
	require.Equal(t, "resident", body["role"])
	require.Equal(t, "0501234567", body["phone"])
	require.Equal(t, "resident", body["token"])

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookie, Value: "admin"})
	rw = httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &body))
	require.Equal(t, "admin", body["role"])
}

func TestAuthenticate_WrongSchemeIgnored(t *testing.T) {
	g := gin.New()
	g.Use(Authenticate(newChecker()))
	g.GET("/", whoami)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer resident")
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &body))
	require.Equal(t, "guest", body["role"])
}

func TestRequireResident(t *testing.T) {
	g := gin.New()
	g.Use(Authenticate(newChecker()))
	g.GET("/private", RequireResident(), whoami)

	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/private", nil))
	require.Equal(t, http.StatusUnauthorized, rw.Code)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "PHONE bogus")
	rw = httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	require.Equal(t, http.StatusUnauthorized, rw.Code)
	require.Contains(t, rw.Body.String(), "invalid token")

	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "PHONE resident")
	rw = httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	require.Equal(t, http.StatusOK, rw.Code)
}

func TestRequireAdmin(t *testing.T) {
	g := gin.New()
	g.Use(Authenticate(newChecker()))
	g.GET("/admin", RequireAdmin(), whoami)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "PHONE resident")
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	require.Equal(t, http.StatusUnauthorized, rw.Code)
	require.Contains(t, rw.Body.String(), "non-admin")

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "PHONE admin")
	rw = httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	require.Equal(t, http.StatusOK, rw.Code)
}
