package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/ypb/phonebook/internal/access"
	"github.com/ypb/phonebook/internal/corpus"
	"github.com/ypb/phonebook/internal/page"
	"github.com/ypb/phonebook/internal/page/repository"
	"github.com/ypb/phonebook/internal/page/service"
	"github.com/ypb/phonebook/pkg/middleware"
)

type residentChecker struct{}

func (residentChecker) Check(ctx context.Context, token string, requireAdmin bool) (access.Caller, error) {
	if token == "good" {
		return access.Caller{Role: access.Resident, Phone: "0501234567"}, nil
	}
	return access.GuestCaller, errors.New("invalid token")
}

func setup(t *testing.T) (*gin.Engine, *repository.MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := repository.NewMemoryRepo()
	cache := corpus.NewCache(repo)
	svc := service.New(repo, cache, service.Options{Filter: access.Filter{PublicTag: "ציבורי"}})
	g := gin.New()
	g.Use(middleware.Authenticate(residentChecker{}))
	RegisterPageRoutes(g, svc)
	return g, repo
}

func do(g *gin.Engine, method, target, body string, authed bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if authed {
		req.Header.Set("Authorization", "PHONE good")
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func TestPageHandler_SaveAndGet(t *testing.T) {
	g, _ := setup(t)

	// guests cannot save
	w := do(g, http.MethodPost, "/api/save", `{"page":{"title":"מכולת","html":"<p>0541112222</p>"}}`, false)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(g, http.MethodPost, "/api/save", `{"page":{"title":"מכולת","html":"<p>0541112222</p>"}}`, true)
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, "Page מכולת was created", created["message"])
	id := created["_id"]
	require.NotEmpty(t, id)

	// same content again
	w = do(g, http.MethodPost, "/api/save", `{"page":{"_id":"`+id+`","title":"מכולת","html":"<p>0541112222</p>"}}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "No change was needed in page מכולת.")

	w = do(g, http.MethodPost, "/api/save", `{"page":{"_id":"`+id+`","title":"מכולת","html":"<p>0541113333</p>"}}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Page מכולת was updated")

	// private page: residents see it, guests get 404
	target := "/api/page/" + url.PathEscape("מכולת")
	w = do(g, http.MethodGet, target, "", true)
	require.Equal(t, http.StatusOK, w.Code)
	var got page.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, id, got.ID)
	require.Equal(t, "<p>0541113333</p>", got.HTML)

	w = do(g, http.MethodGet, target, "", false)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "was not found")

	w = do(g, http.MethodGet, "/api/history/"+id, "", true)
	require.Equal(t, http.StatusOK, w.Code)
	var hist struct {
		History []page.History `json:"history"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hist))
	require.Len(t, hist.History, 1)
	require.Equal(t, "<p>0541112222</p>", hist.History[0].OldHTML)
	require.Equal(t, "<p>0541113333</p>", hist.History[0].NewHTML)
}

func TestPageHandler_ConflictAndBadBody(t *testing.T) {
	g, _ := setup(t)

	w := do(g, http.MethodPost, "/api/save", `{"page":{"title":"גן","html":"a"}}`, true)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(g, http.MethodPost, "/api/save", `{"page":{"title":"גן","html":"b"}}`, true)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "Page with title גן already exists.")

	w = do(g, http.MethodPost, "/api/save", `{"title":"no wrapper"}`, true)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(g, http.MethodPost, "/api/save", `{"page":{"title":"  "}}`, true)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPageHandler_AllPages(t *testing.T) {
	g, repo := setup(t)
	ctx := context.Background()
	_, err := repo.Save(ctx, &page.Page{Title: "א", HTML: "x"})
	require.NoError(t, err)

	w := do(g, http.MethodGet, "/api/allPages", "", false)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(g, http.MethodGet, "/api/allPages", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Pages   []page.Page `json:"pages"`
		MaxDate time.Time   `json:"maxDate"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Pages, 1)
	require.False(t, body.MaxDate.IsZero())

	future := url.QueryEscape(time.Now().Add(time.Hour).UTC().Format(time.RFC3339))
	w = do(g, http.MethodGet, "/api/allPages?UpdatedAfter="+future, "", true)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Empty(t, body.Pages)

	w = do(g, http.MethodGet, "/api/allPages?UpdatedAfter=yesterday", "", true)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
