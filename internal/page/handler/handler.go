package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ypb/phonebook/internal/page"
	"github.com/ypb/phonebook/internal/page/service"
	"github.com/ypb/phonebook/pkg/logger"
	"github.com/ypb/phonebook/pkg/middleware"
)

// RegisterPageRoutes mounts the page endpoints. Authenticate must already be
// installed on r so the caller is known.
func RegisterPageRoutes(r gin.IRouter, svc service.Service) {
	r.GET("/api/page/:title", func(c *gin.Context) {
		name := c.Param("title")
		p, err := svc.Get(c.Request.Context(), name, middleware.CallerFrom(c))
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"title": name, "error": "'" + name + "' was not found"})
			return
		}
		if err != nil {
			logger.Errorf("get page %q: %v", name, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
			return
		}
		c.JSON(http.StatusOK, p)
	})

	r.GET("/api/allPages", middleware.RequireResident(), func(c *gin.Context) {
		var after time.Time
		if raw := c.Query("UpdatedAfter"); raw != "" {
			t, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"message": "UpdatedAfter must be an RFC 3339 timestamp"})
				return
			}
			after = t
		}
		pages, maxDate, err := svc.List(c.Request.Context(), after)
		if err != nil {
			logger.Errorf("list pages: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
			return
		}
		if pages == nil {
			pages = []*page.Page{}
		}
		c.JSON(http.StatusOK, gin.H{"pages": pages, "maxDate": maxDate})
	})

	r.POST("/api/save", middleware.RequireResident(), func(c *gin.Context) {
		var req struct {
			Page *page.Page `json:"page"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Page == nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "body must be {\"page\": {...}}"})
			return
		}
		res, err := svc.Save(c.Request.Context(), middleware.CallerFrom(c), req.Page)
		switch {
		case errors.Is(err, service.ErrTitleConflict):
			c.JSON(http.StatusConflict, gin.H{"message": "Page with title " + req.Page.Title + " already exists."})
			return
		case errors.Is(err, service.ErrInvalidPage):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
			return
		case err != nil:
			logger.Errorf("save page %q: %v", req.Page.Title, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
			return
		}
		if res.Status == service.Created {
			c.JSON(http.StatusCreated, gin.H{"message": res.Message, "_id": res.ID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": res.Message})
	})

	r.GET("/api/history/:id", middleware.RequireResident(), func(c *gin.Context) {
		hist, err := svc.History(c.Request.Context(), c.Param("id"))
		if err != nil {
			logger.Errorf("history %s: %v", c.Param("id"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
			return
		}
		if hist == nil {
			hist = []*page.History{}
		}
		c.JSON(http.StatusOK, gin.H{"history": hist})
	})
}
