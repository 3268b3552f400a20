package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ypb/phonebook/internal/access"
	"github.com/ypb/phonebook/internal/activity"
	"github.com/ypb/phonebook/internal/corpus"
	"github.com/ypb/phonebook/internal/identity"
	"github.com/ypb/phonebook/internal/reports"
	"github.com/ypb/phonebook/internal/search"
	"github.com/ypb/phonebook/pkg/logger"
	"github.com/ypb/phonebook/pkg/middleware"
)

// Corpus hands out the current snapshot and reloads it on demand.
type Corpus interface {
	Snapshot(ctx context.Context) (*corpus.Snapshot, error)
	Refresh(ctx context.Context) (*corpus.Snapshot, error)
}

// ActivityFeed reads back recent activity messages. Optional.
type ActivityFeed interface {
	Recent(ctx context.Context, channel string, n int) ([]activity.Entry, error)
}

// DirectoryHandler serves the read side of the phone book: search,
// suggestions, categories, plus the admin views.
type DirectoryHandler struct {
	corpus   Corpus
	engine   *search.Engine
	activity activity.Logger
	feed     ActivityFeed
}

func NewDirectoryHandler(c Corpus, engine *search.Engine, log activity.Logger, feed ActivityFeed) *DirectoryHandler {
	if log == nil {
		log = activity.LogSink{}
	}
	return &DirectoryHandler{corpus: c, engine: engine, activity: log, feed: feed}
}

func (h *DirectoryHandler) Register(r gin.IRouter) {
	r.GET("/api/pages/search/:search", h.Search)
	r.GET("/api/search-suggestions/:searchTerm", h.Suggestions)
	r.GET("/api/pages/tag/:tag", h.Tag)
	r.GET("/api/tags", h.Tags)
	r.POST("/api/log", middleware.RequireResident(), h.Log)

	admin := r.Group("/api/admin", middleware.RequireAdmin())
	admin.GET("/duplicates", h.Duplicates)
	admin.POST("/reload", h.Reload)
	admin.GET("/activity/:channel", h.Activity)
}

func (h *DirectoryHandler) snapshot(c *gin.Context) (*corpus.Snapshot, bool) {
	snap, err := h.corpus.Snapshot(c.Request.Context())
	if err != nil {
		logger.Errorf("load corpus: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "directory is not available"})
		return nil, false
	}
	return snap, true
}

func by(caller access.Caller) string {
	if caller.Title != "" {
		return caller.Title
	}
	return caller.Phone
}

func (h *DirectoryHandler) Search(c *gin.Context) {
	raw := c.Param("search")
	caller := middleware.CallerFrom(c)
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	res, err := h.engine.Search(snap, raw, caller)
	if errors.Is(err, search.ErrEmptyQuery) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Search cannot be empty"})
		return
	}
	if err != nil {
		logger.Errorf("search %q: %v", raw, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "search failed"})
		return
	}
	if caller.Authenticated() {
		h.activity.Info(c.Request.Context(), fmt.Sprintf(`בוצע חיפוש של *%s* ע"י *%s*, וחזרו *%d* דפים`, raw, by(caller), len(res.Pages)))
	} else {
		h.activity.Info(c.Request.Context(), fmt.Sprintf("בוצע חיפוש של *%s*, וחזרו *%d* דפים", raw, len(res.Pages)))
	}
	c.JSON(http.StatusOK, res)
}

func (h *DirectoryHandler) Suggestions(c *gin.Context) {
	raw := c.Param("searchTerm")
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	res, err := h.engine.Suggestions(snap, raw, middleware.CallerFrom(c))
	if errors.Is(err, search.ErrEmptyQuery) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Search cannot be empty"})
		return
	}
	if err != nil {
		logger.Errorf("suggestions %q: %v", raw, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "search failed"})
		return
	}
	h.activity.Info(c.Request.Context(), fmt.Sprintf("בוצע חיפוש משורת הכתובת של *%s*", raw))
	c.Header("Content-Type", "application/x-suggestions+json; charset=utf-8")
	c.JSON(http.StatusOK, res)
}

func (h *DirectoryHandler) Tag(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	caller := middleware.CallerFrom(c)
	res := h.engine.ListByTag(snap, c.Param("tag"), caller)
	tag := search.NormalizeTag(c.Param("tag"))
	if caller.Authenticated() {
		h.activity.Info(c.Request.Context(), fmt.Sprintf(`בוצעה בקשה של רשימת הדפים בקטגוריה *%s* ע"י *%s*, וחזרו *%d* דפים`, tag, by(caller), len(res.Pages)))
	} else {
		h.activity.Info(c.Request.Context(), fmt.Sprintf("בוצעה בקשה של רשימת הדפים בקטגוריה *%s*, וחזרו *%d* דפים", tag, len(res.Pages)))
	}
	c.JSON(http.StatusOK, res)
}

func (h *DirectoryHandler) Tags(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	tags := h.engine.Tags(snap, middleware.CallerFrom(c))
	if tags == nil {
		tags = []string{}
	}
	h.activity.Info(c.Request.Context(), "בוצעה בקשה של רשימת כל הקטגוריות")
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// Log forwards a free-text message from a client to the info channel.
func (h *DirectoryHandler) Log(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	h.activity.Info(c.Request.Context(), req.Text)
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf(`Text "%s" was sent to log`, req.Text)})
}

// Duplicates lists phone numbers found on more than one page. With
// ?format=text it returns the plain report instead.
func (h *DirectoryHandler) Duplicates(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	dups := snap.Duplicates()
	if c.Query("format") == "text" {
		c.String(http.StatusOK, reports.DuplicatesText(dups))
		return
	}
	if dups == nil {
		dups = []identity.Duplicate{}
	}
	c.JSON(http.StatusOK, gin.H{"duplicates": dups, "count": len(dups)})
}

func (h *DirectoryHandler) Reload(c *gin.Context) {
	snap, err := h.corpus.Refresh(c.Request.Context())
	if err != nil {
		logger.Errorf("reload corpus: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "reload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pages": len(snap.All()), "phones": snap.Phones().Len(), "loadedAt": snap.LoadedAt()})
}

func (h *DirectoryHandler) Activity(c *gin.Context) {
	if h.feed == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "activity feed is not configured"})
		return
	}
	channel := c.Param("channel")
	if channel != activity.ChannelInfo && channel != activity.ChannelUpdate {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unknown channel " + channel})
		return
	}
	n, err := strconv.Atoi(c.DefaultQuery("n", "50"))
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "n must be a positive number"})
		return
	}
	entries, err := h.feed.Recent(c.Request.Context(), channel, n)
	if err != nil {
		logger.Errorf("activity feed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "activity feed is not available"})
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
