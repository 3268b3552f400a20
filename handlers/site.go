package handlers

import (
	"encoding/xml"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ypb/phonebook/internal/access"
	"github.com/ypb/phonebook/internal/search"
)

// SiteHandler serves the crawler and browser integration documents.
type SiteHandler struct {
	corpus  Corpus
	engine  *search.Engine
	baseURL string
	title   string
}

func NewSiteHandler(c Corpus, engine *search.Engine, baseURL, title string) *SiteHandler {
	return &SiteHandler{corpus: c, engine: engine, baseURL: strings.TrimRight(baseURL, "/"), title: title}
}

func (h *SiteHandler) Register(r gin.IRouter) {
	r.GET("/sitemap.xml", h.Sitemap)
	r.GET("/opensearch.xml", h.OpenSearch)
}

// PageURL is the public address of a page: spaces become underscores.
func PageURL(baseURL, title string) string {
	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap lists the home page and every public page.
func (h *SiteHandler) Sitemap(c *gin.Context) {
	snap, err := h.corpus.Snapshot(c.Request.Context())
	if err != nil {
		c.String(http.StatusServiceUnavailable, "directory is not available")
		return
	}
	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	set.URLs = append(set.URLs, sitemapURL{Loc: h.baseURL + "/"})
	public := h.engine.ListByTag(snap, h.engine.Filter.PublicTag, access.GuestCaller)
	for _, p := range public.Pages {
		u := sitemapURL{Loc: PageURL(h.baseURL, p.Title)}
		if !p.UpdatedAt.IsZero() {
			u.LastMod = p.UpdatedAt.UTC().Format(time.RFC3339)
		}
		set.URLs = append(set.URLs, u)
	}
	writeXML(c, "application/xml", set)
}

type openSearchURL struct {
	Type     string `xml:"type,attr"`
	Rel      string `xml:"rel,attr,omitempty"`
	Method   string `xml:"method,attr,omitempty"`
	Template string `xml:"template,attr"`
}

type openSearchDescription struct {
	XMLName     xml.Name        `xml:"OpenSearchDescription"`
	XMLNS       string          `xml:"xmlns,attr"`
	MozNS       string          `xml:"xmlns:moz,attr"`
	ShortName   string          `xml:"ShortName"`
	Description string          `xml:"Description"`
	URLs        []openSearchURL `xml:"Url"`
}

// OpenSearch lets browsers add the directory as a search engine, with
// suggestions served by /api/search-suggestions.
func (h *SiteHandler) OpenSearch(c *gin.Context) {
	doc := openSearchDescription{
		XMLNS:       "http://a9.com/-/spec/opensearch/1.1/",
		MozNS:       "http://www.mozilla.org/2006/browser/search/",
		ShortName:   h.title,
		Description: "חיפוש מהיר ב" + h.title,
		URLs: []openSearchURL{
			{Type: "text/html", Template: h.baseURL + "/search/{searchTerms}"},
			{Type: "application/x-suggestions+json", Rel: "suggestions", Method: "GET", Template: h.baseURL + "/api/search-suggestions/{searchTerms}"},
		},
	}
	writeXML(c, "application/opensearchdescription+xml", doc)
}

func writeXML(c *gin.Context, contentType string, v any) {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Data(http.StatusOK, contentType+"; charset=utf-8", append([]byte(xml.Header), out...))
}
