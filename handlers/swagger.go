package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the phone book API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>phonebook - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Requests authenticate with "Authorization: PHONE <token>" or the auth cookie.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "phonebook", "version": "v1.0.0" },
  "paths": {
    "/api/login/{phoneNumber}": {
      "get": { "summary": "Log in with a phone number listed on some page", "responses": { "200": { "description": "{auth, authTitle}" }, "401": { "description": "unknown or too short number" } } }
    },
    "/api/logout": {
      "post": { "summary": "Revoke the current token", "responses": { "200": { "description": "logged out" } } }
    },
    "/api/checkLogin": {
      "get": { "summary": "Validate the current token", "responses": { "200": { "description": "{phoneNumber, authTitle}" }, "401": { "description": "invalid token" } } }
    },
    "/api/pages/search/{search}": {
      "get": { "summary": "Search pages; quoted phrases and ##, __, $$, ~~ patterns are supported", "responses": { "200": { "description": "{pages, totalCount, tags, search}" }, "400": { "description": "empty search" } } }
    },
    "/api/search-suggestions/{searchTerm}": {
      "get": { "summary": "OpenSearch suggestions", "responses": { "200": { "description": "[query, titles]" } } }
    },
    "/api/pages/tag/{tag}": {
      "get": { "summary": "Pages in a category plus related categories", "responses": { "200": { "description": "{pages, tags}" } } }
    },
    "/api/tags": {
      "get": { "summary": "All categories visible to the caller", "responses": { "200": { "description": "{tags}" } } }
    },
    "/api/page/{title}": {
      "get": { "summary": "One page by title or legacy name", "responses": { "200": { "description": "page" }, "404": { "description": "{title, error}" } } }
    },
    "/api/allPages": {
      "get": { "summary": "All pages, optionally only those changed after ?UpdatedAfter", "responses": { "200": { "description": "{pages, maxDate}" }, "401": { "description": "residents only" } } }
    },
    "/api/save": {
      "post": { "summary": "Create, update, delete or restore a page", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"page":{"type":"object"}}}}}}, "responses": { "200": { "description": "updated or unchanged" }, "201": { "description": "{message, _id}" }, "409": { "description": "title taken" } } }
    },
    "/api/history/{id}": {
      "get": { "summary": "Previous versions of a page", "responses": { "200": { "description": "{history}" } } }
    },
    "/api/log": {
      "post": { "summary": "Send a message to the activity log", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"text":{"type":"string"}}}}}}, "responses": { "200": { "description": "sent" } } }
    },
    "/api/admin/duplicates": {
      "get": { "summary": "Phone numbers listed on more than one page", "responses": { "200": { "description": "{duplicates, count}" }, "401": { "description": "admin only" } } }
    },
    "/api/admin/reload": {
      "post": { "summary": "Reload the directory from the store", "responses": { "200": { "description": "reloaded" } } }
    },
    "/api/admin/activity/{channel}": {
      "get": { "summary": "Recent activity messages (info or update)", "responses": { "200": { "description": "{entries}" } } }
    },
    "/sitemap.xml": { "get": { "summary": "Sitemap of public pages", "responses": { "200": { "description": "xml" } } } },
    "/opensearch.xml": { "get": { "summary": "OpenSearch description", "responses": { "200": { "description": "xml" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "text exposition" } } } }
  }
}`
