package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the publish API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRoutes) {
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
    <title>deckdeckgo publish API</title>
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

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "deckdeckgo-publish", "version": "v1.0.0" },
  "components": {
    "securitySchemes": {
      "bearer": { "type": "http", "scheme": "bearer" },
      "session": { "type": "apiKey", "in": "cookie", "name": "__session" }
    },
    "schemas": {
      "PublishRequest": { "type": "object", "properties": { "deckId": {"type":"string"}, "ownerId": {"type":"string"}, "publish": {"type":"boolean"}, "github": {"type":"boolean"} } },
      "ScheduledPublishTask": { "type": "object", "properties": { "deckId": {"type":"string"}, "status": {"type":"string","enum":["scheduled"]}, "publish": {"type":"boolean"}, "github": {"type":"boolean"} } },
      "DeployData": { "type": "object", "properties": { "status": {"type":"string","enum":["scheduled","successful","failure"]}, "updated_at": {"type":"string","format":"date-time"} } },
      "Error": { "type": "object", "properties": { "error": {"type":"string"} } }
    }
  },
  "security": [ { "bearer": [] }, { "session": [] } ],
  "paths": {
    "/api/publish": {
      "post": {
        "summary": "Schedule publication of a deck",
        "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/PublishRequest" } } } },
        "responses": {
          "200": { "description": "scheduled", "content": { "application/json": { "schema": { "$ref": "#/components/schemas/ScheduledPublishTask" } } } },
          "400": { "description": "invalid request", "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Error" } } } },
          "401": { "description": "missing or invalid token" },
          "500": { "description": "status write or job submission failed" }
        }
      }
    },
    "/api/decks": {
      "get": { "summary": "List the caller's decks", "responses": { "200": { "description": "decks" }, "401": { "description": "unauthorized" } } },
      "post": { "summary": "Create a deck", "responses": { "201": { "description": "created" }, "400": { "description": "name missing" } } }
    },
    "/api/decks/{id}": {
      "get": { "summary": "Get a deck", "responses": { "200": { "description": "deck" }, "403": { "description": "not owner" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Rename a deck", "responses": { "200": { "description": "renamed" } } },
      "delete": { "summary": "Delete a deck", "responses": { "204": { "description": "deleted" } } }
    },
    "/api/decks/{id}/deploy": {
      "get": {
        "summary": "Deploy status per channel",
        "parameters": [ { "name": "slot", "in": "query", "required": false, "schema": { "type": "string", "enum": ["api","github"] } } ],
        "responses": { "200": { "description": "api and github slots, or the one named by slot" }, "400": { "description": "unknown slot" } }
      }
    },
    "/api/auth/logout": {
      "post": { "summary": "Revoke the caller's token until it expires", "responses": { "200": { "description": "logged out" }, "401": { "description": "missing or invalid token" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
