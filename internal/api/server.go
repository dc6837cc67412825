package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates the HTTP engine with all routes configured. An empty
// apiKey leaves the /api routes unauthenticated.
func NewServer(h *Handler, apiKey string, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(requestLogger(logger))
	r.Use(gin.Recovery())

	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.Use(requireAPIKey(apiKey))
	{
		api.GET("/sources", h.ListSources)
		api.POST("/sources", h.AddSource)
		api.POST("/sources/:id/toggle", h.ToggleSource)
		api.PUT("/sources/:id/prompts", h.UpdatePrompts)

		api.GET("/postings", h.ListPostings)
		api.POST("/postings", h.CreatePosting)
		api.POST("/postings/check", h.CheckPosting)
		api.GET("/postings/:id", h.GetPosting)
		api.DELETE("/postings/:id", h.DeletePosting)
		api.POST("/postings/:id/status", h.UpdateStatus)
		api.PATCH("/postings/:id/contact", h.UpdateContact)
		api.GET("/postings/:id/proposal", h.GetProposal)
		api.POST("/postings/:id/proposal", h.GenerateProposal)
		api.POST("/postings/:id/enrich", h.Enrich)
		api.GET("/postings/:id/outreach", h.ListOutreach)
		api.POST("/postings/:id/outreach", h.GenerateOutreach)

		api.POST("/match", h.Match)
		api.GET("/team", h.ListTeam)
		api.POST("/team", h.AddTeamMember)
		api.PUT("/team/:id", h.UpdateTeamMember)

		api.GET("/stats", h.Stats)
	}

	return r
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if errs := c.Errors.String(); errs != "" {
			attrs = append(attrs, "errors", errs)
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("http request", attrs...)
			return
		}
		logger.Debug("http request", attrs...)
	}
}

// requireAPIKey accepts the key as X-API-Key or as a bearer token.
func requireAPIKey(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		token := c.GetHeader("X-API-Key")
		if token == "" {
			auth := c.GetHeader("Authorization")
			if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
				token = auth[7:]
			}
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
			return
		}
		c.Next()
	}
}
