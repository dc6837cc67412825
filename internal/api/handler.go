package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amishk599/pitchdesk/internal/ingest"
	"github.com/amishk599/pitchdesk/internal/model"
	"github.com/amishk599/pitchdesk/internal/pipeline"
)

// SourceController applies source activation changes to the running loops.
type SourceController interface {
	SetActive(src model.Source) error
}

// Handler serves the JSON API.
type Handler struct {
	store    model.Store
	ingestor *ingest.Ingestor
	pipeline *pipeline.Pipeline
	sources  SourceController
	logger   *slog.Logger
}

// NewHandler creates a handler. sources may be nil when no scheduler runs.
func NewHandler(store model.Store, ingestor *ingest.Ingestor, p *pipeline.Pipeline, sources SourceController, logger *slog.Logger) *Handler {
	return &Handler{
		store:    store,
		ingestor: ingestor,
		pipeline: p,
		sources:  sources,
		logger:   logger,
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

// Stats returns monthly activity per reviewer.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	enrichments := make([]gin.H, 0, len(stats.Enrichments))
	for _, e := range stats.Enrichments {
		enrichments = append(enrichments, gin.H{"month": e.Month, "actor": e.Actor, "count": e.Count})
	}
	proposals := make([]gin.H, 0, len(stats.Proposals))
	for _, p := range stats.Proposals {
		proposals = append(proposals, gin.H{"actor": p.Actor, "status": p.Status, "count": p.Count})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "enrichments": enrichments, "proposals": proposals})
}

// respondError maps domain errors onto HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrMissingTarget), errors.Is(err, model.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.Error(err)
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
