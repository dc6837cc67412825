package api

import (
	"cmp"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amishk599/pitchdesk/internal/ai"
	"github.com/amishk599/pitchdesk/internal/model"
	"github.com/amishk599/pitchdesk/internal/scheduler"
)

type sourceJSON struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	URL              string    `json:"url"`
	Active           bool      `json:"active"`
	Manual           bool      `json:"manual"`
	ExtractionPrompt string    `json:"extraction_prompt"`
	NarrativePrompt  string    `json:"narrative_prompt"`
	EnrichmentPrompt string    `json:"enrichment_prompt"`
	CreatedAt        time.Time `json:"created_at"`
}

func toSourceJSON(s model.Source) sourceJSON {
	return sourceJSON{
		ID:               s.ID,
		Name:             s.Name,
		URL:              s.URL,
		Active:           s.Active,
		Manual:           s.Manual(),
		ExtractionPrompt: s.ExtractionPrompt,
		NarrativePrompt:  s.NarrativePrompt,
		EnrichmentPrompt: s.EnrichmentPrompt,
		CreatedAt:        s.CreatedAt,
	}
}

// ListSources returns every registered source.
func (h *Handler) ListSources(c *gin.Context) {
	sources, err := h.store.ListSources(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]sourceJSON, 0, len(sources))
	for _, s := range sources {
		out = append(out, toSourceJSON(s))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sources": out})
}

type addSourceRequest struct {
	Name             string `json:"name"`
	URL              string `json:"url"`
	Active           *bool  `json:"active"`
	ExtractionPrompt string `json:"extraction_prompt"`
	NarrativePrompt  string `json:"narrative_prompt"`
	EnrichmentPrompt string `json:"enrichment_prompt"`
}

// AddSource registers a source and starts its loop right away.
func (h *Handler) AddSource(c *gin.Context) {
	var req addSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	src, err := h.store.AddSource(c.Request.Context(), model.Source{
		Name:             req.Name,
		URL:              req.URL,
		Active:           active,
		ExtractionPrompt: cmp.Or(req.ExtractionPrompt, ai.DefaultExtractionPrompt),
		NarrativePrompt:  cmp.Or(req.NarrativePrompt, ai.DefaultNarrativePrompt),
		EnrichmentPrompt: cmp.Or(req.EnrichmentPrompt, ai.DefaultEnrichmentPrompt),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if src.Active {
		h.applyActive(src)
	}
	h.logger.Info("source added", "id", src.ID, "name", src.Name, "url", src.URL)
	c.JSON(http.StatusCreated, gin.H{"success": true, "source": toSourceJSON(src)})
}

// ToggleSource flips a source's active flag and applies it to its loop.
func (h *Handler) ToggleSource(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		h.badRequest(c, "invalid source id")
		return
	}
	ctx := c.Request.Context()

	src, err := h.store.GetSource(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	src.Active = !src.Active
	if err := h.store.SetSourceActive(ctx, id, src.Active); err != nil {
		h.respondError(c, err)
		return
	}
	h.applyActive(src)

	c.JSON(http.StatusOK, gin.H{"success": true, "active": src.Active})
}

type promptsRequest struct {
	ExtractionPrompt *string `json:"extraction_prompt"`
	NarrativePrompt  *string `json:"narrative_prompt"`
	EnrichmentPrompt *string `json:"enrichment_prompt"`
}

// UpdatePrompts replaces the templates present in the body.
func (h *Handler) UpdatePrompts(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		h.badRequest(c, "invalid source id")
		return
	}
	var req promptsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	err := h.store.UpdateSourcePrompts(c.Request.Context(), id, model.SourcePrompts{
		Extraction: req.ExtractionPrompt,
		Narrative:  req.NarrativePrompt,
		Enrichment: req.EnrichmentPrompt,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// applyActive forwards an activation change to the scheduler. The stored flag
// is authoritative, so a scheduler that is not running yet only gets a warning.
func (h *Handler) applyActive(src model.Source) {
	if h.sources == nil {
		return
	}
	if err := h.sources.SetActive(src); err != nil {
		if errors.Is(err, scheduler.ErrNotRunning) {
			h.logger.Warn("scheduler not running, source change applies on next start", "source", src.Name)
			return
		}
		h.logger.Error("applying source change", "source", src.Name, "error", err)
	}
}
