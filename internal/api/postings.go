package api

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amishk599/pitchdesk/internal/ingest"
	"github.com/amishk599/pitchdesk/internal/model"
	"github.com/amishk599/pitchdesk/internal/pipeline"
)

type postingJSON struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	URL            string     `json:"url"`
	Client         string     `json:"client"`
	Budget         string     `json:"budget"`
	HourlyRate     string     `json:"hourly_rate"`
	Skills         string     `json:"skills"`
	Categories     string     `json:"categories"`
	PostedAt       time.Time  `json:"posted_date"`
	SourceID       int64      `json:"source_id"`
	Processed      bool       `json:"processed"`
	ClientName     string     `json:"client_name"`
	ClientCompany  string     `json:"client_company"`
	ClientCity     string     `json:"client_city"`
	ClientCountry  string     `json:"client_country"`
	LinkedInURL    string     `json:"linkedin_url"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	WhatsApp       string     `json:"whatsapp"`
	DecisionMaker  string     `json:"decision_maker"`
	Enriched       bool       `json:"enriched"`
	EnrichedBy     string     `json:"enriched_by"`
	EnrichedAt     *time.Time `json:"enriched_at"`
	ProposalStatus string     `json:"proposal_status"`
	SubmittedBy    string     `json:"submitted_by"`
	OutreachStatus string     `json:"outreach_status"`
}

func toPostingJSON(p model.Posting) postingJSON {
	return postingJSON{
		ID:             p.ID,
		Title:          p.Title,
		Description:    p.Description,
		URL:            p.URL,
		Client:         p.Client,
		Budget:         p.Budget,
		HourlyRate:     p.HourlyRate,
		Skills:         p.Skills,
		Categories:     p.Categories,
		PostedAt:       p.PostedAt,
		SourceID:       p.SourceID,
		Processed:      p.Processed,
		ClientName:     p.Contact.Name,
		ClientCompany:  p.Contact.Company,
		ClientCity:     p.Contact.City,
		ClientCountry:  p.Contact.Country,
		LinkedInURL:    p.Contact.LinkedInURL,
		Email:          p.Contact.Email,
		Phone:          p.Contact.Phone,
		WhatsApp:       p.Contact.WhatsApp,
		DecisionMaker:  p.DecisionMaker,
		Enriched:       p.Enriched,
		EnrichedBy:     p.EnrichedBy,
		EnrichedAt:     p.EnrichedAt,
		ProposalStatus: p.ProposalStatus,
		SubmittedBy:    p.SubmittedBy,
		OutreachStatus: p.OutreachStatus,
	}
}

// ListPostings returns postings newest first, optionally narrowed by source and view.
func (h *Handler) ListPostings(c *gin.Context) {
	var f model.PostingFilter
	if s := c.Query("source"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			h.badRequest(c, "invalid source")
			return
		}
		f.SourceID = id
	}
	switch v := model.PostingView(c.Query("view")); v {
	case model.ViewAll, model.ViewActive, model.ViewEnriched:
		f.View = v
	default:
		h.badRequest(c, "view must be active or enriched")
		return
	}
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			h.badRequest(c, "invalid limit")
			return
		}
		f.Limit = n
	}

	postings, err := h.store.ListPostings(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]postingJSON, 0, len(postings))
	for _, p := range postings {
		out = append(out, toPostingJSON(p))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "postings": out})
}

type createPostingRequest struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Client      string `json:"client"`
	Budget      string `json:"budget"`
	HourlyRate  string `json:"hourly_rate"`
	Skills      string `json:"skills"`
	Categories  string `json:"categories"`
	PostedDate  string `json:"posted_date"`
	SourceID    int64  `json:"source_id"`
}

// postedDateLayouts accepts RFC 3339 and zone-less ISO timestamps.
var postedDateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parsePostedDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range postedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("posted_date %q: %w", s, model.ErrInvalidInput)
}

// CreatePosting stores a manually submitted posting. Resubmitting a link is
// not an error; created reports whether a row was written.
func (h *Handler) CreatePosting(c *gin.Context) {
	var req createPostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	posted, err := parsePostedDate(req.PostedDate)
	if err != nil {
		h.respondError(c, err)
		return
	}

	id, created, err := h.ingestor.Submit(c.Request.Context(), ingest.ManualEntry{
		URL:         req.URL,
		Title:       req.Title,
		Description: req.Description,
		Client:      req.Client,
		Budget:      req.Budget,
		HourlyRate:  req.HourlyRate,
		Skills:      req.Skills,
		Categories:  req.Categories,
		PostedAt:    posted,
		SourceID:    req.SourceID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"success": true, "job_id": id, "created": created})
}

type checkPostingRequest struct {
	URL string `json:"url"`
}

// CheckPosting reports whether a link is already stored.
func (h *Handler) CheckPosting(c *gin.Context) {
	var req checkPostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	id, exists, err := h.ingestor.Exists(c.Request.Context(), req.URL)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists, "job_id": id})
}

// GetPosting returns one posting.
func (h *Handler) GetPosting(c *gin.Context) {
	p, err := h.store.GetPosting(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "posting": toPostingJSON(p)})
}

// DeletePosting removes a posting and everything generated for it.
func (h *Handler) DeletePosting(c *gin.Context) {
	if err := h.store.DeletePosting(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type statusRequest struct {
	ProposalStatus string `json:"proposal_status"`
	SubmittedBy    string `json:"submitted_by"`
	OutreachStatus string `json:"outreach_status"`
}

var (
	proposalStatuses = []string{model.ProposalNotSubmitted, model.ProposalDrafted, model.ProposalSubmitted}
	outreachStatuses = []string{model.OutreachPending, model.OutreachContacted, model.OutreachReplied, model.OutreachClosed}
)

// UpdateStatus moves a posting along the reviewer workflow.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	if req.ProposalStatus != "" && !slices.Contains(proposalStatuses, req.ProposalStatus) {
		h.badRequest(c, fmt.Sprintf("unknown proposal_status %q", req.ProposalStatus))
		return
	}
	if req.OutreachStatus != "" && !slices.Contains(outreachStatuses, req.OutreachStatus) {
		h.badRequest(c, fmt.Sprintf("unknown outreach_status %q", req.OutreachStatus))
		return
	}

	err := h.store.UpdateStatus(c.Request.Context(), c.Param("id"), model.StatusUpdate{
		ProposalStatus: req.ProposalStatus,
		SubmittedBy:    req.SubmittedBy,
		OutreachStatus: req.OutreachStatus,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type contactRequest struct {
	ClientName    *string `json:"client_name"`
	ClientCompany *string `json:"client_company"`
	ClientCity    *string `json:"client_city"`
	ClientCountry *string `json:"client_country"`
	LinkedInURL   *string `json:"linkedin_url"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	WhatsApp      *string `json:"whatsapp"`
}

// UpdateContact edits only the contact fields present in the body.
func (h *Handler) UpdateContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	err := h.store.UpdateContact(c.Request.Context(), c.Param("id"), model.ContactPatch{
		Name:        req.ClientName,
		Company:     req.ClientCompany,
		City:        req.ClientCity,
		Country:     req.ClientCountry,
		LinkedInURL: req.LinkedInURL,
		Email:       req.Email,
		Phone:       req.Phone,
		WhatsApp:    req.WhatsApp,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type proposalJSON struct {
	Proposal string          `json:"proposal"`
	Examples []model.Example `json:"examples"`
	Keywords []string        `json:"keywords"`
	DebugLog []string        `json:"debug_log"`
}

// GetProposal returns the stored proposal of a posting.
func (h *Handler) GetProposal(c *gin.Context) {
	p, err := h.store.GetProposal(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposalJSON{
		Proposal: p.Text,
		Examples: p.Examples,
		Keywords: p.Keywords,
		DebugLog: p.DebugLog,
	})
}

// GenerateProposal runs the proposal pipeline for a posting.
func (h *Handler) GenerateProposal(c *gin.Context) {
	res, err := h.pipeline.RunProposal(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposalJSON{
		Proposal: res.Proposal,
		Examples: res.Examples,
		Keywords: res.Keywords,
		DebugLog: res.DebugLog,
	})
}

type enrichRequest struct {
	ClientName       string `json:"client_name"`
	ClientCompany    string `json:"client_company"`
	ClientCity       string `json:"client_city"`
	ClientCountry    string `json:"client_country"`
	EnrichmentAuthor string `json:"enrichment_author"`
}

// Enrich looks up the contact for a posting.
func (h *Handler) Enrich(c *gin.Context) {
	var req enrichRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	res, err := h.pipeline.RunEnrichment(c.Request.Context(), pipeline.EnrichRequest{
		PostingID: c.Param("id"),
		Person:    req.ClientName,
		Company:   req.ClientCompany,
		City:      req.ClientCity,
		Country:   req.ClientCountry,
		Actor:     req.EnrichmentAuthor,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	ct := res.Contact
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"found":   res.Found,
		"enrichment": gin.H{
			"client_name":    ct.Name,
			"client_company": ct.Company,
			"client_city":    ct.City,
			"client_country": ct.Country,
			"linkedin_url":   ct.LinkedInURL,
			"email":          ct.Email,
			"phone":          ct.Phone,
			"whatsapp":       ct.WhatsApp,
			"decision_maker": res.DecisionMaker,
			"enriched_by":    res.EnrichedBy,
			"enriched_at":    res.EnrichedAt,
		},
	})
}

type outreachJSON struct {
	Kind            string    `json:"type"`
	Subject         string    `json:"subject,omitempty"`
	Message         string    `json:"message"`
	FollowUpSubject string    `json:"followup_subject,omitempty"`
	FollowUpMessage string    `json:"followup_message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func toOutreachJSON(d model.OutreachDraft) outreachJSON {
	return outreachJSON{
		Kind:            d.Kind,
		Subject:         d.Subject,
		Message:         d.Body,
		FollowUpSubject: d.FollowUpSubject,
		FollowUpMessage: d.FollowUpBody,
		CreatedAt:       d.CreatedAt,
	}
}

type outreachRequest struct {
	Type            string `json:"type"`
	Prompt          string `json:"prompt"`
	Subject         string `json:"subject"`
	FollowUpSubject string `json:"followup_subject"`
}

// GenerateOutreach drafts a whatsapp, linkedin or email message for a posting.
func (h *Handler) GenerateOutreach(c *gin.Context) {
	var req outreachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	draft, err := h.pipeline.Outreach(c.Request.Context(), pipeline.OutreachRequest{
		PostingID:       c.Param("id"),
		Kind:            req.Type,
		Prompt:          req.Prompt,
		Subject:         req.Subject,
		FollowUpSubject: req.FollowUpSubject,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "outreach": toOutreachJSON(draft)})
}

// ListOutreach returns every stored draft for a posting.
func (h *Handler) ListOutreach(c *gin.Context) {
	drafts, err := h.store.ListOutreach(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]outreachJSON, 0, len(drafts))
	for _, d := range drafts {
		out = append(out, toOutreachJSON(d))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "outreach": out})
}
