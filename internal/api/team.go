package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amishk599/pitchdesk/internal/match"
	"github.com/amishk599/pitchdesk/internal/model"
)

type teamJSON struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Title           string `json:"title"`
	Skills          string `json:"skills"`
	Description     string `json:"description"`
	ProfileURL      string `json:"profile_url"`
	HourlyRate      string `json:"hourly_rate"`
	ExperienceYears int    `json:"experience_years"`
	Specialization  string `json:"specialization"`
	Active          bool   `json:"active"`
}

func toTeamJSON(p model.TeamProfile) teamJSON {
	return teamJSON(p)
}

func (t teamJSON) profile() model.TeamProfile {
	return model.TeamProfile(t)
}

// ListTeam returns all team profiles; ?active=true narrows to active ones.
func (h *Handler) ListTeam(c *gin.Context) {
	team, err := h.store.ListTeam(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]teamJSON, 0, len(team))
	for _, p := range team {
		out = append(out, toTeamJSON(p))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "team": out})
}

// AddTeamMember stores a new profile.
func (h *Handler) AddTeamMember(c *gin.Context) {
	var req teamJSON
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	req.ID = 0
	p, err := h.store.AddTeamMember(c.Request.Context(), req.profile())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "profile": toTeamJSON(p)})
}

// UpdateTeamMember replaces a profile.
func (h *Handler) UpdateTeamMember(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		h.badRequest(c, "invalid profile id")
		return
	}
	var req teamJSON
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	req.ID = id
	if err := h.store.UpdateTeamMember(c.Request.Context(), req.profile()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type matchJSON struct {
	Profile       teamJSON `json:"profile"`
	Score         float64  `json:"match_score"`
	MatchedSkills int      `json:"matched_skills"`
}

type matchRequest struct {
	JobDescription string `json:"job_description"`
	JobSkills      string `json:"job_skills"`
}

// Match ranks the active team against a job description.
func (h *Handler) Match(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	team, err := h.store.ListTeam(c.Request.Context(), true)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ranked := match.Rank(req.JobDescription, req.JobSkills, team)
	out := make([]matchJSON, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, matchJSON{Profile: toTeamJSON(r.Profile), Score: r.Score, MatchedSkills: r.MatchedSkills})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "matches": out})
}
