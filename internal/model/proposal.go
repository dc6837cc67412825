package model

import (
	"context"
	"time"
)

// Example is a portfolio reference attached to a proposal.
type Example struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	URL         string  `json:"url"`
	Installs    string  `json:"installs"`
	Score       float64 `json:"score"`
}

// Proposal is the generated narrative for a posting, one per posting.
type Proposal struct {
	PostingID string
	Text      string
	Examples  []Example
	Keywords  []string
	DebugLog  []string
	CreatedAt time.Time
}

// Outreach kinds.
const (
	OutreachWhatsApp = "whatsapp"
	OutreachLinkedIn = "linkedin"
	OutreachEmail    = "email"
)

// OutreachDraft is a generated message for a posting's contact.
type OutreachDraft struct {
	PostingID       string
	Kind            string
	Subject         string
	Body            string
	FollowUpSubject string
	FollowUpBody    string
	CreatedAt       time.Time
}

// TeamProfile is a team member who can be matched to a posting.
type TeamProfile struct {
	ID              int64
	Name            string
	Title           string
	Skills          string
	Description     string
	ProfileURL      string
	HourlyRate      string
	ExperienceYears int
	Specialization  string
	Active          bool
}

// ActorCount is a per-month tally for one actor.
type ActorCount struct {
	Month string // YYYY-MM
	Actor string
	Count int
}

// StatusCount tallies proposals per submitter and status.
type StatusCount struct {
	Actor  string
	Status string
	Count  int
}

// Stats summarises reviewer activity.
type Stats struct {
	Enrichments []ActorCount
	Proposals   []StatusCount
}

// GenerateRequest is one call to a text generator.
type GenerateRequest struct {
	Prompt    string
	MaxTokens int
}

// Generator produces text from a prompt.
type Generator interface {
	Complete(ctx context.Context, req GenerateRequest) (string, error)
}

// CatalogQuery is one search against the app catalog.
type CatalogQuery struct {
	Term   string
	Locale string
	Lang   string
	Hits   int
}

// CatalogApp is a single catalog search hit.
type CatalogApp struct {
	Title       string
	Description string
	AppID       string
	Installs    string
	Score       float64
}

// CatalogSearcher searches an app catalog.
type CatalogSearcher interface {
	Search(ctx context.Context, q CatalogQuery) ([]CatalogApp, error)
}

// ResolvedContact is what a contact lookup returns. Any field may be empty.
type ResolvedContact struct {
	FullName    string `json:"full_name"`
	CompanyName string `json:"company_name"`
	LinkedInURL string `json:"linkedin_url"`
	Email       string `json:"primary_email"`
	Phone       string `json:"phone_number"`
	WhatsApp    string `json:"whatsapp_number"`
}

// ContactResolver answers a natural-language contact lookup.
type ContactResolver interface {
	Resolve(ctx context.Context, instruction string) (ResolvedContact, error)
}
