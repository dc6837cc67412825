package model

import (
	"context"
	"strings"
	"time"
)

// NotSpecified fills marker-derived fields that the source entry did not carry.
const NotSpecified = "Not specified"

// ManualScheme marks a source whose postings arrive only through manual submission.
const ManualScheme = "manual://"

// Proposal status values, in lifecycle order.
const (
	ProposalNotSubmitted = "Not Submitted"
	ProposalDrafted      = "Drafted"
	ProposalSubmitted    = "Submitted"
)

// Outreach status values, in lifecycle order.
const (
	OutreachPending   = "Pending"
	OutreachContacted = "Contacted"
	OutreachReplied   = "Replied"
	OutreachClosed    = "Closed"
)

// Source is a configured origin of postings: a remote feed or the manual sentinel.
type Source struct {
	ID               int64
	Name             string
	URL              string
	Active           bool
	ExtractionPrompt string
	NarrativePrompt  string
	EnrichmentPrompt string
	CreatedAt        time.Time
}

// Manual reports whether the source only receives hand-submitted postings.
func (s Source) Manual() bool {
	return strings.HasPrefix(s.URL, ManualScheme)
}

// SourcePrompts is a partial update of a source's templates; nil fields are left alone.
type SourcePrompts struct {
	Extraction *string
	Narrative  *string
	Enrichment *string
}

// Entry is one item of a fetched feed before parsing.
type Entry struct {
	Title       string
	Link        string
	Description string
	Author      string
	Budget      string
	Published   *time.Time
}

// Posting is a stored job posting keyed by the identity hash of its link.
type Posting struct {
	ID          string
	Title       string
	Description string
	URL         string
	Client      string
	Budget      string
	HourlyRate  string
	Skills      string
	Categories  string
	PostedAt    time.Time
	SourceID    int64
	Processed   bool
	CreatedAt   time.Time

	Contact

	Enriched      bool
	EnrichedBy    string
	EnrichedAt    *time.Time
	DecisionMaker string

	ProposalStatus string
	SubmittedBy    string
	OutreachStatus string
}

// Contact holds the client contact fields; each is empty until populated.
type Contact struct {
	Name        string
	Company     string
	City        string
	Country     string
	LinkedInURL string
	Email       string
	Phone       string
	WhatsApp    string
}

// ContactPatch is a partial update of a posting's contact fields; nil fields are left alone.
type ContactPatch struct {
	Name        *string
	Company     *string
	City        *string
	Country     *string
	LinkedInURL *string
	Email       *string
	Phone       *string
	WhatsApp    *string
}

// Empty reports whether the patch changes nothing.
func (p ContactPatch) Empty() bool {
	return p.Name == nil && p.Company == nil && p.City == nil && p.Country == nil &&
		p.LinkedInURL == nil && p.Email == nil && p.Phone == nil && p.WhatsApp == nil
}

// Enrichment is the result of a contact lookup as written back to a posting.
type Enrichment struct {
	Contact       Contact
	DecisionMaker string
	EnrichedBy    string
	EnrichedAt    time.Time
}

// StatusUpdate moves a posting along the reviewer state machine; empty fields are left alone.
type StatusUpdate struct {
	ProposalStatus string
	SubmittedBy    string
	OutreachStatus string
}

// PostingView narrows a posting listing.
type PostingView string

const (
	ViewAll      PostingView = ""
	ViewActive   PostingView = "active"
	ViewEnriched PostingView = "enriched"
)

// PostingFilter selects postings for listing. Zero SourceID means every source.
type PostingFilter struct {
	SourceID int64
	View     PostingView
	Limit    int
}

// EntryFetcher fetches the current entries of one source's feed.
type EntryFetcher interface {
	FetchEntries(ctx context.Context) ([]Entry, error)
}

// Notifier announces newly ingested postings.
type Notifier interface {
	Notify(postings []Posting) error
}
