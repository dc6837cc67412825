package model

import "context"

// SourceStore persists the source registry.
type SourceStore interface {
	ListSources(ctx context.Context) ([]Source, error)
	GetSource(ctx context.Context, id int64) (Source, error)
	AddSource(ctx context.Context, src Source) (Source, error)
	SetSourceActive(ctx context.Context, id int64, active bool) error
	UpdateSourcePrompts(ctx context.Context, id int64, p SourcePrompts) error
}

// PostingStore persists postings. InsertPosting is insert-if-absent and
// reports whether a row was actually created.
type PostingStore interface {
	HasPosting(ctx context.Context, id string) (bool, error)
	InsertPosting(ctx context.Context, p Posting) (bool, error)
	GetPosting(ctx context.Context, id string) (Posting, error)
	ListPostings(ctx context.Context, f PostingFilter) ([]Posting, error)
	MarkProcessed(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, u StatusUpdate) error
	UpdateContact(ctx context.Context, id string, p ContactPatch) error
	SaveEnrichment(ctx context.Context, id string, e Enrichment) error
	DeletePosting(ctx context.Context, id string) error
}

// ProposalStore persists one proposal per posting.
type ProposalStore interface {
	UpsertProposal(ctx context.Context, p Proposal) error
	GetProposal(ctx context.Context, postingID string) (Proposal, error)
	SaveOutreach(ctx context.Context, d OutreachDraft) error
	ListOutreach(ctx context.Context, postingID string) ([]OutreachDraft, error)
}

// TeamStore persists team profiles.
type TeamStore interface {
	ListTeam(ctx context.Context, activeOnly bool) ([]TeamProfile, error)
	AddTeamMember(ctx context.Context, p TeamProfile) (TeamProfile, error)
	UpdateTeamMember(ctx context.Context, p TeamProfile) error
}

// Store is the full storage surface used by the daemon and API.
type Store interface {
	SourceStore
	PostingStore
	ProposalStore
	TeamStore
	Stats(ctx context.Context) (Stats, error)
	Close() error
}
