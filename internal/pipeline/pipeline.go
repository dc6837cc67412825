// Package pipeline runs the on-demand stages that turn a stored posting into
// a reviewable draft: keyword extraction, example retrieval, narrative
// generation, contact enrichment and outreach drafting.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/pitchdesk/internal/model"
)

// Store is the storage surface the pipeline reads and writes.
type Store interface {
	GetSource(ctx context.Context, id int64) (model.Source, error)
	GetPosting(ctx context.Context, id string) (model.Posting, error)
	MarkProcessed(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, u model.StatusUpdate) error
	SaveEnrichment(ctx context.Context, id string, e model.Enrichment) error
	UpsertProposal(ctx context.Context, p model.Proposal) error
	SaveOutreach(ctx context.Context, d model.OutreachDraft) error
}

// Pipeline wires the stages to their external collaborators.
type Pipeline struct {
	store    Store
	gen      model.Generator
	catalog  model.CatalogSearcher
	contacts model.ContactResolver
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a pipeline. catalog and contacts may be nil; the stages then
// take their degraded paths.
func New(
	store Store,
	gen model.Generator,
	catalog model.CatalogSearcher,
	contacts model.ContactResolver,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		store:    store,
		gen:      gen,
		catalog:  catalog,
		contacts: contacts,
		logger:   logger,
		now:      time.Now,
	}
}

// trace collects the ordered debug lines of one run and mirrors each to the log.
type trace struct {
	lines  []string
	logger *slog.Logger
}

func newTrace(logger *slog.Logger, stage, postingID string) *trace {
	return &trace{
		logger: logger.With("run", uuid.NewString(), "stage", stage, "posting", postingID),
	}
}

func (t *trace) add(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	t.lines = append(t.lines, line)
	t.logger.Debug(line)
}

// ProposalResult is what a proposal run produced.
type ProposalResult struct {
	Proposal string
	Examples []model.Example
	Keywords []string
	DebugLog []string
}

// RunProposal extracts keywords, retrieves examples and generates the
// narrative for a posting, then upserts the proposal and marks the posting
// processed. Generation failures are absorbed into the result; only storage
// errors are returned. The run is detached from ctx cancellation so a
// disconnecting caller does not abort in-flight external calls.
func (p *Pipeline) RunProposal(ctx context.Context, postingID string) (ProposalResult, error) {
	ctx = context.WithoutCancel(ctx)

	posting, err := p.store.GetPosting(ctx, postingID)
	if err != nil {
		return ProposalResult{}, fmt.Errorf("loading posting: %w", err)
	}
	src, err := p.store.GetSource(ctx, posting.SourceID)
	if err != nil {
		return ProposalResult{}, fmt.Errorf("loading source %d: %w", posting.SourceID, err)
	}

	tr := newTrace(p.logger, "proposal", postingID)
	keywords := p.extractKeywords(ctx, src.ExtractionPrompt, posting.Description, tr)
	examples := p.findExamples(ctx, keywords, tr)
	text := p.writeNarrative(ctx, src.NarrativePrompt, narrativeInput{
		Title:       posting.Title,
		Description: posting.Description,
		Examples:    examples,
		FirstName:   firstName(posting.Contact.Name, posting.DecisionMaker),
	}, tr)

	prop := model.Proposal{
		PostingID: postingID,
		Text:      text,
		Examples:  examples,
		Keywords:  keywords,
		DebugLog:  tr.lines,
		CreatedAt: p.now(),
	}
	if err := p.store.UpsertProposal(ctx, prop); err != nil {
		return ProposalResult{}, fmt.Errorf("saving proposal: %w", err)
	}
	if err := p.store.MarkProcessed(ctx, postingID); err != nil {
		return ProposalResult{}, fmt.Errorf("marking processed: %w", err)
	}
	if posting.ProposalStatus == "" || posting.ProposalStatus == model.ProposalNotSubmitted {
		if err := p.store.UpdateStatus(ctx, postingID, model.StatusUpdate{ProposalStatus: model.ProposalDrafted}); err != nil {
			return ProposalResult{}, fmt.Errorf("updating proposal status: %w", err)
		}
	}

	p.logger.Info("proposal generated",
		"posting", postingID,
		"keywords", len(keywords),
		"examples", len(examples),
	)
	return ProposalResult{
		Proposal: text,
		Examples: examples,
		Keywords: keywords,
		DebugLog: tr.lines,
	}, nil
}
