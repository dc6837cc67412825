package pipeline

import (
	"cmp"
	"context"
	"fmt"

	"github.com/amishk599/pitchdesk/internal/model"
)

const followUpTokens = 400

// outreachStyles maps each kind to its closing instruction and token budget.
var outreachStyles = map[string]struct {
	closing string
	tokens  int
}{
	model.OutreachWhatsApp: {"Generate a brief, friendly WhatsApp message:", 250},
	model.OutreachLinkedIn: {"Generate a professional LinkedIn message:", 400},
	model.OutreachEmail:    {"Generate a professional email body:", 500},
}

// OutreachRequest asks for a drafted message to a posting's contact.
// Subjects apply to email only and default from the posting title.
type OutreachRequest struct {
	PostingID       string
	Kind            string
	Prompt          string
	Subject         string
	FollowUpSubject string
}

// Outreach drafts a message of the requested kind and stores it. Email drafts
// include a follow-up. Generation failures are stored inline.
func (p *Pipeline) Outreach(ctx context.Context, req OutreachRequest) (model.OutreachDraft, error) {
	style, ok := outreachStyles[req.Kind]
	if !ok {
		return model.OutreachDraft{}, fmt.Errorf("unknown outreach kind %q: %w", req.Kind, model.ErrInvalidInput)
	}
	ctx = context.WithoutCancel(ctx)

	posting, err := p.store.GetPosting(ctx, req.PostingID)
	if err != nil {
		return model.OutreachDraft{}, fmt.Errorf("loading posting: %w", err)
	}

	jobBlock := fmt.Sprintf("Job Title: %s\nJob Description: %s", posting.Title, posting.Description)
	prompt := fmt.Sprintf("%s\n\n%s\n\n%s", req.Prompt, jobBlock, style.closing)

	draft := model.OutreachDraft{
		PostingID: req.PostingID,
		Kind:      req.Kind,
		Body:      p.draft(ctx, req.Kind, prompt, style.tokens),
		CreatedAt: p.now(),
	}
	if req.Kind == model.OutreachEmail {
		followUp := fmt.Sprintf("Generate a follow-up email body for this job if no response received to initial email:\n\n%s\n\nGenerate a polite follow-up email body:", jobBlock)
		draft.Subject = cmp.Or(req.Subject, "Regarding: "+posting.Title)
		draft.FollowUpSubject = cmp.Or(req.FollowUpSubject, "Follow-up: "+posting.Title)
		draft.FollowUpBody = p.draft(ctx, "follow-up", followUp, followUpTokens)
	}

	if err := p.store.SaveOutreach(ctx, draft); err != nil {
		return model.OutreachDraft{}, fmt.Errorf("saving outreach: %w", err)
	}
	return draft, nil
}

func (p *Pipeline) draft(ctx context.Context, kind, prompt string, tokens int) string {
	text, err := p.gen.Complete(ctx, model.GenerateRequest{Prompt: prompt, MaxTokens: tokens})
	if err != nil {
		p.logger.Warn("outreach generation failed", "kind", kind, "error", err)
		return fmt.Sprintf("Error generating %s message: %v", kind, err)
	}
	return text
}
