package pipeline

import (
	"cmp"
	"context"
	"fmt"
	"strings"

	"github.com/amishk599/pitchdesk/internal/ai"
	"github.com/amishk599/pitchdesk/internal/model"
)

const unknownActor = "Unknown"

// EnrichRequest names the contact to look up for a posting.
type EnrichRequest struct {
	PostingID string
	Person    string
	Company   string
	City      string
	Country   string
	Actor     string
}

// EnrichResult is the stored enrichment plus whether the lookup answered.
type EnrichResult struct {
	model.Enrichment
	Found bool
}

// RunEnrichment resolves the contact for a posting and stores the outcome.
// A failed lookup is not an error: the posting is still marked enriched with
// empty contact fields so it can be completed by hand. Fields supplied by the
// caller always win over looked-up values.
func (p *Pipeline) RunEnrichment(ctx context.Context, req EnrichRequest) (EnrichResult, error) {
	person := strings.TrimSpace(req.Person)
	company := strings.TrimSpace(req.Company)
	if person == "" && company == "" {
		return EnrichResult{}, model.ErrMissingTarget
	}
	ctx = context.WithoutCancel(ctx)

	posting, err := p.store.GetPosting(ctx, req.PostingID)
	if err != nil {
		return EnrichResult{}, fmt.Errorf("loading posting: %w", err)
	}
	src, err := p.store.GetSource(ctx, posting.SourceID)
	if err != nil {
		return EnrichResult{}, fmt.Errorf("loading source %d: %w", posting.SourceID, err)
	}

	target := person
	if person == "" {
		target = company
	}
	instruction := enrichmentInstruction(person, company, req.City, req.Country, src.EnrichmentPrompt)

	found, ok := p.lookup(ctx, req.PostingID, instruction)

	res := EnrichResult{
		Enrichment: model.Enrichment{
			Contact: model.Contact{
				Name:        cmp.Or(person, strings.TrimSpace(found.FullName)),
				Company:     cmp.Or(company, strings.TrimSpace(found.CompanyName)),
				City:        strings.TrimSpace(req.City),
				Country:     strings.TrimSpace(req.Country),
				LinkedInURL: strings.TrimSpace(found.LinkedInURL),
				Email:       strings.TrimSpace(found.Email),
				Phone:       strings.TrimSpace(found.Phone),
				WhatsApp:    strings.TrimSpace(found.WhatsApp),
			},
			DecisionMaker: target,
			EnrichedBy:    cmp.Or(strings.TrimSpace(req.Actor), unknownActor),
			EnrichedAt:    p.now(),
		},
		Found: ok,
	}
	if err := p.store.SaveEnrichment(ctx, req.PostingID, res.Enrichment); err != nil {
		return EnrichResult{}, fmt.Errorf("saving enrichment: %w", err)
	}

	p.logger.Info("posting enriched",
		"posting", req.PostingID,
		"target", target,
		"found", ok,
		"by", res.EnrichedBy,
	)
	return res, nil
}

// lookup makes one attempt; any failure yields an empty contact.
func (p *Pipeline) lookup(ctx context.Context, postingID, instruction string) (model.ResolvedContact, bool) {
	if p.contacts == nil {
		p.logger.Warn("contact lookup not configured, leaving fields for manual completion", "posting", postingID)
		return model.ResolvedContact{}, false
	}
	found, err := p.contacts.Resolve(ctx, instruction)
	if err != nil {
		p.logger.Warn("contact lookup failed, leaving fields for manual completion",
			"posting", postingID,
			"error", err,
		)
		return model.ResolvedContact{}, false
	}
	return found, true
}

// enrichmentInstruction builds the lookup task. A company-only target asks
// for the decision-maker; anything with a person asks for that person. A
// source template that differs from the default is appended as guidance.
func enrichmentInstruction(person, company, city, country, tmpl string) string {
	var instruction, target string
	if person == "" {
		target = company
		instruction = fmt.Sprintf("Find CEO/founder/owner/self-employed person of %s in %s, %s. Get full name, company name, LinkedIn, email, phone, WhatsApp.", company, city, country)
	} else {
		target = person
		instruction = fmt.Sprintf("Find contact info for %s in %s, %s. Get full name, company name, LinkedIn, email, phone, WhatsApp.", person, city, country)
	}

	tmpl = strings.TrimSpace(tmpl)
	if tmpl == "" || tmpl == strings.TrimSpace(ai.DefaultEnrichmentPrompt) {
		return instruction
	}
	guidance := ai.Render(tmpl, map[string]string{
		"search_target": target,
		"city":          city,
		"country":       country,
	})
	return instruction + "\n\n" + guidance
}
