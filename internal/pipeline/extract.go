package pipeline

import (
	"cmp"
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/amishk599/pitchdesk/internal/ai"
	"github.com/amishk599/pitchdesk/internal/model"
)

const extractionTokens = 50

// FallbackKeywords is the vocabulary drawn from when extraction fails.
var FallbackKeywords = []string{
	"real estate",
	"habit tracking",
	"expenses",
	"calory counter",
	"fitness",
	"education",
	"shopping",
	"travel",
	"food delivery",
	"dating",
}

// extractKeywords always returns exactly two search terms.
func (p *Pipeline) extractKeywords(ctx context.Context, tmpl, description string, tr *trace) []string {
	tr.add("Starting keyword extraction...")
	prompt := ai.Render(cmp.Or(tmpl, ai.DefaultExtractionPrompt), map[string]string{
		"job_description": description,
	})

	tr.add("Calling generator for keyword extraction...")
	terms, err := p.generateTerms(ctx, prompt)
	if err != nil {
		tr.add("Keyword extraction failed: %v", err)
		terms = fallbackKeywords()
		tr.add("Using fallback keywords: %s", formatTerms(terms))
		return terms
	}
	tr.add("Keywords extracted: %s", formatTerms(terms))
	return terms
}

func (p *Pipeline) generateTerms(ctx context.Context, prompt string) ([]string, error) {
	out, err := p.gen.Complete(ctx, model.GenerateRequest{Prompt: prompt, MaxTokens: extractionTokens})
	if err != nil {
		return nil, err
	}
	terms := splitTerms(out, 2)
	if len(terms) < 2 {
		return nil, fmt.Errorf("expected 2 search terms, got %d in %q", len(terms), out)
	}
	return terms, nil
}

// splitTerms returns up to n non-empty comma-separated terms from s.
func splitTerms(s string, n int) []string {
	var terms []string
	for _, part := range strings.Split(s, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part == "" {
			continue
		}
		terms = append(terms, part)
		if len(terms) == n {
			break
		}
	}
	return terms
}

func fallbackKeywords() []string {
	idx := rand.Perm(len(FallbackKeywords))
	return []string{FallbackKeywords[idx[0]], FallbackKeywords[idx[1]]}
}

func formatTerms(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
