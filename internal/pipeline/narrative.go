package pipeline

import (
	"cmp"
	"context"
	"fmt"
	"strings"

	"github.com/amishk599/pitchdesk/internal/ai"
	"github.com/amishk599/pitchdesk/internal/model"
)

const narrativeTokens = 1000

type narrativeInput struct {
	Title       string
	Description string
	Examples    []model.Example
	FirstName   string
}

// writeNarrative renders the narrative template and generates the proposal.
// A generation failure is returned as inline text, never as an error.
func (p *Pipeline) writeNarrative(ctx context.Context, tmpl string, in narrativeInput, tr *trace) string {
	examplesText := formatExamples(in.Examples)
	if len(in.Examples) > 0 {
		tr.add("Added %d work examples to proposal", len(in.Examples))
	} else {
		tr.add("No work examples available")
	}

	greeting := greetingFor(in.FirstName)
	tr.add("Using greeting: %s", greeting)

	prompt := ai.Render(cmp.Or(tmpl, ai.DefaultNarrativePrompt), map[string]string{
		"job_title":       in.Title,
		"job_description": in.Description,
		"examples_text":   examplesText,
		"greeting":        greeting,
	})

	tr.add("Calling generator for proposal generation...")
	text, err := p.gen.Complete(ctx, model.GenerateRequest{Prompt: prompt, MaxTokens: narrativeTokens})
	if err != nil {
		tr.add("Proposal generation failed: %v", err)
		return fmt.Sprintf("Error generating proposal: %v", err)
	}
	tr.add("Proposal generated successfully")
	return text
}

func formatExamples(examples []model.Example) string {
	if len(examples) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Work examples:\n\n")
	for i, ex := range examples {
		fmt.Fprintf(&b, "%d. %s: %s (%s)\n\n", i+1, ex.Name, ex.Description, ex.URL)
	}
	return b.String()
}

func greetingFor(firstName string) string {
	if firstName == "" {
		return "Hello there"
	}
	return "Hello " + firstName
}

// firstName returns the first word of the first non-empty candidate.
func firstName(candidates ...string) string {
	for _, c := range candidates {
		if fields := strings.Fields(c); len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}
