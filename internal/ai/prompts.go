package ai

import (
	_ "embed"
	"strings"
)

// Default per-source templates, used when a source is seeded without its own.

//go:embed prompts/extraction.md
var DefaultExtractionPrompt string

//go:embed prompts/narrative.md
var DefaultNarrativePrompt string

//go:embed prompts/enrichment.md
var DefaultEnrichmentPrompt string

// Render substitutes {name} placeholders in tmpl with vars. Unknown
// placeholders are left as written so operator-edited templates never fail.
func Render(tmpl string, vars map[string]string) string {
	if len(vars) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
