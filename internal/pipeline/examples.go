package pipeline

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/pitchdesk/internal/model"
)

const (
	catalogHits     = 10
	catalogLang     = "en"
	minScore        = 3.0
	perTermExamples = 5
	maxExamples     = 10
	descriptionCap  = 200
	appURLPrefix    = "https://play.google.com/store/apps/details?id="
)

// catalogLocales are tried in order until a term has enough results.
var catalogLocales = []string{"us", "sg", "in", "gb"}

// FallbackExamples replaces the catalog results when none could be found.
var FallbackExamples = []model.Example{
	{
		Name:        "ChatGPT",
		Description: "The official ChatGPT app by OpenAI. Get instant answers, find creative inspiration, learn something new...",
		URL:         appURLPrefix + "com.openai.chatgpt",
		Installs:    "50,000,000+",
		Score:       4.5,
	},
	{
		Name:        "Google Assistant",
		Description: "Meet your Google Assistant. Ask it questions. Tell it to do things. It is your own personal Google...",
		URL:         appURLPrefix + "com.google.android.apps.googleassistant",
		Installs:    "1,000,000,000+",
		Score:       4.1,
	},
	{
		Name:        "Replika: My AI Friend",
		Description: "Replika is an AI companion who is eager to learn and would love to see the world through your eyes...",
		URL:         appURLPrefix + "ai.replika.app",
		Installs:    "10,000,000+",
		Score:       4.2,
	},
	{
		Name:        "Speechify Text to Speech Voice",
		Description: "Listen to docs, articles, PDFs, email, anything you read, by adding audio to any text with Speechify...",
		URL:         appURLPrefix + "com.cliffweitzman.speechify2",
		Installs:    "5,000,000+",
		Score:       4.4,
	},
	{
		Name:        "Voice Recorder",
		Description: "Simple and reliable voice recorder that allows you to record voice memos and important meetings...",
		URL:         appURLPrefix + "com.media.bestrecorder.audiorecorder",
		Installs:    "100,000,000+",
		Score:       4.6,
	},
}

// findExamples never returns an empty set: an unreachable or empty catalog
// yields FallbackExamples.
func (p *Pipeline) findExamples(ctx context.Context, terms []string, tr *trace) []model.Example {
	if len(terms) > 2 {
		terms = terms[:2]
	}
	if p.catalog == nil {
		tr.add("Catalog search not configured")
		return fallbackExamples(tr)
	}

	perTerm := make([][]model.Example, len(terms))
	failures := make([][]string, len(terms))
	g, gctx := errgroup.WithContext(ctx)
	for i, term := range terms {
		g.Go(func() error {
			perTerm[i], failures[i] = p.searchTerm(gctx, term)
			return nil
		})
	}
	_ = g.Wait()

	var all []model.Example
	for i, term := range terms {
		for _, f := range failures[i] {
			tr.add("%s", f)
		}
		tr.add("Found %d catalog examples for %q", len(perTerm[i]), term)
		all = append(all, perTerm[i]...)
	}

	if len(all) == 0 {
		return fallbackExamples(tr)
	}
	slices.SortStableFunc(all, func(a, b model.Example) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(all) > maxExamples {
		all = all[:maxExamples]
	}
	tr.add("Using %d catalog examples", len(all))
	return all
}

// searchTerm walks the locales until perTermExamples qualifying apps are
// found. It returns the examples and a trace line per failed locale.
func (p *Pipeline) searchTerm(ctx context.Context, term string) ([]model.Example, []string) {
	var (
		found    []model.Example
		failures []string
		seen     = make(map[string]bool)
	)
	for _, locale := range catalogLocales {
		apps, err := p.catalog.Search(ctx, model.CatalogQuery{
			Term:   term,
			Locale: locale,
			Lang:   catalogLang,
			Hits:   catalogHits,
		})
		if err != nil {
			failures = append(failures, fmt.Sprintf("Catalog search failed for %q in %s: %v", term, locale, err))
			continue
		}
		for _, app := range apps {
			if app.Score < minScore || seen[app.AppID] {
				continue
			}
			seen[app.AppID] = true
			found = append(found, toExample(app))
		}
		if len(found) >= perTermExamples {
			break
		}
	}
	if len(found) > perTermExamples {
		found = found[:perTermExamples]
	}
	return found, failures
}

func toExample(app model.CatalogApp) model.Example {
	desc := []rune(app.Description)
	if len(desc) > descriptionCap {
		desc = desc[:descriptionCap]
	}
	return model.Example{
		Name:        app.Title,
		Description: string(desc) + "...",
		URL:         appURLPrefix + app.AppID,
		Installs:    app.Installs,
		Score:       app.Score,
	}
}

func fallbackExamples(tr *trace) []model.Example {
	tr.add("No catalog examples found, using fallback examples")
	return slices.Clone(FallbackExamples)
}
