package match

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/amishk599/pitchdesk/internal/model"
)

// MaxResults caps how many profiles Rank returns.
const MaxResults = 3

// Result is one profile scored against a posting.
type Result struct {
	Profile       model.TeamProfile
	Score         float64
	MatchedSkills int
}

// Rank scores each active profile by the share of its skills that appear in
// the posting text, and returns the best MaxResults with at least one hit.
// Matching is case-insensitive substring matching on the comma-separated
// skills list.
func Rank(description, skills string, profiles []model.TeamProfile) []Result {
	text := strings.ToLower(description + " " + skills)

	var results []Result
	for _, p := range profiles {
		if !p.Active {
			continue
		}
		keywords := splitSkills(p.Skills)
		if len(keywords) == 0 {
			continue
		}
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		results = append(results, Result{
			Profile:       p,
			Score:         round1(float64(hits) / float64(len(keywords)) * 100),
			MatchedSkills: hits,
		})
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	return results
}

func splitSkills(s string) []string {
	var out []string
	for _, part := range strings.Split(strings.ToLower(s), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
