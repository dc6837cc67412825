package match

import (
	"testing"

	"github.com/amishk599/pitchdesk/internal/model"
)

func profile(name, skills string, active bool) model.TeamProfile {
	return model.TeamProfile{Name: name, Skills: skills, Active: active}
}

func TestRank(t *testing.T) {
	profiles := []model.TeamProfile{
		profile("Go dev", "Go, PostgreSQL, Docker", true),
		profile("Mobile", "React Native, Flutter, iOS", true),
		profile("Inactive", "Go, PostgreSQL", false),
		profile("WordPress", "WordPress, WooCommerce", true),
		profile("Half", "Docker, Kubernetes", true),
		profile("Empty", "", true),
	}

	got := Rank("Backend in Go with PostgreSQL", "Docker", profiles)

	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d: %+v", len(got), got)
	}
	if got[0].Profile.Name != "Go dev" || got[0].Score != 100 || got[0].MatchedSkills != 3 {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Profile.Name != "Half" || got[1].Score != 50 {
		t.Errorf("second = %+v", got[1])
	}
}

func TestRank_CapsAndRounds(t *testing.T) {
	profiles := []model.TeamProfile{
		profile("a", "python, x1, x2", true),
		profile("b", "python, x1", true),
		profile("c", "python", true),
		profile("d", "python, x1, x2, x3", true),
	}

	got := Rank("python", "", profiles)

	if len(got) != MaxResults {
		t.Fatalf("expected %d results, got %d", MaxResults, len(got))
	}
	wantNames := []string{"c", "b", "a"}
	wantScores := []float64{100, 50, 33.3}
	for i := range got {
		if got[i].Profile.Name != wantNames[i] {
			t.Errorf("result %d = %s, want %s", i, got[i].Profile.Name, wantNames[i])
		}
		if got[i].Score != wantScores[i] {
			t.Errorf("result %d score = %v, want %v", i, got[i].Score, wantScores[i])
		}
	}
}

func TestRank_CaseInsensitive(t *testing.T) {
	got := Rank("NEED A REACT DEVELOPER", "", []model.TeamProfile{profile("r", "React", true)})
	if len(got) != 1 {
		t.Fatalf("expected a match, got %v", got)
	}
}

func TestRank_NoMatches(t *testing.T) {
	if got := Rank("nothing relevant", "", []model.TeamProfile{profile("x", "Rust", true)}); len(got) != 0 {
		t.Errorf("expected no matches, got %v", got)
	}
}
