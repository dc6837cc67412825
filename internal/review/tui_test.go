package review

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/pitchdesk/internal/model"
	"github.com/amishk599/pitchdesk/internal/pipeline"
)

type stubRunner struct {
	res   pipeline.ProposalResult
	err   error
	calls []string
}

func (s *stubRunner) RunProposal(_ context.Context, id string) (pipeline.ProposalResult, error) {
	s.calls = append(s.calls, id)
	return s.res, s.err
}

type stubStatuses struct {
	updates []model.StatusUpdate
}

func (s *stubStatuses) UpdateStatus(_ context.Context, _ string, u model.StatusUpdate) error {
	s.updates = append(s.updates, u)
	return nil
}

func samplePostings() []model.Posting {
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	return []model.Posting{
		{ID: "old", Title: "Old job", Budget: "$100", PostedAt: base},
		{ID: "new", Title: "New job", Budget: "$900", PostedAt: base.Add(time.Hour), Description: "Build it"},
		{ID: "done", Title: "Enriched job", Enriched: true, PostedAt: base},
	}
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sized(m reviewModel) reviewModel {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(reviewModel)
}

func TestNewReviewModel_SplitsAndSorts(t *testing.T) {
	m := newReviewModel(samplePostings(), Options{})

	if len(m.open) != 2 || len(m.enriched) != 1 {
		t.Fatalf("open=%d enriched=%d, want 2 and 1", len(m.open), len(m.enriched))
	}
	if m.open[0].ID != "new" {
		t.Errorf("open[0] = %s, want newest first", m.open[0].ID)
	}
}

func TestProposalKeyRunsPipeline(t *testing.T) {
	runner := &stubRunner{res: pipeline.ProposalResult{Proposal: "Hello there", Keywords: []string{"react"}}}
	m := sized(newReviewModel(samplePostings(), Options{Proposals: runner}))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(reviewModel)
	if m.view != viewDetail || m.detail.ID != "new" {
		t.Fatalf("expected detail view of newest posting, got view=%v id=%s", m.view, m.detail.ID)
	}

	next, cmd := m.Update(keyMsg("p"))
	m = next.(reviewModel)
	if cmd == nil || !m.proposalLoading {
		t.Fatal("expected a proposal command and loading state")
	}

	next, _ = m.Update(cmd())
	m = next.(reviewModel)
	if len(runner.calls) != 1 || runner.calls[0] != "new" {
		t.Errorf("runner calls = %v", runner.calls)
	}
	if m.proposalLoading {
		t.Error("loading flag not cleared")
	}
	if m.detail.ProposalStatus != model.ProposalDrafted || !m.open[0].Processed {
		t.Errorf("posting not marked drafted: %+v", m.detail)
	}
	if !strings.Contains(m.renderDetail(), "Hello there") {
		t.Error("proposal text missing from detail view")
	}
}

func TestProposalErrorIsShown(t *testing.T) {
	runner := &stubRunner{err: errors.New("store down")}
	m := sized(newReviewModel(samplePostings(), Options{Proposals: runner}))
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(reviewModel)

	next, _ = m.Update(proposalDoneMsg{postingID: "new", err: runner.err})
	m = next.(reviewModel)
	if !strings.Contains(m.renderDetail(), "proposal failed: store down") {
		t.Error("expected error in detail view")
	}
}

func TestSubmitKeyUpdatesStatus(t *testing.T) {
	statuses := &stubStatuses{}
	m := sized(newReviewModel(samplePostings(), Options{Statuses: statuses, Reviewer: "alex"}))
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(reviewModel)

	_, cmd := m.Update(keyMsg("s"))
	if cmd == nil {
		t.Fatal("expected a status command")
	}
	next, _ = m.Update(cmd())
	m = next.(reviewModel)

	if len(statuses.updates) != 1 || statuses.updates[0].SubmittedBy != "alex" {
		t.Fatalf("updates = %+v", statuses.updates)
	}
	if m.detail.ProposalStatus != model.ProposalSubmitted {
		t.Errorf("detail status = %q", m.detail.ProposalStatus)
	}
}

func TestActionsDisabledWithoutOptions(t *testing.T) {
	m := sized(newReviewModel(samplePostings(), Options{}))
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(reviewModel)

	if _, cmd := m.Update(keyMsg("p")); cmd != nil {
		t.Error("p should be a no-op without a proposal runner")
	}
	if _, cmd := m.Update(keyMsg("s")); cmd != nil {
		t.Error("s should be a no-op without a status updater")
	}
}

func TestRenderPostings(t *testing.T) {
	if got := renderPostings(nil, 0, true); got != "  (no postings)" {
		t.Errorf("empty render = %q", got)
	}
	out := renderPostings(samplePostings()[:2], 1, true)
	if !strings.Contains(out, "> ") || !strings.Contains(out, model.ProposalNotSubmitted) {
		t.Errorf("render = %q", out)
	}
}

func TestWordWrap(t *testing.T) {
	got := wordWrap("one two three four\n\nfive", 9)
	want := "one two\nthree\nfour\n\nfive"
	if got != want {
		t.Errorf("wordWrap = %q, want %q", got, want)
	}
}
