package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/amishk599/pitchdesk/internal/model"
)

// Stats tallies enrichments per month and actor, and proposals per submitter
// and status. Months are bucketed in Go so both backends share one query.
func (s *SQLStore) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats

	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT enriched_by, enriched_at FROM postings WHERE enriched = ? AND enriched_at IS NOT NULL"), true)
	if err != nil {
		return st, fmt.Errorf("loading enrichment stats: %w", err)
	}
	type key struct{ month, actor string }
	counts := make(map[key]int)
	for rows.Next() {
		var (
			actor string
			at    time.Time
		)
		if err := rows.Scan(&actor, &at); err != nil {
			rows.Close()
			return st, fmt.Errorf("scanning enrichment stats: %w", err)
		}
		if actor == "" {
			actor = "Unknown"
		}
		counts[key{at.UTC().Format("2006-01"), actor}]++
	}
	if err := rows.Close(); err != nil {
		return st, err
	}
	if err := rows.Err(); err != nil {
		return st, err
	}
	for k, n := range counts {
		st.Enrichments = append(st.Enrichments, model.ActorCount{Month: k.month, Actor: k.actor, Count: n})
	}
	sort.Slice(st.Enrichments, func(i, j int) bool {
		a, b := st.Enrichments[i], st.Enrichments[j]
		if a.Month != b.Month {
			return a.Month > b.Month
		}
		return a.Actor < b.Actor
	})

	prow, err := s.db.QueryContext(ctx, s.rebind(`SELECT submitted_by, proposal_status, COUNT(*)
		FROM postings WHERE proposal_status <> ?
		GROUP BY submitted_by, proposal_status
		ORDER BY submitted_by, proposal_status`), model.ProposalNotSubmitted)
	if err != nil {
		return st, fmt.Errorf("loading proposal stats: %w", err)
	}
	defer prow.Close()
	for prow.Next() {
		var c model.StatusCount
		if err := prow.Scan(&c.Actor, &c.Status, &c.Count); err != nil {
			return st, fmt.Errorf("scanning proposal stats: %w", err)
		}
		st.Proposals = append(st.Proposals, c)
	}
	return st, prow.Err()
}
