package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amishk599/pitchdesk/internal/model"
)

// UpsertProposal stores the proposal for a posting, replacing any earlier one.
func (s *SQLStore) UpsertProposal(ctx context.Context, p model.Proposal) error {
	examples, err := json.Marshal(nonNil(p.Examples))
	if err != nil {
		return fmt.Errorf("encoding examples: %w", err)
	}
	keywords, err := json.Marshal(nonNil(p.Keywords))
	if err != nil {
		return fmt.Errorf("encoding keywords: %w", err)
	}
	debugLog, err := json.Marshal(nonNil(p.DebugLog))
	if err != nil {
		return fmt.Errorf("encoding debug log: %w", err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO proposals
		(posting_id, text, examples, keywords, debug_log, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (posting_id) DO UPDATE SET
			text = excluded.text,
			examples = excluded.examples,
			keywords = excluded.keywords,
			debug_log = excluded.debug_log,
			created_at = excluded.created_at`),
		p.PostingID, p.Text, string(examples), string(keywords), string(debugLog), p.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting proposal for %s: %w", p.PostingID, err)
	}
	return nil
}

// GetProposal returns the proposal for a posting or model.ErrNotFound.
func (s *SQLStore) GetProposal(ctx context.Context, postingID string) (model.Proposal, error) {
	var (
		p                            model.Proposal
		examples, keywords, debugLog string
	)
	err := s.db.QueryRowContext(ctx, s.rebind(
		"SELECT posting_id, text, examples, keywords, debug_log, created_at FROM proposals WHERE posting_id = ?"),
		postingID,
	).Scan(&p.PostingID, &p.Text, &examples, &keywords, &debugLog, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Proposal{}, fmt.Errorf("proposal for %s: %w", postingID, model.ErrNotFound)
	}
	if err != nil {
		return model.Proposal{}, fmt.Errorf("loading proposal for %s: %w", postingID, err)
	}

	if err := json.Unmarshal([]byte(examples), &p.Examples); err != nil {
		return model.Proposal{}, fmt.Errorf("decoding examples for %s: %w", postingID, err)
	}
	if err := json.Unmarshal([]byte(keywords), &p.Keywords); err != nil {
		return model.Proposal{}, fmt.Errorf("decoding keywords for %s: %w", postingID, err)
	}
	if err := json.Unmarshal([]byte(debugLog), &p.DebugLog); err != nil {
		return model.Proposal{}, fmt.Errorf("decoding debug log for %s: %w", postingID, err)
	}
	return p, nil
}

// SaveOutreach appends a drafted outreach message for a posting.
func (s *SQLStore) SaveOutreach(ctx context.Context, d model.OutreachDraft) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO outreach_drafts
		(posting_id, kind, subject, body, follow_up_subject, follow_up_body, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		d.PostingID, d.Kind, d.Subject, d.Body, d.FollowUpSubject, d.FollowUpBody, d.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving %s outreach for %s: %w", d.Kind, d.PostingID, err)
	}
	return nil
}

// ListOutreach returns the drafts for a posting, oldest first.
func (s *SQLStore) ListOutreach(ctx context.Context, postingID string) ([]model.OutreachDraft, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT posting_id, kind, subject, body, follow_up_subject, follow_up_body, created_at
		FROM outreach_drafts WHERE posting_id = ? ORDER BY id`), postingID)
	if err != nil {
		return nil, fmt.Errorf("listing outreach for %s: %w", postingID, err)
	}
	defer rows.Close()

	var out []model.OutreachDraft
	for rows.Next() {
		var d model.OutreachDraft
		if err := rows.Scan(&d.PostingID, &d.Kind, &d.Subject, &d.Body, &d.FollowUpSubject, &d.FollowUpBody, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning outreach: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
