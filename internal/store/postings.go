package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amishk599/pitchdesk/internal/model"
)

const postingColumns = `id, title, description, url, client, budget, hourly_rate, skills, categories,
	posted_at, source_id, processed, created_at,
	contact_name, contact_company, contact_city, contact_country, linkedin_url, email, phone, whatsapp,
	decision_maker, enriched, enriched_by, enriched_at,
	proposal_status, submitted_by, outreach_status`

func scanPosting(row interface{ Scan(...any) error }) (model.Posting, error) {
	var (
		p          model.Posting
		enrichedAt sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.URL, &p.Client, &p.Budget, &p.HourlyRate, &p.Skills, &p.Categories,
		&p.PostedAt, &p.SourceID, &p.Processed, &p.CreatedAt,
		&p.Contact.Name, &p.Contact.Company, &p.Contact.City, &p.Contact.Country,
		&p.Contact.LinkedInURL, &p.Contact.Email, &p.Contact.Phone, &p.Contact.WhatsApp,
		&p.DecisionMaker, &p.Enriched, &p.EnrichedBy, &enrichedAt,
		&p.ProposalStatus, &p.SubmittedBy, &p.OutreachStatus,
	)
	if err != nil {
		return p, err
	}
	if enrichedAt.Valid {
		t := enrichedAt.Time
		p.EnrichedAt = &t
	}
	return p, nil
}

// HasPosting returns true if a posting with the given identity hash exists.
func (s *SQLStore) HasPosting(ctx context.Context, id string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT 1 FROM postings WHERE id = ?"), id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking posting %s: %w", id, err)
	}
	return true, nil
}

// InsertPosting stores p unless its identity hash is already present. The
// check and the write are a single statement, so concurrent inserts of the
// same identity create exactly one row. Reports whether this call created it.
func (s *SQLStore) InsertPosting(ctx context.Context, p model.Posting) (bool, error) {
	if p.ProposalStatus == "" {
		p.ProposalStatus = model.ProposalNotSubmitted
	}
	if p.OutreachStatus == "" {
		p.OutreachStatus = model.OutreachPending
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO postings
		(id, title, description, url, client, budget, hourly_rate, skills, categories,
		 posted_at, source_id, proposal_status, outreach_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`),
		p.ID, p.Title, p.Description, p.URL, p.Client, p.Budget, p.HourlyRate, p.Skills, p.Categories,
		p.PostedAt.UTC(), p.SourceID, p.ProposalStatus, p.OutreachStatus, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("inserting posting %s: %w", p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting posting %s: rows affected: %w", p.ID, err)
	}
	return n > 0, nil
}

// GetPosting returns the posting with the given identity hash or model.ErrNotFound.
func (s *SQLStore) GetPosting(ctx context.Context, id string) (model.Posting, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+postingColumns+" FROM postings WHERE id = ?"), id)
	p, err := scanPosting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Posting{}, fmt.Errorf("posting %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.Posting{}, fmt.Errorf("loading posting %s: %w", id, err)
	}
	return p, nil
}

// ListPostings returns postings newest first.
func (s *SQLStore) ListPostings(ctx context.Context, f model.PostingFilter) ([]model.Posting, error) {
	var (
		where []string
		args  []any
	)
	if f.SourceID != 0 {
		where = append(where, "source_id = ?")
		args = append(args, f.SourceID)
	}
	switch f.View {
	case model.ViewActive:
		where = append(where, "enriched = ?")
		args = append(args, false)
	case model.ViewEnriched:
		where = append(where, "enriched = ?")
		args = append(args, true)
	}

	query := "SELECT " + postingColumns + " FROM postings"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY posted_at DESC, id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing postings: %w", err)
	}
	defer rows.Close()

	var out []model.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning posting: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkProcessed flags a posting as having a generated proposal.
func (s *SQLStore) MarkProcessed(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind("UPDATE postings SET processed = ? WHERE id = ?"), true, id)
	if err != nil {
		return fmt.Errorf("marking posting %s processed: %w", id, err)
	}
	return expectOne(res, "posting "+id)
}

// UpdateStatus writes the non-empty fields of u.
func (s *SQLStore) UpdateStatus(ctx context.Context, id string, u model.StatusUpdate) error {
	var (
		sets []string
		args []any
	)
	if u.ProposalStatus != "" {
		sets = append(sets, "proposal_status = ?")
		args = append(args, u.ProposalStatus)
	}
	if u.SubmittedBy != "" {
		sets = append(sets, "submitted_by = ?")
		args = append(args, u.SubmittedBy)
	}
	if u.OutreachStatus != "" {
		sets = append(sets, "outreach_status = ?")
		args = append(args, u.OutreachStatus)
	}
	if len(sets) == 0 {
		return fmt.Errorf("status update for %s is empty: %w", id, model.ErrInvalidInput)
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx, s.rebind("UPDATE postings SET "+strings.Join(sets, ", ")+" WHERE id = ?"), args...)
	if err != nil {
		return fmt.Errorf("updating status of posting %s: %w", id, err)
	}
	return expectOne(res, "posting "+id)
}

// UpdateContact writes only the contact fields present in p.
func (s *SQLStore) UpdateContact(ctx context.Context, id string, p model.ContactPatch) error {
	if p.Empty() {
		return fmt.Errorf("contact update for %s is empty: %w", id, model.ErrInvalidInput)
	}
	var (
		sets []string
		args []any
	)
	add := func(col string, v *string) {
		if v == nil {
			return
		}
		sets = append(sets, col+" = ?")
		args = append(args, *v)
	}
	add("contact_name", p.Name)
	add("contact_company", p.Company)
	add("contact_city", p.City)
	add("contact_country", p.Country)
	add("linkedin_url", p.LinkedInURL)
	add("email", p.Email)
	add("phone", p.Phone)
	add("whatsapp", p.WhatsApp)

	args = append(args, id)
	res, err := s.db.ExecContext(ctx, s.rebind("UPDATE postings SET "+strings.Join(sets, ", ")+" WHERE id = ?"), args...)
	if err != nil {
		return fmt.Errorf("updating contact of posting %s: %w", id, err)
	}
	return expectOne(res, "posting "+id)
}

// SaveEnrichment writes the outcome of a contact lookup and marks the posting enriched.
func (s *SQLStore) SaveEnrichment(ctx context.Context, id string, e model.Enrichment) error {
	c := e.Contact
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE postings SET
		contact_name = ?, contact_company = ?, contact_city = ?, contact_country = ?,
		linkedin_url = ?, email = ?, phone = ?, whatsapp = ?,
		decision_maker = ?, enriched = ?, enriched_by = ?, enriched_at = ?
		WHERE id = ?`),
		c.Name, c.Company, c.City, c.Country,
		c.LinkedInURL, c.Email, c.Phone, c.WhatsApp,
		e.DecisionMaker, true, e.EnrichedBy, e.EnrichedAt.UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("saving enrichment for posting %s: %w", id, err)
	}
	return expectOne(res, "posting "+id)
}

// DeletePosting removes a posting together with its proposal and outreach drafts.
func (s *SQLStore) DeletePosting(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("deleting posting %s: begin: %w", id, err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM outreach_drafts WHERE posting_id = ?",
		"DELETE FROM proposals WHERE posting_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, s.rebind(q), id); err != nil {
			return fmt.Errorf("deleting posting %s: %w", id, err)
		}
	}
	res, err := tx.ExecContext(ctx, s.rebind("DELETE FROM postings WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting posting %s: %w", id, err)
	}
	if err := expectOne(res, "posting "+id); err != nil {
		return err
	}
	return tx.Commit()
}
