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

const sourceColumns = `id, name, url, active, extraction_prompt, narrative_prompt, enrichment_prompt, created_at`

func scanSource(row interface{ Scan(...any) error }) (model.Source, error) {
	var src model.Source
	err := row.Scan(&src.ID, &src.Name, &src.URL, &src.Active,
		&src.ExtractionPrompt, &src.NarrativePrompt, &src.EnrichmentPrompt, &src.CreatedAt)
	return src, err
}

// ListSources returns every registered source ordered by ID.
func (s *SQLStore) ListSources(ctx context.Context) ([]model.Source, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+sourceColumns+" FROM sources ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	var out []model.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

// GetSource returns the source with the given ID or model.ErrNotFound.
func (s *SQLStore) GetSource(ctx context.Context, id int64) (model.Source, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+sourceColumns+" FROM sources WHERE id = ?"), id)
	src, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Source{}, fmt.Errorf("source %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.Source{}, fmt.Errorf("loading source %d: %w", id, err)
	}
	return src, nil
}

// AddSource registers a new source and returns it with its assigned ID.
func (s *SQLStore) AddSource(ctx context.Context, src model.Source) (model.Source, error) {
	if strings.TrimSpace(src.Name) == "" || strings.TrimSpace(src.URL) == "" {
		return model.Source{}, fmt.Errorf("source name and url are required: %w", model.ErrInvalidInput)
	}
	src.CreatedAt = time.Now().UTC()

	err := s.db.QueryRowContext(ctx, s.rebind(`INSERT INTO sources
		(name, url, active, extraction_prompt, narrative_prompt, enrichment_prompt, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		src.Name, src.URL, src.Active, src.ExtractionPrompt, src.NarrativePrompt, src.EnrichmentPrompt, src.CreatedAt,
	).Scan(&src.ID)
	if err != nil {
		return model.Source{}, fmt.Errorf("adding source %q: %w", src.Name, err)
	}
	return src, nil
}

// SeedSource inserts src unless a source with the same URL already exists.
// It reports whether a row was created.
func (s *SQLStore) SeedSource(ctx context.Context, src model.Source) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO sources
		(name, url, active, extraction_prompt, narrative_prompt, enrichment_prompt, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT (url) DO NOTHING`),
		src.Name, src.URL, src.Active, src.ExtractionPrompt, src.NarrativePrompt, src.EnrichmentPrompt, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("seeding source %q: %w", src.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("seeding source %q: rows affected: %w", src.Name, err)
	}
	return n > 0, nil
}

// SetSourceActive toggles whether a source's loop fetches.
func (s *SQLStore) SetSourceActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx, s.rebind("UPDATE sources SET active = ? WHERE id = ?"), active, id)
	if err != nil {
		return fmt.Errorf("updating source %d: %w", id, err)
	}
	return expectOne(res, fmt.Sprintf("source %d", id))
}

// UpdateSourcePrompts replaces the provided prompt templates.
func (s *SQLStore) UpdateSourcePrompts(ctx context.Context, id int64, p model.SourcePrompts) error {
	var (
		sets []string
		args []any
	)
	if p.Extraction != nil {
		sets = append(sets, "extraction_prompt = ?")
		args = append(args, *p.Extraction)
	}
	if p.Narrative != nil {
		sets = append(sets, "narrative_prompt = ?")
		args = append(args, *p.Narrative)
	}
	if p.Enrichment != nil {
		sets = append(sets, "enrichment_prompt = ?")
		args = append(args, *p.Enrichment)
	}
	if len(sets) == 0 {
		_, err := s.GetSource(ctx, id)
		return err
	}

	args = append(args, id)
	query := "UPDATE sources SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("updating prompts for source %d: %w", id, err)
	}
	return expectOne(res, fmt.Sprintf("source %d", id))
}
