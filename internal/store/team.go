package store

import (
	"context"
	"fmt"

	"github.com/amishk599/pitchdesk/internal/model"
)

const teamColumns = `id, name, title, skills, description, profile_url, hourly_rate, experience_years, specialization, active`

// ListTeam returns team profiles ordered by name.
func (s *SQLStore) ListTeam(ctx context.Context, activeOnly bool) ([]model.TeamProfile, error) {
	query := "SELECT " + teamColumns + " FROM team_profiles"
	var args []any
	if activeOnly {
		query += " WHERE active = ?"
		args = append(args, true)
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing team: %w", err)
	}
	defer rows.Close()

	var out []model.TeamProfile
	for rows.Next() {
		var p model.TeamProfile
		if err := rows.Scan(&p.ID, &p.Name, &p.Title, &p.Skills, &p.Description, &p.ProfileURL,
			&p.HourlyRate, &p.ExperienceYears, &p.Specialization, &p.Active); err != nil {
			return nil, fmt.Errorf("scanning team profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AddTeamMember inserts a profile and returns it with its ID.
func (s *SQLStore) AddTeamMember(ctx context.Context, p model.TeamProfile) (model.TeamProfile, error) {
	if p.Name == "" {
		return model.TeamProfile{}, fmt.Errorf("team member name is required: %w", model.ErrInvalidInput)
	}
	err := s.db.QueryRowContext(ctx, s.rebind(`INSERT INTO team_profiles
		(name, title, skills, description, profile_url, hourly_rate, experience_years, specialization, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		p.Name, p.Title, p.Skills, p.Description, p.ProfileURL, p.HourlyRate, p.ExperienceYears, p.Specialization, p.Active,
	).Scan(&p.ID)
	if err != nil {
		return model.TeamProfile{}, fmt.Errorf("adding team member %q: %w", p.Name, err)
	}
	return p, nil
}

// UpdateTeamMember overwrites every field of the profile with p.ID.
func (s *SQLStore) UpdateTeamMember(ctx context.Context, p model.TeamProfile) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE team_profiles SET
		name = ?, title = ?, skills = ?, description = ?, profile_url = ?,
		hourly_rate = ?, experience_years = ?, specialization = ?, active = ?
		WHERE id = ?`),
		p.Name, p.Title, p.Skills, p.Description, p.ProfileURL,
		p.HourlyRate, p.ExperienceYears, p.Specialization, p.Active, p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating team member %d: %w", p.ID, err)
	}
	return expectOne(res, fmt.Sprintf("team member %d", p.ID))
}
