package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"species-catalog/internal/domain/profiles"
)

type ProfilesRepo struct {
	db *sql.DB
}

func NewProfilesRepo(db *DB) *ProfilesRepo {
	return &ProfilesRepo{db: db.DB}
}

func (r *ProfilesRepo) GetByID(ctx context.Context, id string) (profiles.Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return profiles.Profile{}, profiles.ErrNotFound
	}

	var p profiles.Profile
	err := r.db.QueryRowContext(ctx, `SELECT id, display_name FROM profiles WHERE id = $1`, id).
		Scan(&p.ID, &p.DisplayName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return profiles.Profile{}, profiles.ErrNotFound
		}
		return profiles.Profile{}, err
	}
	return p, nil
}

func (r *ProfilesRepo) FindDisplayNames(ctx context.Context, id string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT display_name FROM profiles WHERE id = $1`, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0, 1)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (r *ProfilesRepo) Upsert(ctx context.Context, p profiles.Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, display_name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET display_name = excluded.display_name
	`, p.ID, p.DisplayName)
	return err
}
