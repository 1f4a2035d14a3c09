package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"species-catalog/internal/domain/species"
)

type SpeciesRepo struct {
	db *sql.DB
}

func NewSpeciesRepo(db *DB) *SpeciesRepo {
	return &SpeciesRepo{db: db.DB}
}

const speciesColumns = `
	id, author,
	scientific_name, common_name, kingdom,
	endangered, total_population, image, description`

func (r *SpeciesRepo) Create(ctx context.Context, s species.Species) (species.Species, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO species (
			author,
			scientific_name, common_name, kingdom,
			endangered, total_population, image, description
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`,
		s.AuthorID,
		s.ScientificName,
		nullable(s.CommonName),
		string(s.Kingdom),
		nullable(s.Endangered),
		nullable(s.TotalPopulation),
		nullable(s.Image),
		nullable(s.Description),
	)
	if err := row.Scan(&s.ID); err != nil {
		return species.Species{}, err
	}
	return s, nil
}

func (r *SpeciesRepo) Update(ctx context.Context, s species.Species) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE species
		SET
			scientific_name = $1,
			common_name = $2,
			kingdom = $3,
			endangered = $4,
			total_population = $5,
			image = $6,
			description = $7
		WHERE id = $8
	`,
		s.ScientificName,
		nullable(s.CommonName),
		string(s.Kingdom),
		nullable(s.Endangered),
		nullable(s.TotalPopulation),
		nullable(s.Image),
		nullable(s.Description),
		s.ID,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return species.ErrNotFound
	}
	return nil
}

func (r *SpeciesRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM species WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return species.ErrNotFound
	}
	return nil
}

func (r *SpeciesRepo) GetByID(ctx context.Context, id int64) (species.Species, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+speciesColumns+` FROM species WHERE id = $1`, id)

	s, err := scanSpecies(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return species.Species{}, species.ErrNotFound
		}
		return species.Species{}, err
	}
	return s, nil
}

func (r *SpeciesRepo) List(ctx context.Context, f species.ListFilter) ([]species.Species, error) {
	var (
		where []string
		args  []any
	)
	// arg agrega un parámetro y devuelve su placeholder.
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		p := arg(likePattern(q))
		where = append(where, fmt.Sprintf(
			`(LOWER(scientific_name) LIKE %[1]s ESCAPE '\' OR LOWER(COALESCE(common_name, '')) LIKE %[1]s ESCAPE '\')`, p))
	}
	if f.Kingdom != "" {
		where = append(where, "kingdom = "+arg(string(f.Kingdom)))
	}
	if a := strings.TrimSpace(f.AuthorID); a != "" {
		where = append(where, "author = "+arg(a))
	}

	query := `SELECT ` + speciesColumns + ` FROM species`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id ASC"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]species.Species, 0)
	for rows.Next() {
		s, err := scanSpecies(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSpecies(sc scanner) (species.Species, error) {
	var (
		s           species.Species
		kingdom     string
		common      sql.NullString
		endangered  sql.NullBool
		population  sql.NullInt64
		image       sql.NullString
		description sql.NullString
	)
	if err := sc.Scan(
		&s.ID,
		&s.AuthorID,
		&s.ScientificName,
		&common,
		&kingdom,
		&endangered,
		&population,
		&image,
		&description,
	); err != nil {
		return species.Species{}, err
	}

	s.Kingdom = species.Kingdom(kingdom)
	s.CommonName = stringPtr(common)
	s.Image = stringPtr(image)
	s.Description = stringPtr(description)
	if endangered.Valid {
		v := endangered.Bool
		s.Endangered = &v
	}
	if population.Valid {
		v := population.Int64
		s.TotalPopulation = &v
	}
	return s, nil
}

// nullable pasa nil como NULL y si no el valor (sin punteros al driver).
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// likePattern arma "%q%" en minúsculas escapando los comodines de LIKE.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(q)) + "%"
}
