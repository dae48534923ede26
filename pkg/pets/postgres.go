package pets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore implements Store on the pets table
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store backed by an open connection pool
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const petColumns = `id, owner_id, name, species_id, birth_date, breed, expected_life_span_years`

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID string) ([]*Pet, error) {
	if _, err := uuid.Parse(ownerID); err != nil {
		return []*Pet{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+petColumns+` FROM pets WHERE owner_id = $1 ORDER BY name ASC, id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}
	defer rows.Close()

	list := make([]*Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}
	return list, nil
}

func (s *PostgresStore) GetByOwner(ctx context.Context, ownerID, id string) (*Pet, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	if _, err := uuid.Parse(ownerID); err != nil {
		return nil, ErrNotFound
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+petColumns+` FROM pets WHERE id = $1 AND owner_id = $2`, id, ownerID)
	p, err := scanPet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (s *PostgresStore) Create(ctx context.Context, pet *Pet) error {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pets (`+petColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, pet.OwnerID, pet.Name, pet.SpeciesID, pet.BirthDate.String(), pet.Breed, pet.ExpectedLifeSpanYears)
	if err != nil {
		return fmt.Errorf("failed to create pet: %w", err)
	}
	pet.ID = id
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPet(row rowScanner) (*Pet, error) {
	var p Pet
	var lifeSpan sql.NullInt64
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.SpeciesID, &p.BirthDate.Time, &p.Breed, &lifeSpan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan pet: %w", err)
	}
	if lifeSpan.Valid {
		years := int(lifeSpan.Int64)
		p.ExpectedLifeSpanYears = &years
	}
	return &p, nil
}
