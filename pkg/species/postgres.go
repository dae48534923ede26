package species

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// PostgresStore implements Store on the species table
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store backed by an open connection pool
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) List(ctx context.Context) ([]*Species, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, image_url FROM species ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list species: %w", err)
	}
	defer rows.Close()

	list := make([]*Species, 0)
	for rows.Next() {
		sp, err := scanSpecies(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list species: %w", err)
	}
	return list, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Species, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `SELECT id, name, image_url FROM species WHERE id = $1`, id)
	sp, err := scanSpecies(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sp, err
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM species`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count species: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Insert(ctx context.Context, entries []*Species) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO species (id, name, image_url) VALUES ($1, $2, $3)`)
	if err != nil {
		return fmt.Errorf("failed to prepare species insert: %w", err)
	}
	defer stmt.Close()

	ids := make([]string, len(entries))
	for i, sp := range entries {
		ids[i] = uuid.NewString()
		if _, err := stmt.ExecContext(ctx, ids[i], sp.Name, sp.ImageURL); err != nil {
			return fmt.Errorf("failed to insert species %q: %w", sp.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit species: %w", err)
	}
	for i, sp := range entries {
		sp.ID = ids[i]
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSpecies(row rowScanner) (*Species, error) {
	var sp Species
	var image sql.NullString
	if err := row.Scan(&sp.ID, &sp.Name, &image); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan species: %w", err)
	}
	if image.Valid {
		sp.ImageURL = &image.String
	}
	return &sp, nil
}
