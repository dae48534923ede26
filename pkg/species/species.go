// Package species is the read-mostly catalogue of animal species pets can
// belong to. The catalogue is seeded once from an embedded YAML file.
package species

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no species matches the id
var ErrNotFound = errors.New("species not found")

// Species is a catalogue entry
type Species struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ImageURL *string `json:"imageUrl"`
}

// Store persists species
type Store interface {
	// List returns all species ordered by name
	List(ctx context.Context) ([]*Species, error)
	Get(ctx context.Context, id string) (*Species, error)
	Count(ctx context.Context) (int, error)
	// Insert assigns IDs and persists all entries in one operation
	Insert(ctx context.Context, entries []*Species) error
}
