// Package pets manages pets owned by registered users. Every operation is
// scoped to an owner; a pet owned by someone else is indistinguishable from
// one that does not exist.
package pets

import (
	"context"
	"errors"
	"time"
)

// DateLayout is the wire and storage format of BirthDate
const DateLayout = "2006-01-02"

// ErrNotFound is returned when no pet matches the id for that owner
var ErrNotFound = errors.New("pet not found")

// Date is a calendar date without time of day, encoded as "YYYY-MM-DD"
type Date struct {
	time.Time
}

// ParseDate parses a strict YYYY-MM-DD date
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// Pet is an animal owned by a user
type Pet struct {
	ID                    string `json:"id"`
	OwnerID               string `json:"ownerId"`
	Name                  string `json:"name"`
	SpeciesID             string `json:"speciesId"`
	BirthDate             Date   `json:"birthDate"`
	Breed                 string `json:"breed"`
	ExpectedLifeSpanYears *int   `json:"expectedLifeSpanYears"`
}

// Store persists pets
type Store interface {
	ListByOwner(ctx context.Context, ownerID string) ([]*Pet, error)
	// GetByOwner returns ErrNotFound unless the pet exists and belongs to ownerID
	GetByOwner(ctx context.Context, ownerID, id string) (*Pet, error)
	// Create assigns the ID and persists the pet
	Create(ctx context.Context, pet *Pet) error
}
