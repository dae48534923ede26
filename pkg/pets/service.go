package pets

import (
	"context"
	"errors"
	"fmt"

	"github.com/pethealth/pethealth/pkg/species"
	"github.com/pethealth/pethealth/pkg/users"
)

var (
	// ErrOwnerNotFound means the authenticated user vanished before the pet was created
	ErrOwnerNotFound = errors.New("owner not found")
	// ErrUnknownSpecies means the request named a species that does not exist
	ErrUnknownSpecies = errors.New("species not found")
)

// OwnerLookup finds users. users.Store satisfies it.
type OwnerLookup interface {
	FindByID(ctx context.Context, id string) (*users.User, error)
}

// SpeciesLookup finds species. *species.Service satisfies it.
type SpeciesLookup interface {
	Get(ctx context.Context, id string) (*species.Species, error)
}

// CreateInput is a validated request to create a pet
type CreateInput struct {
	Name                  string
	SpeciesID             string
	BirthDate             Date
	Breed                 string
	ExpectedLifeSpanYears *int
}

// Service implements the owner-scoped pet operations
type Service struct {
	store   Store
	owners  OwnerLookup
	species SpeciesLookup
}

// NewService creates the pets service
func NewService(store Store, owners OwnerLookup, species SpeciesLookup) *Service {
	return &Service{store: store, owners: owners, species: species}
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]*Pet, error) {
	return s.store.ListByOwner(ctx, userID)
}

func (s *Service) GetForUser(ctx context.Context, userID, id string) (*Pet, error) {
	return s.store.GetByOwner(ctx, userID, id)
}

// CreateForUser checks that the owner and species exist, then stores the pet
func (s *Service) CreateForUser(ctx context.Context, userID string, in CreateInput) (*Pet, error) {
	if _, err := s.owners.FindByID(ctx, userID); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("failed to load owner: %w", err)
	}

	if _, err := s.species.Get(ctx, in.SpeciesID); err != nil {
		if errors.Is(err, species.ErrNotFound) {
			return nil, ErrUnknownSpecies
		}
		return nil, fmt.Errorf("failed to load species: %w", err)
	}

	pet := &Pet{
		OwnerID:               userID,
		Name:                  in.Name,
		SpeciesID:             in.SpeciesID,
		BirthDate:             in.BirthDate,
		Breed:                 in.Breed,
		ExpectedLifeSpanYears: in.ExpectedLifeSpanYears,
	}
	if err := s.store.Create(ctx, pet); err != nil {
		return nil, err
	}
	return pet, nil
}
