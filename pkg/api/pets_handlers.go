package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pethealth/pethealth/pkg/auth"
	"github.com/pethealth/pethealth/pkg/httputil"
	"github.com/pethealth/pethealth/pkg/middleware"
	"github.com/pethealth/pethealth/pkg/pets"
)

// PetService is the owner-scoped pets API
type PetService interface {
	ListForUser(ctx context.Context, userID string) ([]*pets.Pet, error)
	GetForUser(ctx context.Context, userID, id string) (*pets.Pet, error)
	CreateForUser(ctx context.Context, userID string, in pets.CreateInput) (*pets.Pet, error)
}

type createPetRequest struct {
	Name                  string `json:"name" validate:"required,min=1"`
	SpeciesID             string `json:"speciesId" validate:"required,uuid4"`
	BirthDate             string `json:"birthDate" validate:"isodate"`
	Breed                 string `json:"breed" validate:"required,min=1"`
	ExpectedLifeSpanYears *int   `json:"expectedLifeSpanYears" validate:"omitempty,min=1"`
}

// PetHandlers serves pets of the authenticated user. Every route sits
// behind the session guard.
type PetHandlers struct {
	service PetService
	guard   func(http.Handler) http.Handler
}

func NewPetHandlers(service PetService, guard func(http.Handler) http.Handler) *PetHandlers {
	return &PetHandlers{service: service, guard: guard}
}

// RegisterRoutes registers pet routes on a guarded subrouter
func (h *PetHandlers) RegisterRoutes(router *mux.Router) {
	sub := router.PathPrefix("/pets").Subrouter()
	sub.Use(h.guard)
	sub.HandleFunc("", h.listPets).Methods(http.MethodGet)
	sub.HandleFunc("", h.createPet).Methods(http.MethodPost)
	sub.HandleFunc("/{id}", h.getPet).Methods(http.MethodGet)
}

// listPets handles GET /pets
func (h *PetHandlers) listPets(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, auth.MsgMissingToken)
		return
	}

	list, err := h.service.ListForUser(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, list)
}

// getPet handles GET /pets/{id}
func (h *PetHandlers) getPet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, auth.MsgMissingToken)
		return
	}
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	pet, err := h.service.GetForUser(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, pet)
}

// createPet handles POST /pets
func (h *PetHandlers) createPet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, auth.MsgMissingToken)
		return
	}

	var req createPetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	// Validated by the isodate rule above
	birthDate, err := pets.ParseDate(req.BirthDate)
	if err != nil {
		httputil.WriteBadRequest(w, msgInvalidBirthDate)
		return
	}

	pet, err := h.service.CreateForUser(r.Context(), user.ID, pets.CreateInput{
		Name:                  req.Name,
		SpeciesID:             req.SpeciesID,
		BirthDate:             birthDate,
		Breed:                 req.Breed,
		ExpectedLifeSpanYears: req.ExpectedLifeSpanYears,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteCreated(w, pet)
}
