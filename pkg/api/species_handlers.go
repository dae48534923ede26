package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pethealth/pethealth/pkg/httputil"
	"github.com/pethealth/pethealth/pkg/species"
)

// SpeciesReader is the read side of the species catalogue
type SpeciesReader interface {
	List(ctx context.Context) ([]*species.Species, error)
	Get(ctx context.Context, id string) (*species.Species, error)
}

// SpeciesHandlers serves the public species catalogue
type SpeciesHandlers struct {
	service SpeciesReader
}

func NewSpeciesHandlers(service SpeciesReader) *SpeciesHandlers {
	return &SpeciesHandlers{service: service}
}

// RegisterRoutes registers species routes
func (h *SpeciesHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/species", h.listSpecies).Methods(http.MethodGet)
	router.HandleFunc("/species/{id}", h.getSpecies).Methods(http.MethodGet)
}

// listSpecies handles GET /species
func (h *SpeciesHandlers) listSpecies(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, list)
}

// getSpecies handles GET /species/{id}
func (h *SpeciesHandlers) getSpecies(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	sp, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, sp)
}
