package api

import (
	"errors"
	"net/http"

	"github.com/pethealth/pethealth/pkg/auth"
	"github.com/pethealth/pethealth/pkg/httputil"
	"github.com/pethealth/pethealth/pkg/observability"
	"github.com/pethealth/pethealth/pkg/pets"
	"github.com/pethealth/pethealth/pkg/species"
)

const (
	msgSpeciesNotFound = "Species not found"
	msgPetNotFound     = "Pet not found"
	msgOwnerNotFound   = "Owner not found"
)

// writeServiceError maps domain errors to status codes. Anything unrecognised
// is logged and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		conflictErr *auth.ConflictError
		authErr     *auth.AuthError
		inputErr    *auth.InputError
	)

	switch {
	case errors.As(err, &conflictErr):
		httputil.WriteConflict(w, conflictErr.Message)
	case errors.As(err, &authErr):
		httputil.WriteUnauthorized(w, authErr.Message)
	case errors.As(err, &inputErr):
		httputil.WriteBadRequest(w, inputErr.Message)
	case errors.Is(err, pets.ErrUnknownSpecies):
		httputil.WriteBadRequest(w, msgSpeciesNotFound)
	case errors.Is(err, pets.ErrNotFound):
		httputil.WriteNotFound(w, msgPetNotFound)
	case errors.Is(err, pets.ErrOwnerNotFound):
		httputil.WriteNotFound(w, msgOwnerNotFound)
	case errors.Is(err, species.ErrNotFound):
		httputil.WriteNotFound(w, msgSpeciesNotFound)
	default:
		observability.FromContext(r.Context()).
			WithError(err).
			WithField("method", r.Method).
			WithField("path", r.URL.Path).
			Error("request failed")
		httputil.WriteInternalError(w)
	}
}
