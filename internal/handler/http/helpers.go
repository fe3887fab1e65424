package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/apperr"
)

// respondWithError sends a JSON error body.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON sends payload as a JSON response.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrInsufficientStock):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError maps a service error to its status code. Domain
// errors carry a client-safe message; anything else is reported with
// fallback.
func respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	statusCode := mapErrorToStatusCode(err)
	if statusCode == http.StatusInternalServerError {
		log.Error().Err(err).Msg(fallback)
		respondWithError(w, statusCode, fallback)
		return
	}

	message, ok := apperr.Message(err)
	if !ok {
		message = fallback
	}
	log.Warn().Err(err).Int("status", statusCode).Msg(fallback)
	respondWithError(w, statusCode, message)
}

func parseUUIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	param := chi.URLParam(r, name)
	id, err := uuid.FromString(param)
	if err != nil {
		log.Warn().Err(err).Str(name, param).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid "+name+" parameter")
		return uuid.Nil, false
	}
	return id, true
}

// queryInt returns the integer query value, or 0 when it is absent or
// malformed.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}
