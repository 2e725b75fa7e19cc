package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"cmcs/claims"
)

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondClaimError maps the engine's typed errors onto HTTP statuses.
// Every distinct failure keeps its own message so the client can show
// why a claim did not move.
func respondClaimError(w http.ResponseWriter, err error) {
	var verr *claims.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  verr.Message,
			Reason: string(verr.Reason),
		})
		return
	}

	switch {
	case errors.Is(err, claims.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, claims.ErrForbidden), errors.Is(err, claims.ErrSameActor):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, claims.ErrInvalidState), errors.Is(err, claims.ErrConcurrentModification):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, claims.ErrMissingReason),
		errors.Is(err, claims.ErrDuplicatePeriod),
		errors.Is(err, claims.ErrAmountOverLimit):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
