package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"taskjar/internal/service"
	"taskjar/internal/validation"
)

// errorResponse is the JSON body for all error replies. Reason carries a
// machine-readable code where callers need to distinguish failure modes
// (the kid-login flow) and is omitted elsewhere.
type errorResponse struct {
	Error             string `json:"error"`
	Reason            string `json:"reason,omitempty"`
	RetryAfterSeconds int    `json:"retryAfterSeconds,omitempty"`
}

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("Error encoding response: %v", err)
		}
	}
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// respondWithServiceError maps business-rule failures to HTTP statuses.
// Anything unrecognized is a storage or programming fault: logged and
// returned as a generic 500 without detail.
func respondWithServiceError(w http.ResponseWriter, err error) {
	var validationErr validation.ValidationError
	var lockedErr *service.AccountLockedError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &lockedErr):
		writeJSON(w, http.StatusUnauthorized, errorResponse{
			Error:             lockedErr.Error(),
			Reason:            "locked",
			RetryAfterSeconds: int(lockedErr.RetryAfter.Seconds()) + 1,
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, service.ErrInvalidPin):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid pin", Reason: "invalid_pin"})
	case errors.Is(err, service.ErrNoPinConfigured):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "no pin configured", Reason: "no_pin"})
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrChildNotFound),
		errors.Is(err, service.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email already taken")
	default:
		log.Printf("Internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON parses a request body into dst, rejecting malformed JSON
func decodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return validation.ValidationError{Field: "body", Message: "invalid JSON payload"}
	}
	return nil
}
