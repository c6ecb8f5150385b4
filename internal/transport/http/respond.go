package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"pathfinder-service/internal/domain"
)

type errorPayload struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	payload := errorPayload{Message: err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		payload.Fields = verr.Fields
	}
	if status == http.StatusInternalServerError {
		log.Printf("http: %v", err)
		payload.Message = "internal error"
	}
	writeJSON(w, status, payload)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidQuestion),
		errors.Is(err, domain.ErrInvalidBlock),
		errors.Is(err, domain.ErrAnswerInvalid),
		errors.Is(err, domain.ErrAnswerTypeMismatch),
		errors.Is(err, domain.ErrOptionNotFound):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrNoItems):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrItemExists),
		errors.Is(err, domain.ErrPhaseOrder),
		errors.Is(err, domain.ErrCaptureState),
		errors.Is(err, domain.ErrGameState),
		errors.Is(err, domain.ErrNotPresenting):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeDecodeError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorPayload{Message: err.Error()})
}
