package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"exceltoquiz/internal/backend"
	"exceltoquiz/internal/domain"
)

// StatusFor maps an error kind to the response status.
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindFileFormat:
		return http.StatusUnprocessableEntity
	case domain.KindAuth:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindNetwork, domain.KindDataShape:
		return http.StatusBadGateway
	}
	if errors.Is(err, backend.ErrRejected) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": domain.UserMessage(err)})
}
