package http

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// respondError emits a short human-readable message. Internal details
// stay in the server logs.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Message: message})
}
