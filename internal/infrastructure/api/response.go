package api

import (
	"encoding/json"
	"net/http"
)

// maxBodyBytes caps every request body read by this package
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type okResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
