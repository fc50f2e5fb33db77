package adminserver

import (
	"encoding/json"
	"net/http"
)

// responseBuilder centralizes the admin surface's JSON encoding so every
// handler reports errors the same way.
type responseBuilder struct{}

func (responseBuilder) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "error encoding response", http.StatusInternalServerError)
	}
}

func (b responseBuilder) Error(w http.ResponseWriter, status int, message string) {
	b.JSON(w, status, struct {
		Error   string `json:"error"`
		Status  int    `json:"status"`
		Message string `json:"message"`
	}{
		Error:   http.StatusText(status),
		Status:  status,
		Message: message,
	})
}
