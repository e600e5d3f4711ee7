package utils

import (
	"encoding/json"
	"net/http"
)

// LoginPath is where the UI sends a shopper without a valid session.
const LoginPath = "/login"

func WriteJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func WriteJSONError(w http.ResponseWriter, message string, code int) {
	WriteJSON(w, code, map[string]string{"error": message})
}

// WriteUnauthorized answers 401 and tells the UI to redirect to login.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":    message,
		"redirect": LoginPath,
	})
}
