package rest

import (
	"encoding/json"
	"net/http"

	"github.com/hromada-tools/backoffice/internal/application"
)

// WriteJSON writes v as a JSON response body.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// DecodeJSON decodes the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return application.NewInvalidInputError("malformed request body: " + err.Error())
	}
	return nil
}
