// Package api implements HTTP handlers for the currency converter.
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// ErrorResponse represents an error response. The UI displays Message.
type ErrorResponse struct {
	Error   string `json:"error" example:"Bad Gateway"`
	Message string `json:"message" example:"Could not retrieve rates to convert from EUR to USD"`
}

// writeJSON writes a JSON response with the given status code. The body is
// encoded before the header is sent, so an unencodable value becomes a 500
// instead of a success status with an empty body.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(ErrorResponse{
			Error:   http.StatusText(status),
			Message: "Could not encode response",
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// writeError writes an ErrorResponse using the status text as the error field.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: http.StatusText(status), Message: message})
}
