// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here.
//
// Error responses always use the same envelope, so API consumers can
// rely on one stable shape:
//
//	{ "error": "Category not found" }
//	{ "error": "Validation failed", "details": "..." }
package response

import (
	"encoding/json"
	"net/http"

	"github.com/arjun-verma/catalog-api/internal/contract"
)

// Response is the standard error envelope. Details is populated only
// for validation faults, where the extra diagnostic is intentional.
type Response struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Error wraps a message into the standard envelope.
func Error(message string) Response {
	return Response{Error: message}
}

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// data can be any Go value — a record, a slice, or a Response envelope.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// json.NewEncoder(w) streams directly into w, avoiding an
	// intermediate buffer. Encode() appends a newline after the JSON.
	return json.NewEncoder(w).Encode(data)
}

// Fault maps a classified runtime fault onto the contract's error
// envelope and status code. Used by the response middleware's recover
// path and by handlers surfacing storage errors.
func Fault(err error) (int, Response) {
	switch contract.ClassifyFault(err) {
	case contract.FaultValidation:
		return http.StatusUnprocessableEntity,
			Response{Error: "Validation failed", Details: err.Error()}
	case contract.FaultForeignKey:
		return http.StatusUnprocessableEntity,
			Error("Invalid reference to related entity")
	case contract.FaultDuplicate:
		return http.StatusUnprocessableEntity,
			Error("Duplicate entry")
	default:
		return http.StatusInternalServerError,
			Error("Internal server error")
	}
}
