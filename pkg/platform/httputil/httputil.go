// Package httputil writes JSON responses and domain errors for the handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "canopy/pkg/domain-errors"
)

type errorResponse struct {
	Error            string `json:"error"`
	Code             uint32 `json:"code,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to its HTTP status and writes the error body.
// Internal errors never leak their description.
func WriteError(w http.ResponseWriter, err error) {
	WriteStoreError(w, err, 0)
}

// WriteStoreError is WriteError plus the owning store's numeric error code.
// A zero code is omitted.
func WriteStoreError(w http.ResponseWriter, err error, code uint32) {
	kind := dErrors.CodeOf(err)
	resp := errorResponse{Error: string(kind), Code: code}
	if kind != dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) {
			resp.ErrorDescription = de.Message
		} else {
			resp.ErrorDescription = err.Error()
		}
	}
	WriteJSON(w, dErrors.ToHTTPStatus(kind), resp)
}
