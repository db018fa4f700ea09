package main

import (
	"encoding/json"
	"errors"
	"net/http"
)

type errorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON writes v as the response body.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		FromContext(r.Context()).WithError(err).Error("error encoding response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError maps err onto a status code and a {type, message} body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *EntityNotFoundError
	var invalid *ValidationError
	switch {
	case errors.As(err, &notFound):
		writeJSON(w, r, http.StatusNotFound, errorResponse{"EntityNotFoundException", notFound.Error()})
	case errors.Is(err, ErrAccessDenied):
		writeJSON(w, r, http.StatusForbidden, errorResponse{"AccessDeniedException", "Access is denied"})
	case errors.As(err, &invalid):
		writeJSON(w, r, http.StatusBadRequest, errorResponse{"ValidationException", invalid.Error()})
	default:
		FromContext(r.Context()).WithError(err).Error("unhandled failure")
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{"InternalServerError", "internal server error"})
	}
}
