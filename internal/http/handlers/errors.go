package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jmylchreest/leadchat-api/internal/chat"
	"github.com/jmylchreest/leadchat-api/internal/validate"
)

// ErrorBody is the JSON error shape of the raw chat endpoint.
type ErrorBody struct {
	Error string `json:"error"`
}

const (
	msgInvalidJSON   = "Invalid request body."
	msgNotConfigured = "The assistant is not configured. Please try again later."
	msgInternal      = "Something went wrong. Please try again later."
)

// ErrorInfo is the client-facing rendering of a chat error.
type ErrorInfo struct {
	StatusCode  int
	UserMessage string
}

// ExtractErrorInfo maps a chat service error to a status code and a
// message that is safe to show to the visitor.
func ExtractErrorInfo(err error) ErrorInfo {
	var verr *validate.ValidationError
	switch {
	case errors.As(err, &verr):
		return ErrorInfo{StatusCode: http.StatusBadRequest, UserMessage: verr.Message}
	case errors.Is(err, chat.ErrNotConfigured):
		return ErrorInfo{StatusCode: http.StatusInternalServerError, UserMessage: msgNotConfigured}
	default:
		return ErrorInfo{StatusCode: http.StatusInternalServerError, UserMessage: msgInternal}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorBody{Error: msg})
}
