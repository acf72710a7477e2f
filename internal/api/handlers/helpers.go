// Package handlers implements the agentd HTTP handlers.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentd", "api")

const (
	// HeaderChatID is the request header that selects the chat session.
	// Requests without it share the default session.
	HeaderChatID = "X-Chat-ID"
	// DefaultChatID is the session used when the caller sends no HeaderChatID.
	DefaultChatID = "default"

	// StatusError is the response status of a failed request.
	StatusError = "error"

	// KindValidationError classifies requests rejected before the run starts.
	KindValidationError = "ValidationError"
	// KindSystemError classifies infrastructure failures that abort the run.
	KindSystemError = "SystemError"
)

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.KV(xlog.ERROR,
			"status", "failed_to_encode_response",
			"err", err.Error(),
		)
	}
}

func writeError(w http.ResponseWriter, statusCode int, kind, message string) {
	writeJSON(w, statusCode, &ExecuteResponse{
		Status: StatusError,
		Error:  &ErrorInfo{Kind: kind, Message: message},
	})
}
