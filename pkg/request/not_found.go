package request

import (
	"log/slog"
	"net/http"

	"github.com/Jacobbrewer1/warden/pkg/logging"
)

// NotFoundHandler returns a handler that returns a 404 response.
func NotFoundHandler(l *slog.Logger) http.HandlerFunc {
	return messageHandler(l, http.StatusNotFound, "Not found")
}

// MethodNotAllowedHandler returns a handler that returns a 405 response.
func MethodNotAllowedHandler(l *slog.Logger) http.HandlerFunc {
	return messageHandler(l, http.StatusMethodNotAllowed, "Method not allowed")
}

func messageHandler(l *slog.Logger, status int, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(l, w, status, NewMessage(message))
	}
}

// WriteJSON writes v as the JSON body of a response with the given status.
func WriteJSON(l *slog.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		l.Error("Error encoding response", slog.String(logging.KeyError, err.Error()))
	}
}
