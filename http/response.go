package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sagarc03/assetgate"
)

// WriteText writes a short plain text response with the given cache directive.
func WriteText(w http.ResponseWriter, code int, cacheControl, body string) {
	h := w.Header()
	h.Set("Cache-Control", cacheControl)
	h.Set("Content-Type", "text/plain")
	w.WriteHeader(code)
	if _, err := io.WriteString(w, body); err != nil {
		slog.Debug("failed to write response body", "error", err)
	}
}

// HandleError writes the response for a failed storage lookup. Error
// details never reach the client.
func HandleError(w http.ResponseWriter, err error) {
	if errors.Is(err, assetgate.ErrNotFound) || errors.Is(err, assetgate.ErrInvalidInput) {
		WriteText(w, http.StatusNotFound, CacheControlMiss, "Not Found")
		return
	}

	slog.Debug("storage error", "error", err, "kind", assetgate.KindOf(err))

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = io.WriteString(w, "Error")
}
