package handler

// RESPONSE HELPERS:
// The guestbook only speaks HTML, so there are two shapes of response: a
// rendered page, or a bare failure for errors that are not shown to visitors.

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/guestbook/internal/apperror"
)

// writeHTML sends an already-rendered page.
func writeHTML(w http.ResponseWriter, logger *slog.Logger, status int, body *bytes.Buffer) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := body.WriteTo(w); err != nil {
		// Headers are already out; all we can do is log.
		logger.Warn("failed to write response", slog.String("error", err.Error()))
	}
}

// writeFailure maps an error to a generic failed-request response.
//
// ERROR MAPPING:
//   - apperror.ErrConnection → 503 (only reached when a caller chooses not to
//     render the connection error page)
//   - everything else, storage failures included → 500
//
// The raw error is logged but never written to the client.
func writeFailure(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, apperror.ErrConnection) {
		status = http.StatusServiceUnavailable
	}

	logger.Error("request failed",
		slog.Int("status", status),
		slog.String("error", err.Error()),
	)
	http.Error(w, http.StatusText(status), status)
}
