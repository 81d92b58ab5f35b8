// Package handler contains HTTP request handlers for the guestbook.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (method, form fields)
// 2. Call the service layer
// 3. Write the HTTP response (status code, headers, body)
//
// Handlers hold no business rules; trimming and validation live in the service.
package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/guestbook/internal/apperror"
	"github.com/sakif/guestbook/internal/service"
	"github.com/sakif/guestbook/internal/view"
)

// GuestbookHandler serves the single guestbook page.
type GuestbookHandler struct {
	service *service.GuestbookService
	view    *view.Renderer
	logger  *slog.Logger
}

// NewGuestbookHandler creates a GuestbookHandler.
func NewGuestbookHandler(svc *service.GuestbookService, renderer *view.Renderer, logger *slog.Logger) *GuestbookHandler {
	return &GuestbookHandler{
		service: svc,
		view:    renderer,
		logger:  logger,
	}
}

// HandleGuestbook runs one pass of the request flow.
//
// HTTP: GET / and POST /
//
// FLOW:
//  1. Connect. On failure render the connection error page (200) and stop.
//  2. Ensure the schema (done inside Open).
//  3. POST: submit. A valid submission redirects to the same path without
//     its query string and stops; an empty name or message falls through.
//  4. List entries newest first and render the page.
//
// The connection opened in step 1 is released on every exit path.
func (h *GuestbookHandler) HandleGuestbook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.service.Open(ctx)
	if err != nil {
		if errors.Is(err, apperror.ErrConnection) {
			h.renderConnectionError(w, err)
			return
		}
		writeFailure(w, h.logger, err)
		return
	}
	defer sess.Close()

	if r.Method == http.MethodPost {
		_, err := sess.Submit(ctx, r.PostFormValue("name"), r.PostFormValue("message"))
		switch {
		case err == nil:
			http.Redirect(w, r, redirectTarget(r), http.StatusFound)
			return
		case errors.Is(err, apperror.ErrValidation):
			// Silently ignored; the visitor just sees the list again.
		default:
			writeFailure(w, h.logger, err)
			return
		}
	}

	entries, err := sess.List(ctx)
	if err != nil {
		writeFailure(w, h.logger, err)
		return
	}

	// Render into a buffer first so a template error can still become a 500.
	var buf bytes.Buffer
	if err := h.view.Page(&buf, entries); err != nil {
		h.logger.Error("failed to render page", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, h.logger, http.StatusOK, &buf)
}

func (h *GuestbookHandler) renderConnectionError(w http.ResponseWriter, err error) {
	reason := err.Error()
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		reason = appErr.Message
	}

	var buf bytes.Buffer
	if err := h.view.ConnectionError(&buf, reason); err != nil {
		h.logger.Error("failed to render connection error", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, h.logger, http.StatusOK, &buf)
}

// redirectTarget is the request path with any query string dropped.
func redirectTarget(r *http.Request) string {
	if p := r.URL.EscapedPath(); p != "" {
		return p
	}
	return "/"
}
