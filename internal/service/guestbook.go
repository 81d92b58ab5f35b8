// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// GuestbookService knows nothing about HTTP or SQL. It receives a
// repository.Connector (interface) so tests can hand it an in-memory fake.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/sakif/guestbook/internal/apperror"
	"github.com/sakif/guestbook/internal/metrics"
	"github.com/sakif/guestbook/internal/model"
	"github.com/sakif/guestbook/internal/repository"
)

var tracer = otel.Tracer("github.com/sakif/guestbook/internal/service")

// GuestbookService opens request-scoped sessions against the storage backend.
//
// SCHEMA CHECK:
// The entries table is ensured on the first session that gets a connection and
// remembered afterwards. A failed check is not remembered, so the next request
// tries again.
type GuestbookService struct {
	connector   repository.Connector
	logger      *slog.Logger
	schemaReady atomic.Bool
}

// NewGuestbookService creates a GuestbookService.
func NewGuestbookService(connector repository.Connector, logger *slog.Logger) *GuestbookService {
	return &GuestbookService{
		connector: connector,
		logger:    logger,
	}
}

// Open connects to storage and makes sure the schema exists.
//
// Errors:
//   - apperror.ErrConnection: backend unreachable or credentials rejected;
//     no schema work was attempted.
//   - apperror.ErrStorage: connected, but the schema could not be created.
//
// The caller must Close the returned Session.
func (s *GuestbookService) Open(ctx context.Context) (*Session, error) {
	ctx, span := tracer.Start(ctx, "guestbook.open")
	defer span.End()

	repo, err := s.connector.Connect(ctx)
	if err != nil {
		metrics.ConnectionFailures.Inc()
		if !errors.Is(err, apperror.ErrConnection) {
			err = apperror.ConnectionFailed(err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "connect")
		return nil, err
	}

	if err := s.EnsureSchema(ctx, repo); err != nil {
		repo.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "ensure schema")
		return nil, err
	}

	return &Session{repo: repo, logger: s.logger}, nil
}

// EnsureSchema runs the idempotent schema check on repo unless an earlier call
// already succeeded.
func (s *GuestbookService) EnsureSchema(ctx context.Context, repo repository.EntryRepository) error {
	if s.schemaReady.Load() {
		return nil
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		s.logger.Error("failed to ensure schema", slog.String("error", err.Error()))
		return apperror.StorageFailed("ensuring schema", err)
	}
	s.schemaReady.Store(true)
	return nil
}

// Session is one request's view of the guestbook, backed by a single
// connection.
type Session struct {
	repo   repository.EntryRepository
	logger *slog.Logger
}

// Close releases the underlying connection.
func (s *Session) Close() error {
	return s.repo.Close()
}

// Submit trims name and message and stores them as a new entry.
//
// When either is empty after trimming nothing is written and an
// apperror.ErrValidation error is returned; callers treat that as "no
// submission" rather than showing it to the visitor.
func (s *Session) Submit(ctx context.Context, name, message string) (*model.Entry, error) {
	ctx, span := tracer.Start(ctx, "guestbook.submit")
	defer span.End()

	name = strings.TrimSpace(name)
	message = strings.TrimSpace(message)

	var invalid *apperror.AppError
	switch {
	case name == "":
		invalid = apperror.ValidationFailed("name", "name is required")
	case message == "":
		invalid = apperror.ValidationFailed("message", "message is required")
	}
	if invalid != nil {
		metrics.SubmissionsDiscarded.Inc()
		s.logger.Info("submission discarded", slog.String("field", invalid.Field))
		span.SetAttributes(attribute.Bool("guestbook.discarded", true))
		return nil, invalid
	}

	entry := &model.Entry{Name: name, Message: message}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error("failed to create entry", slog.String("error", err.Error()))
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert")
		return nil, apperror.StorageFailed("creating entry", err)
	}

	metrics.EntriesCreated.Inc()
	span.SetAttributes(attribute.Int64("guestbook.entry_id", entry.ID))
	s.logger.Info("entry created",
		slog.Int64("id", entry.ID),
		slog.String("name", entry.Name),
	)
	return entry, nil
}

// List returns every entry, newest first.
func (s *Session) List(ctx context.Context) ([]model.Entry, error) {
	ctx, span := tracer.Start(ctx, "guestbook.list")
	defer span.End()

	entries, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list entries", slog.String("error", err.Error()))
		span.RecordError(err)
		span.SetStatus(codes.Error, "select")
		return nil, apperror.StorageFailed("listing entries", err)
	}

	span.SetAttributes(attribute.Int("guestbook.entries", len(entries)))
	return entries, nil
}
