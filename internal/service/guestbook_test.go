package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/guestbook/internal/apperror"
	"github.com/sakif/guestbook/internal/metrics"
	"github.com/sakif/guestbook/internal/model"
	"github.com/sakif/guestbook/internal/repository"
)

// =========================================================================
// MOCK BACKEND
// =========================================================================
//
// mockBackend plays the storage engine: it owns the canonical entry set and
// hands out mockConn values that all read and write the same slice, the way
// per-request connections share one database.

type mockBackend struct {
	mu          sync.Mutex
	entries     []model.Entry
	nextID      int64
	connectErr  error
	schemaErr   error
	createErr   error
	listErr     error
	schemaCalls int
	opened      int
	closed      int
}

func (b *mockBackend) Connect(_ context.Context) (repository.EntryRepository, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.connectErr != nil {
		return nil, b.connectErr
	}
	b.opened++
	return &mockConn{b: b}, nil
}

type mockConn struct{ b *mockBackend }

func (c *mockConn) EnsureSchema(_ context.Context) error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	c.b.schemaCalls++
	return c.b.schemaErr
}

func (c *mockConn) Create(_ context.Context, e *model.Entry) error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	if c.b.createErr != nil {
		return c.b.createErr
	}
	c.b.nextID++
	e.ID = c.b.nextID
	c.b.entries = append(c.b.entries, *e)
	return nil
}

func (c *mockConn) List(_ context.Context) ([]model.Entry, error) {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	if c.b.listErr != nil {
		return nil, c.b.listErr
	}
	out := make([]model.Entry, 0, len(c.b.entries))
	for i := len(c.b.entries) - 1; i >= 0; i-- {
		out = append(out, c.b.entries[i])
	}
	return out, nil
}

func (c *mockConn) Close() error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	c.b.closed++
	return nil
}

// =========================================================================
// TEST HELPER
// =========================================================================

func newTestService(t *testing.T) (*GuestbookService, *mockBackend) {
	t.Helper()
	backend := &mockBackend{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewGuestbookService(backend, logger), backend
}

func openSession(t *testing.T, svc *GuestbookService) *Session {
	t.Helper()
	sess, err := svc.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })
	return sess
}

// =========================================================================
// OPEN TESTS
// =========================================================================

func TestOpen_EnsuresSchemaOnce(t *testing.T) {
	svc, backend := newTestService(t)

	for i := 0; i < 3; i++ {
		sess, err := svc.Open(context.Background())
		require.NoError(t, err)
		require.NoError(t, sess.Close())
	}

	assert.Equal(t, 1, backend.schemaCalls, "schema check is cached after success")
	assert.Equal(t, 3, backend.opened)
	assert.Equal(t, 3, backend.closed)
}

func TestOpen_SchemaFailureIsRetried(t *testing.T) {
	svc, backend := newTestService(t)
	backend.schemaErr = errors.New("CREATE command denied")

	_, err := svc.Open(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrStorage)
	assert.Equal(t, 1, backend.closed, "connection released on failure")

	backend.schemaErr = nil
	sess := openSession(t, svc)
	assert.NotNil(t, sess)
	assert.Equal(t, 2, backend.schemaCalls)
}

func TestOpen_ConnectionFailure(t *testing.T) {
	svc, backend := newTestService(t)
	backend.connectErr = apperror.ConnectionFailed(errors.New("Access denied for user 'guest'"))
	failuresBefore := testutil.ToFloat64(metrics.ConnectionFailures)

	_, err := svc.Open(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrConnection)
	assert.Equal(t, "Access denied for user 'guest'", err.Error())
	assert.Equal(t, 0, backend.schemaCalls, "no schema work after a failed connect")
	assert.Equal(t, failuresBefore+1, testutil.ToFloat64(metrics.ConnectionFailures))
}

func TestOpen_PlainConnectorErrorIsClassified(t *testing.T) {
	svc, backend := newTestService(t)
	backend.connectErr = errors.New("dial tcp: connection refused")

	_, err := svc.Open(context.Background())
	assert.ErrorIs(t, err, apperror.ErrConnection)
	assert.ErrorIs(t, err, backend.connectErr)
}

// =========================================================================
// SUBMIT TESTS
// =========================================================================

func TestSubmit_Success(t *testing.T) {
	svc, backend := newTestService(t)
	sess := openSession(t, svc)
	createdBefore := testutil.ToFloat64(metrics.EntriesCreated)

	entry, err := sess.Submit(context.Background(), "Alice", "Hello\nWorld")
	require.NoError(t, err)

	assert.Equal(t, int64(1), entry.ID)
	assert.Equal(t, "Alice", entry.Name)
	assert.Equal(t, "Hello\nWorld", entry.Message)
	assert.Len(t, backend.entries, 1)
	assert.Equal(t, createdBefore+1, testutil.ToFloat64(metrics.EntriesCreated))
}

func TestSubmit_TrimsWhitespace(t *testing.T) {
	svc, backend := newTestService(t)
	sess := openSession(t, svc)

	_, err := sess.Submit(context.Background(), "  Bob \t", "\n  line one\nline two  \n")
	require.NoError(t, err)

	require.Len(t, backend.entries, 1)
	assert.Equal(t, "Bob", backend.entries[0].Name)
	assert.Equal(t, "line one\nline two", backend.entries[0].Message, "inner line breaks survive")
}

func TestSubmit_IDsIncrease(t *testing.T) {
	svc, _ := newTestService(t)
	sess := openSession(t, svc)
	ctx := context.Background()

	var last int64
	for _, name := range []string{"a", "b", "c"} {
		e, err := sess.Submit(ctx, name, "msg")
		require.NoError(t, err)
		assert.Greater(t, e.ID, last)
		last = e.ID
	}
}

func TestSubmit_EmptyFieldsAreDiscarded(t *testing.T) {
	tests := []struct {
		name      string
		inName    string
		inMessage string
		wantField string
	}{
		{"empty name", "", "test", "name"},
		{"whitespace name", "   \t", "test", "name"},
		{"empty message", "Alice", "", "message"},
		{"whitespace message", "Alice", " \n\r\n ", "message"},
		{"both empty", "", "", "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, backend := newTestService(t)
			sess := openSession(t, svc)
			discardedBefore := testutil.ToFloat64(metrics.SubmissionsDiscarded)

			entry, err := sess.Submit(context.Background(), tt.inName, tt.inMessage)

			assert.Nil(t, entry)
			require.ErrorIs(t, err, apperror.ErrValidation)
			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantField, appErr.Field)
			assert.Empty(t, backend.entries, "nothing is written")
			assert.Equal(t, discardedBefore+1, testutil.ToFloat64(metrics.SubmissionsDiscarded))
		})
	}
}

func TestSubmit_StorageError(t *testing.T) {
	svc, backend := newTestService(t)
	sess := openSession(t, svc)
	backend.createErr = errors.New("disk full")

	_, err := sess.Submit(context.Background(), "Alice", "hi")
	assert.ErrorIs(t, err, apperror.ErrStorage)
	assert.ErrorIs(t, err, backend.createErr)
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestList_Empty(t *testing.T) {
	svc, _ := newTestService(t)
	sess := openSession(t, svc)

	entries, err := sess.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestList_NewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	sess := openSession(t, svc)
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		_, err := sess.Submit(ctx, name, "msg")
		require.NoError(t, err)
	}

	entries, err := sess.List(ctx)
	require.NoError(t, err)

	got := make([]string, 0, len(entries))
	for _, e := range entries {
		got = append(got, e.Name)
	}
	if diff := cmp.Diff([]string{"third", "second", "first"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestList_StorageError(t *testing.T) {
	svc, backend := newTestService(t)
	sess := openSession(t, svc)
	backend.listErr = errors.New("lost connection")

	_, err := sess.List(context.Background())
	assert.ErrorIs(t, err, apperror.ErrStorage)
}
