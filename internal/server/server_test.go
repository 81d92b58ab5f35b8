package server_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/guestbook/internal/config"
	"github.com/sakif/guestbook/internal/repository/sqldb"
	"github.com/sakif/guestbook/internal/server"
)

// newTestServer runs the full router against a throwaway SQLite file.
func newTestServer(t *testing.T, db config.Database) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	cfg := config.Default()
	cfg.Database = db

	srv, err := server.New(cfg, sqldb.NewConnector(cfg.Database, logger), logger)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func sqliteDatabase(t *testing.T) config.Database {
	return config.Database{
		Driver:         config.DriverSQLite,
		Path:           filepath.Join(t.TempDir(), "guestbook.db"),
		ConnectTimeout: time.Second,
	}
}

// noRedirect lets tests inspect the 302 itself.
func noRedirect(ts *httptest.Server) *http.Client {
	c := ts.Client()
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return c
}

func getPage(t *testing.T, ts *httptest.Server) *goquery.Document {
	t.Helper()
	resp, err := ts.Client().Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return doc
}

func TestServer_EmptyGuestbook(t *testing.T) {
	ts := newTestServer(t, sqliteDatabase(t))

	doc := getPage(t, ts)

	assert.Equal(t, "post", doc.Find("form").AttrOr("method", ""))
	_, required := doc.Find(`input[name="name"]`).Attr("required")
	assert.True(t, required)
	_, required = doc.Find(`textarea[name="message"]`).Attr("required")
	assert.True(t, required)
	assert.Contains(t, doc.Text(), "No messages yet.")
}

func TestServer_SubmitThenList(t *testing.T) {
	ts := newTestServer(t, sqliteDatabase(t))
	client := noRedirect(ts)

	resp, err := client.PostForm(ts.URL+"/?from=test", url.Values{
		"name":    {"Alice"},
		"message": {"Hello\nWorld"},
	})
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Empty(t, body)

	resp, err = client.PostForm(ts.URL+"/", url.Values{
		"name":    {"Bob"},
		"message": {"second"},
	})
	require.NoError(t, err)
	resp.Body.Close()

	doc := getPage(t, ts)
	entries := doc.Find("div.entry")
	require.Equal(t, 2, entries.Length())

	assert.Contains(t, entries.Eq(0).Find("div.meta").Text(), "Bob — ")
	assert.Contains(t, entries.Eq(1).Find("div.meta").Text(), "Alice — ")
	assert.Regexp(t, `^Alice — \d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`, entries.Eq(1).Find("div.meta").Text())

	msg, err := entries.Eq(1).Find("div.msg").Html()
	require.NoError(t, err)
	assert.Equal(t, "Hello<br/>\nWorld", msg)
}

func TestServer_FollowedRedirectShowsEntry(t *testing.T) {
	ts := newTestServer(t, sqliteDatabase(t))

	resp, err := ts.Client().PostForm(ts.URL+"/", url.Values{
		"name":    {"<script>alert(1)</script>"},
		"message": {"hi"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/", resp.Request.URL.Path)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "<script>")
	assert.Contains(t, string(raw), "&lt;script&gt;alert(1)&lt;/script&gt;")
}

func TestServer_EmptyNameIsIgnored(t *testing.T) {
	ts := newTestServer(t, sqliteDatabase(t))

	resp, err := noRedirect(ts).PostForm(ts.URL+"/", url.Values{
		"name":    {""},
		"message": {"Hi"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Location"))

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Find("div.entry").Length())
	assert.Contains(t, doc.Text(), "No messages yet.")
}

func TestServer_ConnectionFailure(t *testing.T) {
	db := config.Default().Database
	db.Host = "127.0.0.1"
	db.Port = 1
	db.ConnectTimeout = time.Second
	ts := newTestServer(t, db)

	resp, err := ts.Client().Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Database connection failed", doc.Find("h2").Text())
	assert.NotEmpty(t, doc.Find("pre").Text())
	assert.Equal(t, 0, doc.Find("form").Length())
}

func TestServer_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, sqliteDatabase(t))

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServer_ResponseHeaders(t *testing.T) {
	ts := newTestServer(t, sqliteDatabase(t))

	resp, err := ts.Client().Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
}

func TestServer_Metrics(t *testing.T) {
	ts := newTestServer(t, sqliteDatabase(t))

	resp, err := ts.Client().Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "guestbook_http_requests_total")
}
