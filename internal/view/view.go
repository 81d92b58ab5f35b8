// Package view renders the guestbook's HTML.
//
// Two kinds of text reach the page and they take different paths:
//   - untrusted text (visitor name and message) is always HTML-escaped,
//     either by html/template itself or by escapeMultiline;
//   - trusted text (the storage-generated timestamp) goes through trusted and
//     is emitted as-is.
//
// Only this package decides which path a value takes; the templates never see
// a raw model.Entry.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/sakif/guestbook/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// TimestampLayout is how created_at is shown, matching the column's own text
// form in MySQL.
const TimestampLayout = "2006-01-02 15:04:05"

// Renderer holds the parsed templates. Parsing happens once in New.
type Renderer struct {
	templates *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("view: parsing templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// entryView is what the page template sees for one entry.
type entryView struct {
	Name      string        // untrusted, escaped by html/template
	CreatedAt template.HTML // trusted
	Message   template.HTML // untrusted, pre-escaped with line breaks
}

type pageData struct {
	Entries []entryView
}

// Page writes the full guestbook page: the form, then entries in the order
// given, or "No messages yet." when there are none.
func (r *Renderer) Page(w io.Writer, entries []model.Entry) error {
	data := pageData{Entries: make([]entryView, 0, len(entries))}
	for _, e := range entries {
		data.Entries = append(data.Entries, entryView{
			Name:      e.Name,
			CreatedAt: trusted(FormatTimestamp(e.CreatedAt)),
			Message:   escapeMultiline(e.Message),
		})
	}
	return r.templates.ExecuteTemplate(w, "page", data)
}

// ConnectionError writes the page shown when the backend cannot be reached.
// reason is escaped.
func (r *Renderer) ConnectionError(w io.Writer, reason string) error {
	return r.templates.ExecuteTemplate(w, "connection-error", reason)
}

// trusted marks system-generated text as safe markup. Never pass visitor
// input here.
func trusted(s string) template.HTML {
	return template.HTML(s)
}

var lineBreaks = strings.NewReplacer(
	"\r\n", "<br />\r\n",
	"\n\r", "<br />\n\r",
	"\n", "<br />\n",
	"\r", "<br />\r",
)

// escapeMultiline escapes s and then inserts <br /> before every line break,
// keeping the break itself.
func escapeMultiline(s string) template.HTML {
	return template.HTML(lineBreaks.Replace(template.HTMLEscapeString(s)))
}

// FormatTimestamp renders t the way the page does.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
