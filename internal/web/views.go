package web

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/soverbye/dagbok/internal/entry"
)

//go:embed templates
var templateFS embed.FS

var funcs = template.FuncMap{
	"datetime": func(t time.Time) string { return t.Format("2006-01-02 15:04 MST") },
	"month":    func(m time.Month) string { return m.String() },
}

// views holds one parsed template set per page, all sharing the base
// layout.
type views struct {
	pages map[string]*template.Template
}

func parseViews() (*views, error) {
	v := &views{pages: make(map[string]*template.Template)}
	for _, page := range []string{"index", "new", "entry", "year", "search"} {
		t, err := template.New("base.html").Funcs(funcs).ParseFS(templateFS,
			"templates/base.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		v.pages[page] = t
	}
	return v, nil
}

func (v *views) render(w http.ResponseWriter, logger *slog.Logger, page string, data any) {
	t, ok := v.pages[page]
	if !ok {
		logger.Error("unknown page template", "page", page)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "base.html", data); err != nil {
		logger.Error("render failed", "page", page, "error", err)
	}
}

// View models.

type indexView struct {
	Recent []entry.Entry
	Years  []entry.YearCount
}

type newView struct {
	Draft string
}

type entryView struct {
	ID        int64
	Date      string
	Timestamp time.Time
	Body      template.HTML
	TextHash  string
}

type yearView struct {
	Year       int
	Months     []entry.MonthGroup
	EntryCount int
}

type searchView struct {
	Query   string
	Results []entry.SearchResult
}
