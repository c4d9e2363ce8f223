// Package web is the diary's HTTP surface: entry pages, the compose form,
// search, and the draft endpoint the editing client syncs against.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/soverbye/dagbok/internal/digest"
	"github.com/soverbye/dagbok/internal/entry"
	"github.com/soverbye/dagbok/internal/markdown"
)

// Server serves the diary over HTTP.
type Server struct {
	store  *entry.Store
	views  *views
	logger *slog.Logger
}

// New creates the diary HTTP handler.
func New(store *entry.Store, logger *slog.Logger) (http.Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	v, err := parseViews()
	if err != nil {
		return nil, err
	}
	s := &Server{store: store, views: v, logger: logger}

	r := chi.NewRouter()
	r.Use(headToGet)
	r.Use(securityHeaders)
	r.Use(maxFormBody(1 << 20))
	r.Use(requestLogger(logger))

	r.Get("/", s.getIndex)
	r.Get("/new", s.getNew)
	r.Post("/new", s.postNew)
	r.Get("/entry/{id}", s.getEntry)
	r.Get("/year/{year}", s.getYear)
	r.Get("/search", s.getSearch)
	r.Post("/draft", s.postDraft)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	return r, nil
}

func (s *Server) getIndex(w http.ResponseWriter, r *http.Request) {
	recent, err := s.store.Recent(r.Context(), 8)
	if err != nil {
		s.internalError(w, "recent entries", err)
		return
	}
	years, err := s.store.YearCounts(r.Context())
	if err != nil {
		s.internalError(w, "year counts", err)
		return
	}
	s.views.render(w, s.logger, "index", indexView{Recent: recent, Years: years})
}

func (s *Server) getNew(w http.ResponseWriter, r *http.Request) {
	view := newView{}
	d, err := s.store.GetDraft(r.Context())
	switch {
	case err == nil:
		view.Draft = d.Content
	case errors.Is(err, entry.ErrNotFound):
		// No draft; the form starts empty.
	default:
		s.logger.Warn("draft slot read failed", "error", err)
	}
	s.views.render(w, s.logger, "new", view)
}

func (s *Server) postNew(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	body := r.PostForm.Get("body")

	id, err := s.store.Create(r.Context(), body)
	if err != nil {
		s.internalError(w, "create entry", err)
		return
	}
	// The submitted entry supersedes whatever the draft slot held.
	if err := s.store.ClearDraft(r.Context()); err != nil {
		s.logger.Warn("clear draft slot failed", "error", err)
	}
	http.Redirect(w, r, "/entry/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "bad entry id", http.StatusBadRequest)
		return
	}
	e, err := s.store.Get(r.Context(), id)
	if errors.Is(err, entry.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.internalError(w, "get entry", err)
		return
	}

	html, err := markdown.Render(e.Body)
	if err != nil {
		s.internalError(w, "render entry", err)
		return
	}
	s.views.render(w, s.logger, "entry", entryView{
		ID:        e.ID,
		Date:      e.Date,
		Timestamp: e.Timestamp,
		Body:      html,
		TextHash:  digest.Hex(e.Body),
	})
}

func (s *Server) getYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		http.Error(w, "bad year", http.StatusBadRequest)
		return
	}
	months, total, err := s.store.Year(r.Context(), year)
	if err != nil {
		s.internalError(w, "year entries", err)
		return
	}
	s.views.render(w, s.logger, "year", yearView{Year: year, Months: months, EntryCount: total})
}

func (s *Server) getSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	view := searchView{Query: q}
	if q != "" {
		results, err := s.store.Search(r.Context(), q)
		if err != nil {
			// A malformed FTS query is a user mistake, not a server fault.
			s.logger.Warn("search failed", "query", q, "error", err)
		} else {
			view.Results = results
		}
	}
	s.views.render(w, s.logger, "search", view)
}

// postDraft is the draft endpoint the editing client pushes to. Any 2xx is
// an acknowledgment that the draft is stored.
func (s *Server) postDraft(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	if err := s.store.SaveDraft(r.Context(), r.PostForm.Get("body")); err != nil {
		s.internalError(w, "save draft", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
