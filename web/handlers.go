package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/kierank/feedor/render"
	"github.com/kierank/feedor/store"
)

// parseCursor parses the "next=<time>:<rowid>" query parameter. An empty
// value means "first page"; a malformed value is reported so the caller
// can answer with HTTP 400 without ever touching the poller.
func parseCursor(raw string) (*store.Cursor, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("malformed cursor %q", raw)
	}
	t, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed cursor time %q: %w", parts[0], err)
	}
	rowID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed cursor rowid %q: %w", parts[1], err)
	}
	return &store.Cursor{Time: t, RowID: rowID}, nil
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultPageLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("malformed limit %q", raw)
	}
	return n, nil
}

func cursorToken(c *store.Cursor) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("%d:%d", c.Time, c.RowID)
}

func (s *Server) loadPage(ctx context.Context, r *http.Request) (render.Page, error) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		return render.Page{}, err
	}
	cursor, err := parseCursor(r.URL.Query().Get("next"))
	if err != nil {
		return render.Page{}, err
	}

	entries, next, err := s.store.List(ctx, limit, cursor)
	if err != nil {
		return render.Page{}, fmt.Errorf("list entries: %w", err)
	}

	return render.Page{Title: feedTitle, Entries: entries, Next: cursorToken(next)}, nil
}

func (s *Server) handleRSS(w http.ResponseWriter, r *http.Request) {
	page, err := s.loadPage(r.Context(), r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	out, err := render.RSS(page)
	if err != nil {
		s.serverError(w, "render rss", err)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Write(out) //nolint:errcheck
}

func (s *Server) handleAtom(w http.ResponseWriter, r *http.Request) {
	page, err := s.loadPage(r.Context(), r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	out, err := render.Atom(page)
	if err != nil {
		s.serverError(w, "render atom", err)
		return
	}
	w.Header().Set("Content-Type", "application/atom+xml; charset=utf-8")
	w.Write(out) //nolint:errcheck
}

func (s *Server) handleFeedHTML(w http.ResponseWriter, r *http.Request) {
	page, err := s.loadPage(r.Context(), r)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	out, err := render.HTML(page)
	if err != nil {
		s.serverError(w, "render feed.html", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(out) //nolint:errcheck
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		s.badRequest(w, fmt.Errorf("missing q"))
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		s.badRequest(w, err)
		return
	}

	entries, err := s.store.Search(r.Context(), q, limit)
	if err != nil {
		s.serverError(w, "search", err)
		return
	}

	out, err := render.Search(q, entries)
	if err != nil {
		s.serverError(w, "render search", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(out) //nolint:errcheck
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	s.logger.Warn("bad request", "err", err)
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op+" failed", "err", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
