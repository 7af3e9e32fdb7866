package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pharmawatch/eofscraper/internal/scraper"
	"github.com/pharmawatch/eofscraper/internal/store"
)

// maxRecentLimit caps the /posts/recent page size.
const maxRecentLimit = 50

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		s.serverError(w, "list categories", err)
		return
	}
	if categories == nil {
		categories = []store.CategoryWithCount{}
	}
	s.writeJSON(w, http.StatusOK, categories)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "category_id")
	if !ok {
		return
	}
	category, err := s.store.GetCategory(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "category not found")
		return
	}
	if err != nil {
		s.serverError(w, "get category", err)
		return
	}
	s.writeJSON(w, http.StatusOK, category)
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := store.ListPostsOptions{
		Search: q.Get("search"),
		SortBy: q.Get("sort_by"),
		Order:  q.Get("order"),
	}
	if raw := q.Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid category_id")
			return
		}
		opts.CategoryID = &id
	}
	if raw := q.Get("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid skip")
			return
		}
		opts.Skip = skip
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		opts.Limit = limit
	}

	posts, err := s.store.ListPosts(r.Context(), opts)
	if err != nil {
		s.serverError(w, "list posts", err)
		return
	}
	if posts == nil {
		posts = []store.PostWithMeta{}
	}
	s.writeJSON(w, http.StatusOK, posts)
}

func (s *Server) recentPosts(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if parsed > maxRecentLimit {
			parsed = maxRecentLimit
		}
		limit = parsed
	}
	posts, err := s.store.ListPosts(r.Context(), store.ListPostsOptions{
		Limit:  limit,
		SortBy: store.SortByScrapedAt,
		Order:  store.OrderDesc,
	})
	if err != nil {
		s.serverError(w, "recent posts", err)
		return
	}
	if posts == nil {
		posts = []store.PostWithMeta{}
	}
	s.writeJSON(w, http.StatusOK, posts)
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "post_id")
	if !ok {
		return
	}
	post, err := s.store.GetPost(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "post not found")
		return
	}
	if err != nil {
		s.serverError(w, "get post", err)
		return
	}
	s.writeJSON(w, http.StatusOK, post)
}

func (s *Server) listScrapeLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := q.Get("status")
	switch status {
	case "", string(scraper.RunStatusRunning), string(scraper.RunStatusSuccess),
		string(scraper.RunStatusPartial), string(scraper.RunStatusFailed):
	default:
		s.writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	logs, err := s.store.ListScrapeLogs(r.Context(), status, limit)
	if err != nil {
		s.serverError(w, "list scrape logs", err)
		return
	}
	if logs == nil {
		logs = []scraper.ScrapeLog{}
	}
	s.writeJSON(w, http.StatusOK, logs)
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats(r.Context())
	if err != nil {
		s.serverError(w, "get stats", err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		s.writeError(w, http.StatusBadRequest, "invalid "+param)
		return 0, false
	}
	return id, true
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op+" failed", zap.Error(err))
	s.writeError(w, http.StatusInternalServerError, "internal server error")
}
