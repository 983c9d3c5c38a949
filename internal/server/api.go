package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/yaklabco/trackmcp/internal/logging"
	"github.com/yaklabco/trackmcp/pkg/catalog"
	"github.com/yaklabco/trackmcp/pkg/refresh"
	"github.com/yaklabco/trackmcp/pkg/submit"
)

const defaultAPILimit = 100

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, submit.ErrRepoNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrDuplicate), errors.Is(err, submit.ErrAlreadySubmitted):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrInvalidStatus),
		errors.Is(err, catalog.ErrInvalidSort),
		errors.Is(err, submit.ErrInvalidURL),
		errors.Is(err, submit.ErrBanned),
		errors.Is(err, submit.ErrInvalidEmail),
		errors.Is(err, submit.ErrInvalidCategory),
		errors.Is(err, refresh.ErrTooMany):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail logs server-side failures and writes a JSON error.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed", logging.FieldPath, r.URL.Path, logging.FieldError, err)
		writeError(w, status, http.StatusText(status))
		return
	}
	writeError(w, status, err.Error())
}

func intParam(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func nonNil(tools []catalog.Tool) []catalog.Tool {
	if tools == nil {
		return []catalog.Tool{}
	}
	return tools
}

type searchResponse struct {
	Results []catalog.Tool `json:"results"`
	Total   int            `json:"total"`
	Query   string         `json:"query"`
}

func (s *Server) handleAPISearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusOK, searchResponse{Results: []catalog.Tool{}})
		return
	}
	tools, err := s.opts.Catalog.Search(r.Context(), q, intParam(r, "limit", catalog.DefaultSearchLimit))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: nonNil(tools), Total: len(tools), Query: q})
}

func (s *Server) handleAPITrending(w http.ResponseWriter, r *http.Request) {
	tools, err := s.opts.Catalog.Trending(r.Context(), intParam(r, "limit", catalog.DefaultTrendingLimit))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]catalog.Tool{"trending": nonNil(tools)})
}

type toolsResponse struct {
	Tools []catalog.Tool `json:"tools"`
	Count int            `json:"count"`
}

func (s *Server) handleAPITools(w http.ResponseWriter, r *http.Request) {
	f := catalog.Filter{Category: r.URL.Query().Get("category")}
	if sortParam := r.URL.Query().Get("sort"); sortParam != "" {
		order, err := catalog.ParseSort(sortParam)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		f.Sort = order
	}
	tools, err := s.opts.Catalog.Slice(r.Context(), f, intParam(r, "offset", 0), intParam(r, "limit", defaultAPILimit))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toolsResponse{Tools: nonNil(tools), Count: len(tools)})
}

func (s *Server) handleAPITopByCategory(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category == "" {
		writeError(w, http.StatusBadRequest, "Category is required")
		return
	}
	tools, err := s.opts.Catalog.TopByCategory(r.Context(), category, intParam(r, "limit", catalog.DefaultTopLimit))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toolsResponse{Tools: nonNil(tools), Count: len(tools)})
}

func (s *Server) handleAPILookup(w http.ResponseWriter, r *http.Request) {
	site := r.URL.Query().Get("siteName")
	if site == "" {
		site = r.URL.Query().Get("site")
	}
	res, err := s.opts.Catalog.Lookup(r.Context(), strings.TrimSpace(site))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAPISuggest(w http.ResponseWriter, r *http.Request) {
	names, err := s.opts.Catalog.Suggest(r.Context(), r.URL.Query().Get("q"), intParam(r, "limit", catalog.DefaultSuggestLimit))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": names})
}

type statsResponse struct {
	*catalog.Stats
	Freshness *refresh.Freshness `json:"freshness,omitempty"`
}

func (s *Server) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.opts.Catalog.Stats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := statsResponse{Stats: st}
	if s.opts.Refresher != nil {
		fresh, err := s.opts.Refresher.Stats(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		resp.Freshness = fresh
	}
	writeJSON(w, http.StatusOK, resp)
}
