package server

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/yaklabco/trackmcp/internal/logging"
	"github.com/yaklabco/trackmcp/internal/ui/pretty"
	"github.com/yaklabco/trackmcp/pkg/catalog"
	"github.com/yaklabco/trackmcp/pkg/readme"
	"github.com/yaklabco/trackmcp/pkg/submit"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page names. Each is a file under templates/ rendered inside layout.html.
const (
	pageHome       = "home"
	pageSearch     = "search"
	pageTool       = "tool"
	pageCategories = "categories"
	pageCategory   = "category"
	pageNew        = "new"
	pageSubmit     = "submit"
	pageNotFound   = "notfound"
	pageError      = "error"
)

//nolint:gochecknoglobals // Read-only lookup table.
var pageNames = []string{
	pageHome, pageSearch, pageTool, pageCategories, pageCategory,
	pageNew, pageSubmit, pageNotFound, pageError,
}

type pageSet struct {
	pages map[string]*template.Template
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"stars":        pretty.FormatStars,
		"categorySlug": catalog.CategorySlug,
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format("Jan 2, 2006")
		},
		"isoDate": func(t time.Time) string {
			return t.UTC().Format(time.RFC3339)
		},
		"add": func(a, b int) int { return a + b },
	}
}

func parsePages() (*pageSet, error) {
	set := &pageSet{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(templateFuncs()).ParseFS(templateFS,
			"templates/layout.html", "templates/partials.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		set.pages[name] = t
	}
	return set, nil
}

// pageData is the value every template receives.
type pageData struct {
	Title       string
	Description string
	Canonical   string
	Query       string
	Data        any
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	t, ok := s.pages.pages[name]
	if !ok {
		http.Error(w, "unknown page "+name, http.StatusInternalServerError)
		return
	}
	if data.Canonical == "" {
		data.Canonical = s.host() + r.URL.Path
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		logging.FromContext(r.Context()).Error("render page", "page", name, logging.FieldError, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		s.handleNotFound(w, r)
		return
	}
	logging.FromContext(r.Context()).Error("page failed", logging.FieldPath, r.URL.Path, logging.FieldError, err)
	s.render(w, r, http.StatusInternalServerError, pageError, pageData{Title: "Something went wrong"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.render(w, r, http.StatusNotFound, pageNotFound, pageData{Title: "Not found"})
}

type homeData struct {
	Trending   []catalog.Tool
	Categories []catalog.CategoryCount
	Stats      *catalog.Stats
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	trending, err := s.opts.Catalog.Trending(ctx, catalog.DefaultTrendingLimit)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	cats, err := s.opts.Catalog.Categories(ctx)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	stats, err := s.opts.Catalog.Stats(ctx)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, pageHome, pageData{
		Title:       "Track MCP: discover Model Context Protocol tools",
		Description: fmt.Sprintf("Browse %d MCP servers and tools across %d categories.", stats.Tools, stats.Categories),
		Data:        homeData{Trending: trending, Categories: cats, Stats: stats},
	})
}

type searchData struct {
	Results []catalog.Tool
}

func (s *Server) handleSearchPage(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	results, err := s.opts.Catalog.Search(r.Context(), q, catalog.DefaultSearchLimit)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	title := "Search"
	if q != "" {
		title = fmt.Sprintf("Search results for %q", q)
	}
	s.render(w, r, http.StatusOK, pageSearch, pageData{Title: title, Query: q, Data: searchData{Results: results}})
}

type toolData struct {
	Tool    *catalog.Tool
	Readme  *readme.Page
	Similar []catalog.Tool
}

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tool, err := s.opts.Catalog.GetTool(ctx, r.PathValue("name"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	data := toolData{Tool: tool}
	if s.opts.Readme != nil {
		page, err := s.opts.Readme.Page(ctx, tool)
		if err != nil {
			logging.FromContext(ctx).Warn("readme unavailable", logging.FieldTool, tool.RepoName, logging.FieldError, err)
		} else {
			data.Readme = page
		}
	}
	if data.Similar, err = s.opts.Catalog.Similar(ctx, tool, similarTools); err != nil {
		logging.FromContext(ctx).Warn("similar tools unavailable", logging.FieldTool, tool.RepoName, logging.FieldError, err)
	}

	desc := tool.Description
	if desc == "" {
		desc = tool.RepoName + " on Track MCP"
	}
	s.render(w, r, http.StatusOK, pageTool, pageData{
		Title:       tool.RepoName + " MCP server",
		Description: desc,
		Canonical:   s.host() + "/tool/" + tool.RepoName,
		Data:        data,
	})
}

type categoriesData struct {
	Categories []catalog.CategoryCount
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.opts.Catalog.Categories(r.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, pageCategories, pageData{
		Title: "MCP tool categories",
		Data:  categoriesData{Categories: cats},
	})
}

type categoryData struct {
	Category *catalog.CategoryCount
	Page     *catalog.Page
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	cat, page, err := s.opts.Catalog.ByCategory(r.Context(), r.PathValue("slug"), intParam(r, "page", 1))
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, pageCategory, pageData{
		Title:       cat.Name + " MCP tools",
		Description: fmt.Sprintf("%d MCP tools in %s.", cat.Count, cat.Name),
		Canonical:   s.host() + "/category/" + cat.Slug,
		Data:        categoryData{Category: cat, Page: page},
	})
}

type newData struct {
	Tools []catalog.Tool
}

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	tools, err := s.opts.Catalog.Newest(r.Context(), newestTools)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, pageNew, pageData{Title: "New MCP tools", Data: newData{Tools: tools}})
}

type submitData struct {
	Categories []string
	Form       submit.Request
	Error      string
	Submitted  *catalog.Tool
	Disabled   bool
}

func (s *Server) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageSubmit, pageData{
		Title: "Submit an MCP tool",
		Data:  submitData{Categories: catalog.KnownCategories(), Disabled: s.opts.Submitter == nil},
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	data := submitData{Categories: catalog.KnownCategories(), Disabled: s.opts.Submitter == nil}
	if data.Disabled {
		s.render(w, r, http.StatusServiceUnavailable, pageSubmit, pageData{Title: "Submit an MCP tool", Data: data})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAdminBody)
	if err := r.ParseForm(); err != nil {
		data.Error = "Could not read the form."
		s.render(w, r, http.StatusBadRequest, pageSubmit, pageData{Title: "Submit an MCP tool", Data: data})
		return
	}
	data.Form = submit.Request{
		GitHubURL: r.PostFormValue("github_url"),
		Email:     r.PostFormValue("email"),
		Category:  r.PostFormValue("category"),
	}

	tool, err := s.opts.Submitter.Submit(r.Context(), data.Form)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			logging.FromContext(r.Context()).Error("submission failed", logging.FieldURL, data.Form.GitHubURL, logging.FieldError, err)
			data.Error = "Submission failed. Please try again later."
		} else {
			data.Error = submitMessage(err)
		}
		s.render(w, r, status, pageSubmit, pageData{Title: "Submit an MCP tool", Data: data})
		return
	}

	data.Submitted = tool
	data.Form = submit.Request{}
	s.render(w, r, http.StatusCreated, pageSubmit, pageData{Title: "Submission received", Data: data})
}

// submitMessage turns a submission error into text for the form.
func submitMessage(err error) string {
	switch {
	case errors.Is(err, submit.ErrInvalidURL):
		return "Please enter a valid GitHub repository URL (https://github.com/owner/repo)."
	case errors.Is(err, submit.ErrBanned):
		return "This repository has been banned from submission."
	case errors.Is(err, submit.ErrInvalidEmail):
		return "Please enter a valid email address."
	case errors.Is(err, submit.ErrInvalidCategory):
		return "Please choose a category from the list."
	case errors.Is(err, submit.ErrRepoNotFound):
		return "That repository could not be found on GitHub."
	case errors.Is(err, submit.ErrAlreadySubmitted):
		return "This tool has already been submitted."
	default:
		return err.Error()
	}
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

func (s *Server) handleHighlightCSS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.css)
}
