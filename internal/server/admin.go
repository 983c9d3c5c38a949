package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/yaklabco/trackmcp/internal/logging"
	"github.com/yaklabco/trackmcp/pkg/catalog"
	"github.com/yaklabco/trackmcp/pkg/refresh"
)

const maxAdminBody = 1 << 20

//nolint:gochecknoglobals // Read-only lookup table.
var allStatuses = []catalog.Status{catalog.StatusPending, catalog.StatusApproved, catalog.StatusRejected}

func (s *Server) handleAdminTools(w http.ResponseWriter, r *http.Request) {
	f := catalog.Filter{Statuses: allStatuses, Sort: catalog.SortNewest}
	if v := r.URL.Query().Get("status"); v != "" {
		status, err := catalog.ParseStatus(v)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		f.Statuses = []catalog.Status{status}
	}
	tools, err := s.opts.Catalog.Slice(r.Context(), f, intParam(r, "offset", 0), intParam(r, "limit", defaultAPILimit))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toolsResponse{Tools: nonNil(tools), Count: len(tools)})
}

type statusRequest struct {
	Status string `json:"status"`
}

type statusResponse struct {
	ID     int64          `json:"id"`
	Status catalog.Status `json:"status"`
}

func (s *Server) handleAdminStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid tool id")
		return
	}

	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	status, err := catalog.ParseStatus(req.Status)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if s.opts.Submitter != nil {
		err = s.opts.Submitter.Moderate(r.Context(), id, status)
	} else {
		err = s.opts.Catalog.SetStatus(r.Context(), id, status)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{ID: id, Status: status})
}

type refreshRequest struct {
	IDs         []int64 `json:"ids"`
	OlderThan   string  `json:"older_than"`
	Concurrency int     `json:"concurrency"`
	Limit       int     `json:"limit"`
}

type refreshOutcome struct {
	ID           int64    `json:"id"`
	RepoName     string   `json:"repo_name"`
	Significance string   `json:"significance,omitempty"`
	Fields       []string `json:"fields,omitempty"`
	Error        string   `json:"error,omitempty"`
}

type refreshResponse struct {
	Checked   int              `json:"checked"`
	Updated   int              `json:"updated"`
	Freshened int              `json:"refreshed"`
	Failed    int              `json:"failed"`
	Duration  string           `json:"duration"`
	Outcomes  []refreshOutcome `json:"outcomes"`
}

func (s *Server) handleAdminRefresh(w http.ResponseWriter, r *http.Request) {
	if s.opts.Refresher == nil {
		writeError(w, http.StatusServiceUnavailable, "refresh is not configured")
		return
	}

	var req refreshRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts := refresh.Options{IDs: req.IDs, Concurrency: req.Concurrency, Limit: req.Limit}
	if req.OlderThan != "" {
		d, err := time.ParseDuration(req.OlderThan)
		if err != nil || d < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid older_than %q", req.OlderThan))
			return
		}
		opts.OlderThan = d
	}

	summary, err := s.opts.Refresher.Run(r.Context(), opts)
	if summary == nil {
		s.fail(w, r, err)
		return
	}
	if err != nil {
		logging.FromContext(r.Context()).Warn("refresh finished with errors", logging.FieldCount, summary.Failed)
	}
	writeJSON(w, http.StatusOK, refreshBody(summary))
}

func refreshBody(sum *refresh.Summary) refreshResponse {
	resp := refreshResponse{
		Checked:   sum.Checked,
		Updated:   sum.Updated,
		Freshened: sum.Freshened,
		Failed:    sum.Failed,
		Duration:  sum.Duration.Round(time.Millisecond).String(),
		Outcomes:  make([]refreshOutcome, 0, len(sum.Outcomes)),
	}
	for _, o := range sum.Outcomes {
		out := refreshOutcome{ID: o.ID, RepoName: o.RepoName}
		if o.Err != nil {
			out.Error = o.Err.Error()
		} else if o.Change.Meaningful() {
			out.Significance = o.Change.Significance.String()
			out.Fields = o.Change.Fields
		}
		resp.Outcomes = append(resp.Outcomes, out)
	}
	return resp
}

// decodeBody reads an optional JSON body into v. An empty body leaves v as is.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxAdminBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
