package http

import (
	"net/http"

	"github.com/runbeam/runbeam/internal/domain/run"
	"github.com/runbeam/runbeam/internal/service"
)

const maxRequestBodySize = 1 << 20 // 1 MB

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	runs *service.RunListService
}

// NewHandlers creates the handler set.
func NewHandlers(runs *service.RunListService) *Handlers {
	return &Handlers{runs: runs}
}

// listRunsRequest is the body of POST /runs/list.
type listRunsRequest struct {
	Filter run.ListFilter      `json:"filter"`
	Page   service.PageRequest `json:"page"`
}

// countRunsRequest is the body of POST /runs/count.
type countRunsRequest struct {
	Filter run.ListFilter `json:"filter"`
}

type countRunsResponse struct {
	Count int64 `json:"count"`
}

// ListRuns returns one page of runs matching the filter.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[listRunsRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}

	if req.Page.Size == 0 {
		req.Page.Size = defaultPageSize
	}
	if req.Page.Size > maxPageSize {
		writeError(w, http.StatusBadRequest, "page size exceeds maximum")
		return
	}

	result, err := h.runs.List(r.Context(), req.Filter, req.Page)
	if err != nil {
		writeDomainError(w, err, "runs not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CountRuns returns the number of runs matching the filter.
func (h *Handlers) CountRuns(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[countRunsRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}

	count, err := h.runs.Count(r.Context(), req.Filter)
	if err != nil {
		writeDomainError(w, err, "runs not found")
		return
	}
	writeJSON(w, http.StatusOK, countRunsResponse{Count: count})
}

// GetRun returns a single run by its friendly identifier.
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	friendlyID := urlParam(r, "friendlyID")

	result, err := h.runs.Get(r.Context(), friendlyID)
	if err != nil {
		writeDomainError(w, err, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
