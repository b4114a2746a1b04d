package web

import (
	"io"
	"net/http"
	"strings"

	"github.com/JonMunkholm/linkboard/internal/core"
	"github.com/JonMunkholm/linkboard/internal/logging"
)

type viewResponse struct {
	core.ViewState
	Source string          `json:"source,omitempty"`
	Pages  []core.PageItem `json:"pages"`
}

func newViewResponse(ws *core.Workspace, v core.ViewState) viewResponse {
	src, _ := ws.Source()
	return viewResponse{
		ViewState: v,
		Source:    src,
		Pages:     core.PageStrip(v.Page, v.TotalPages),
	}
}

// handleView applies the query's criteria and page to the session's
// workspace. The page resets to 1 whenever the criteria change, whatever
// page was asked for. Without a page the current one is kept.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	id, err := workspaceID(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	c, err := parseCriteria(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	ws := s.service.Workspace(id)
	page, move := parsePage(r)
	v := ws.Update(c, page, move)
	writeJSON(w, http.StatusOK, newViewResponse(ws, v))
}

// handleOptions lists the filter choices for the loaded dataset.
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	id, err := workspaceID(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, s.service.Workspace(id).Options())
}

// handleReset clears every filter and the sort.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id, err := workspaceID(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	v := s.service.ResetFilters(WithRequestMetadata(r.Context(), r), id)
	writeJSON(w, http.StatusOK, newViewResponse(s.service.Workspace(id), v))
}

// handleExport downloads the filtered view as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id, err := workspaceID(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	data, err := s.service.ExportDataset(WithRequestMetadata(r.Context(), r), id)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+core.ExportFileName+`"`)
	if _, err := io.Copy(w, strings.NewReader(data)); err != nil {
		logging.FromContext(r.Context()).Warn("export write failed", "error", err)
	}
}

// handleCharts returns chart series for the current view.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	id, err := workspaceID(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, core.BuildCharts(s.service.Workspace(id).View().Aggregates))
}
