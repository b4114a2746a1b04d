package web

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/linkboard/internal/core"
	"github.com/JonMunkholm/linkboard/internal/logging"
	"github.com/JonMunkholm/linkboard/internal/web/templates"
)

type healthResponse struct {
	Status   string                   `json:"status"`
	Uploads  core.UploadLimiterStatus `json:"uploads"`
	Sessions int                      `json:"sessions"`
}

// handleHealth reports liveness along with upload slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Uploads:  s.service.UploadLimiterStatus(),
		Sessions: s.sessions.Count(),
	})
}

// handleButtonPage renders the buttons published under the path key.
func (s *Server) handleButtonPage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	buttons, err := s.service.ResolveLink(r.Context(), key)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	links := make([]templates.ButtonLink, len(buttons))
	for i, b := range buttons {
		links[i] = templates.ButtonLink{Name: b.ButtonName, URL: b.URL}
	}
	s.render(w, r, templates.ButtonPage(key, links))
}

// handleGetLinkPage renders the interstitial for ?url=. Targets that do
// not start with http get an error page instead.
func (s *Server) handleGetLinkPage(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if err := core.ValidateTargetURL(target); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	s.render(w, r, templates.GetLink(target))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "path", r.URL.Path, "error", err)
	}
}
