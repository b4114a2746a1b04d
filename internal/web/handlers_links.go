package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/linkboard/internal/core"
)

type createLinkRequest struct {
	Buttons []core.Button `json:"buttons"`
}

type linkResponse struct {
	ID      string        `json:"id"`
	Path    string        `json:"path"`
	Buttons []core.Button `json:"buttons"`
}

// handleCreateLink publishes a new set of buttons and returns its id.
func (s *Server) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	entry, err := s.service.GenerateLink(WithRequestMetadata(r.Context(), r), req.Buttons)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	writeJSON(w, http.StatusCreated, linkResponse{ID: entry.ID, Path: "/" + entry.ID, Buttons: entry.Buttons})
}

// handleResolveLink returns the buttons published under {key}.
func (s *Server) handleResolveLink(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	buttons, err := s.service.ResolveLink(r.Context(), key)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, linkResponse{ID: key, Path: "/" + key, Buttons: buttons})
}

// handleSearchLinks returns entries with a button name containing ?q=.
func (s *Server) handleSearchLinks(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.SearchButtons(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": entries})
}
