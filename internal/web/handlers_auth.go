package web

import (
	"net/http"

	"github.com/JonMunkholm/linkboard/internal/core"
	"github.com/JonMunkholm/linkboard/internal/session"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLogin checks credentials, starts a session and sets its cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	user, err := s.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	sess := s.sessions.Create(user.Username, user.Nama)
	s.setSessionCookie(w, sess)
	writeJSON(w, http.StatusOK, sess)
}

// handleLogout ends the session, if any, and clears the cookie. It always
// succeeds.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
		if sess, ok := s.sessions.Get(c.Value); ok {
			ctx := core.ContextWithActor(WithRequestMetadata(r.Context(), r), sess.Username)
			s.service.LogAudit(ctx, core.AuditLogParams{Action: core.ActionLogout})
		}
		s.sessions.Delete(c.Value)
	}
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleMe returns the signed-in user.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		s.respondError(w, r, errNotLoggedIn, http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}
