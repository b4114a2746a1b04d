package web

// handlers_common.go holds request parsing and cookie helpers shared by the
// handlers.

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/linkboard/internal/core"
	"github.com/JonMunkholm/linkboard/internal/session"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// parsePage reads the page query parameter. Any integer is accepted; the
// workspace clamps it. ok is false when page is missing or not a number, which
// keeps the current page.
func parsePage(r *http.Request) (page int, ok bool) {
	val := strings.TrimSpace(r.URL.Query().Get("page"))
	if val == "" {
		return 0, false
	}
	page, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return page, true
}

// parseCriteria reads view criteria from the query string. Unknown sort
// fields and sentiments are rejected rather than silently ignored.
func parseCriteria(r *http.Request) (core.Criteria, error) {
	q := r.URL.Query()

	key, err := core.ParseSortKey(q.Get("sort"))
	if err != nil {
		return core.Criteria{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}

	c := core.Criteria{
		Search:     q.Get("search"),
		Kategori:   q.Get("kategori"),
		NamaProduk: q.Get("namaProduk"),
		SortKey:    key,
		SortDir:    core.ParseSortDir(q.Get("dir")),
	}
	if v := strings.TrimSpace(q.Get("sentiment")); v != "" {
		s, ok := core.ParseSentiment(v)
		if !ok {
			return core.Criteria{}, fmt.Errorf("%w: unknown sentiment %q", errBadRequest, v)
		}
		c.Sentiment = s
	}
	return c, nil
}

// decodeJSON reads a JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// workspaceID returns the id of the signed-in session, which keys the
// user's analysis workspace.
func workspaceID(r *http.Request) (string, error) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		return "", errNotLoggedIn
	}
	return sess.ID, nil
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess *session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.cfg.Session.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Session.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
