package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JonMunkholm/linkboard/internal/core"
	"github.com/JonMunkholm/linkboard/internal/logging"
	"github.com/JonMunkholm/linkboard/internal/session"
)

var (
	errNotLoggedIn    = errors.New("not logged in")
	errSessionExpired = errors.New("session expired")
)

// RequireSession returns middleware that admits only requests carrying a
// live session cookie. The session and the actor for audit entries are put
// on the request context.
func RequireSession(store *session.Store, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				deny(w, r, errNotLoggedIn)
				return
			}

			sess, ok := store.Get(cookie.Value)
			if !ok {
				deny(w, r, errSessionExpired)
				return
			}

			ctx := session.NewContext(r.Context(), sess)
			ctx = core.ContextWithActor(ctx, sess.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context()).Warn("auth: request rejected",
		"path", r.URL.Path,
		"method", r.Method,
		"ip", ClientIP(r),
		"reason", err.Error(),
	)

	msg := core.MapError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   msg.Message,
		"message": msg.Message,
		"action":  msg.Action,
		"code":    msg.Code,
	})
}
