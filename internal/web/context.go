package web

import (
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/contactsel/internal/logging"
	"github.com/JonMunkholm/contactsel/internal/session"
)

// withSession resolves the session cookie, creating a session (and cookie)
// when the browser has none or its session expired.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
			id = c.Value
		}

		sess, created := s.store.GetOrCreate(id)
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     s.cfg.Session.CookieName,
				Value:    sess.ID(),
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cfg.Session.SecureCookie,
				SameSite: http.SameSiteLaxMode,
			})
			if id != "" {
				logging.FromContext(r.Context()).Info("session expired, started new one",
					"session", session.ShortID(sess.ID()))
			}
		}

		next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), sess)))
	})
}

// currentSession returns the session attached by withSession.
func currentSession(r *http.Request) *session.Session {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		// Only reachable if a route skips withSession.
		panic("web: handler registered without session middleware")
	}
	return sess
}

// requestLogger tags the request logger with the session.
func requestLogger(r *http.Request) *slog.Logger {
	if sess, ok := session.FromContext(r.Context()); ok {
		return logging.WithFields(r.Context(), "session", session.ShortID(sess.ID()))
	}
	return logging.FromContext(r.Context())
}
