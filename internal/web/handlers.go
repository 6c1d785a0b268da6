package web

import (
	"net/http"

	"github.com/JonMunkholm/contactsel/internal/core"
	"github.com/JonMunkholm/contactsel/internal/web/templates"
)

// handlePage renders the selector. A q parameter, even an empty one,
// replaces the search query first.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	if r.URL.Query().Has("q") {
		q := r.URL.Query().Get("q")
		sess.Apply(func(st core.State) (core.State, error) {
			return st.SetQuery(q), nil
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := templates.Page(pageData(sess.Snapshot())).Render(r.Context(), w); err != nil {
		requestLogger(r).Error("render page failed", "error", err)
	}
}
