package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/JonMunkholm/contactsel/internal/core"
)

type toggleFunc func(st core.State, importID string, id int) (core.State, error)

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	s.toggle(w, r, "select", core.State.Select)
}

func (s *Server) handleDeselect(w http.ResponseWriter, r *http.Request) {
	s.toggle(w, r, "deselect", core.State.Deselect)
}

// toggle moves one contact between the lists. The form (or JSON body) may
// carry the import ID the page was rendered from; toggles against a
// replaced import are refused.
//
// For browsers every outcome ends in a redirect: a refused toggle is a
// no-op and the reloaded page shows the real state.
func (s *Server) toggle(w http.ResponseWriter, r *http.Request, op string, fn toggleFunc) {
	sess := currentSession(r)
	logger := requestLogger(r)

	id, err := contactID(r)
	if err != nil {
		s.toggleFailed(w, r, err)
		return
	}

	importID, err := toggleImportID(r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	_, err = sess.Apply(func(st core.State) (core.State, error) {
		return fn(st, importID, id)
	})
	if err != nil {
		logger.Info("toggle refused", "op", op, "contact", id, "error", err)
		s.toggleFailed(w, r, err)
		return
	}

	logger.Debug("contact toggled", "op", op, "contact", id)
	if wantsJSON(r) {
		writeJSON(w, stateResponse(sess.Snapshot()))
		return
	}
	redirectHome(w, r)
}

func (s *Server) toggleFailed(w http.ResponseWriter, r *http.Request, err error) {
	if wantsJSON(r) {
		respondError(w, r, err, statusFor(err))
		return
	}
	redirectHome(w, r)
}

type toggleRequest struct {
	Import string `json:"import"`
}

// toggleImportID reads "import" from a JSON body or form field. An empty
// value means "whatever is current".
func toggleImportID(r *http.Request) (string, error) {
	if isJSONBody(r) {
		var req toggleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("invalid request body: %w", err)
		}
		return req.Import, nil
	}
	return r.FormValue("import"), nil
}

type queryRequest struct {
	Query string `json:"query"`
}

// handleQuery sets the search query (JSON API).
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	var req queryRequest
	if isJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
			return
		}
	} else {
		req.Query = r.FormValue("query")
	}

	sess.Apply(func(st core.State) (core.State, error) {
		return st.SetQuery(req.Query), nil
	})
	writeJSON(w, stateResponse(sess.Snapshot()))
}

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
